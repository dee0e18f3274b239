package discovery

import (
	"fmt"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeStationTXT creates TXT records for station presence.
func EncodeStationTXT(info *StationInfo) TXTRecordMap {
	txt := make(TXTRecordMap)

	// Required fields
	txt[TXTKeyUser] = info.User
	txt[TXTKeySite] = info.Site
	txt[TXTKeyDeviceID] = info.DeviceID
	txt[TXTKeyRole] = info.Role

	// Optional fields
	if info.Firmware != "" {
		txt[TXTKeyFirmware] = info.Firmware
	}

	return txt
}

// DecodeStationTXT parses TXT records from station presence discovery.
func DecodeStationTXT(txt TXTRecordMap) (*StationInfo, error) {
	info := &StationInfo{}

	var ok bool
	if info.User, ok = txt[TXTKeyUser]; !ok || info.User == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyUser)
	}
	if info.Site, ok = txt[TXTKeySite]; !ok || info.Site == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeySite)
	}
	if info.DeviceID, ok = txt[TXTKeyDeviceID]; !ok || info.DeviceID == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyDeviceID)
	}
	if info.Role, ok = txt[TXTKeyRole]; !ok || info.Role == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyRole)
	}

	// Optional fields
	info.Firmware = txt[TXTKeyFirmware]

	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a slice of "key=value"
// strings, the format mDNS libraries expect.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a
// TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
