package wire

// Topic suffixes. The transport layer scopes these per installation and
// per device; protocol logic only ever names the suffix.
const (
	// SuffixAccessRequest carries phase-1 credential requests to the backend.
	SuffixAccessRequest = "access/request"

	// SuffixAccessResponse carries phase-1 credential decisions to stations.
	SuffixAccessResponse = "access/response"

	// SuffixCodeSubmit carries phase-2 code submissions to the backend.
	SuffixCodeSubmit = "keypad/submit"

	// SuffixCodeResponse carries phase-2 code decisions to stations.
	SuffixCodeResponse = "access/keypad_response"

	// SuffixTap carries keypad entry-progress notifications between stations.
	SuffixTap = "keypad/tap"

	// SuffixBeep is the legacy alias some installations use for SuffixTap.
	// Decoded identically; never used for publishing.
	SuffixBeep = "keypad/beep"

	// SuffixKeypadEnable arms or disarms the keypad station.
	SuffixKeypadEnable = "keypad/enable"

	// SuffixAdminServo toggles the lock station's manual-override mode.
	SuffixAdminServo = "admin/servo_control"

	// SuffixStatus carries retained station presence announcements.
	SuffixStatus = "status"
)

// Event markers carried inside request payloads, kept verbatim from the
// deployed backend contract.
const (
	EventCredentialTry = "RFID_Try"
	EventCodeTry       = "KP_try"
)

// StationSuffixes lists every suffix a station role needs to observe.
// Used by the stations to build their subscription sets.
func StationSuffixes(kinds ...Kind) []string {
	out := make([]string, 0, len(kinds)+1)
	for _, k := range kinds {
		out = append(out, k.Suffix())
		if k == KindTapProgress {
			out = append(out, SuffixBeep)
		}
	}
	return out
}
