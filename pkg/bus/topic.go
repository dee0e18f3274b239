package bus

import (
	"fmt"
	"strings"
)

// Scope names the topic namespace a station operates in.
type Scope struct {
	// User is the account segment of the namespace.
	User string

	// Site groups the stations guarding one door.
	Site string

	// DeviceID uniquely names this station within the site.
	DeviceID string
}

// Validate checks that all scope segments are present and free of
// topic metacharacters.
func (s Scope) Validate() error {
	segments := []struct {
		name  string
		value string
	}{
		{"user", s.User},
		{"site", s.Site},
		{"device ID", s.DeviceID},
	}
	for _, seg := range segments {
		if seg.value == "" {
			return fmt.Errorf("scope %s is required", seg.name)
		}
		if strings.ContainsAny(seg.value, "/+#") {
			return fmt.Errorf("scope %s %q contains a topic metacharacter", seg.name, seg.value)
		}
	}
	return nil
}

// DeviceTopic returns the topic this station publishes suffix on.
func (s Scope) DeviceTopic(suffix string) string {
	return s.User + "/" + s.Site + "/" + s.DeviceID + "/" + suffix
}

// SiteFilter returns the subscription filter matching suffix published
// by any station in the site.
func (s Scope) SiteFilter(suffix string) string {
	return s.User + "/" + s.Site + "/+/" + suffix
}

// Split breaks a full topic into the publishing device and the suffix.
// It reports false for topics outside this scope's site.
func (s Scope) Split(topic string) (deviceID, suffix string, ok bool) {
	rest, found := strings.CutPrefix(topic, s.User+"/"+s.Site+"/")
	if !found {
		return "", "", false
	}
	deviceID, suffix, found = strings.Cut(rest, "/")
	if !found || deviceID == "" || suffix == "" {
		return "", "", false
	}
	return deviceID, suffix, true
}
