package wire

import (
	"encoding/json"

	"github.com/latch-protocol/latch-go/pkg/tick"
)

// Platform is the device platform name embedded in envelope metadata.
const Platform = "latch-go"

// DeviceInfo identifies the publishing node inside the envelope.
type DeviceInfo struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
}

// Envelope is the outer structure of every published message.
type Envelope struct {
	Device DeviceInfo      `json:"device"`
	SentTS tick.Millis     `json:"sent_ts_ms"`
	Data   json.RawMessage `json:"data"`
}

// Kind tags the closed union of decoded message kinds.
type Kind uint8

const (
	// KindUnknown marks traffic on an unrecognized suffix.
	KindUnknown Kind = iota

	// KindAccessRequest - station to backend, phase 1.
	KindAccessRequest

	// KindAccessResponse - backend to stations, phase-1 decision.
	KindAccessResponse

	// KindCodeSubmit - station to backend, phase 2.
	KindCodeSubmit

	// KindCodeResponse - backend to stations, phase-2 decision.
	KindCodeResponse

	// KindTapProgress - keypad to stations, entry progress.
	KindTapProgress

	// KindKeypadEnable - entry station to keypad, arm/disarm.
	KindKeypadEnable

	// KindAdminServoControl - admin to lock station, override toggle.
	KindAdminServoControl

	// KindStatus - station presence announcement.
	KindStatus
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAccessRequest:
		return "ACCESS_REQUEST"
	case KindAccessResponse:
		return "ACCESS_RESPONSE"
	case KindCodeSubmit:
		return "CODE_SUBMIT"
	case KindCodeResponse:
		return "CODE_RESPONSE"
	case KindTapProgress:
		return "TAP_PROGRESS"
	case KindKeypadEnable:
		return "KEYPAD_ENABLE"
	case KindAdminServoControl:
		return "ADMIN_SERVO_CONTROL"
	case KindStatus:
		return "STATUS"
	default:
		return "UNKNOWN"
	}
}

// Suffix returns the topic suffix this kind publishes on.
func (k Kind) Suffix() string {
	switch k {
	case KindAccessRequest:
		return SuffixAccessRequest
	case KindAccessResponse:
		return SuffixAccessResponse
	case KindCodeSubmit:
		return SuffixCodeSubmit
	case KindCodeResponse:
		return SuffixCodeResponse
	case KindTapProgress:
		return SuffixTap
	case KindKeypadEnable:
		return SuffixKeypadEnable
	case KindAdminServoControl:
		return SuffixAdminServo
	case KindStatus:
		return SuffixStatus
	default:
		return ""
	}
}

// KindForSuffix maps an incoming topic suffix to its message kind.
func KindForSuffix(suffix string) Kind {
	switch suffix {
	case SuffixAccessRequest:
		return KindAccessRequest
	case SuffixAccessResponse:
		return KindAccessResponse
	case SuffixCodeSubmit:
		return KindCodeSubmit
	case SuffixCodeResponse:
		return KindCodeResponse
	case SuffixTap, SuffixBeep:
		return KindTapProgress
	case SuffixKeypadEnable:
		return KindKeypadEnable
	case SuffixAdminServo:
		return KindAdminServoControl
	case SuffixStatus:
		return KindStatus
	default:
		return KindUnknown
	}
}

// AccessRequest is the phase-1 payload: a credential identifier read
// from a proximity token.
type AccessRequest struct {
	// UID is the credential identifier, lowercase hex.
	UID string `json:"uid"`

	// Event is EventCredentialTry.
	Event string `json:"event"`
}

// AccessResult is the nested decision object used by phase-1 responses.
type AccessResult struct {
	HasAccess bool `json:"hasAccess"`
}

// AccessResponse is the phase-1 decision payload. EchoTS repeats the
// originating request's envelope sent_ts_ms so the requester can bound
// decision age against its own clock.
type AccessResponse struct {
	Response AccessResult `json:"response"`
	EchoTS   tick.Millis  `json:"sent_ts_ms"`
}

// CodeSubmit is the phase-2 payload: the complete numeric code.
type CodeSubmit struct {
	// Code is the entered code, exactly CodeLength digits.
	Code string `json:"code"`

	// Event is EventCodeTry.
	Event string `json:"event"`
}

// CodeResult is the nested decision object used by phase-2 responses.
type CodeResult struct {
	AccessGranted bool `json:"accessGranted"`
}

// CodeResponse is the phase-2 decision payload.
type CodeResponse struct {
	Response CodeResult `json:"response"`
}

// TapProgress reports how many digits the keypad currently holds.
// Length 0 doubles as the "buffer cleared" notification.
type TapProgress struct {
	PinLength int `json:"pinlength"`
}

// KeypadEnable arms or disarms the keypad station.
type KeypadEnable struct {
	Enabled bool `json:"enabled"`
}

// AdminServoControl toggles the lock station's manual-override mode.
type AdminServoControl struct {
	AdminServoControl bool `json:"adminServoControl"`
}

// Status is the retained presence announcement every station publishes
// after connecting.
type Status struct {
	Status string `json:"status"`
	Role   string `json:"role"`
}

// Status.Status values. Offline is published by the broker as the
// station's last will.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Message is the decoded form of one bus delivery: envelope metadata
// plus exactly one payload pointer matching Kind.
type Message struct {
	Kind   Kind
	Device DeviceInfo
	SentTS tick.Millis

	// One of these is set, matching Kind.
	AccessRequest     *AccessRequest
	AccessResponse    *AccessResponse
	CodeSubmit        *CodeSubmit
	CodeResponse      *CodeResponse
	TapProgress       *TapProgress
	KeypadEnable      *KeypadEnable
	AdminServoControl *AdminServoControl
	Status            *Status
}
