package wire

import (
	"encoding/json"
	"fmt"

	"github.com/latch-protocol/latch-go/pkg/tick"
)

// Encode wraps a payload in the standard envelope and serializes it.
func Encode(dev DeviceInfo, sent tick.Millis, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	env := Envelope{Device: dev, SentTS: sent, Data: raw}
	out, err := json.Marshal(&env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return out, nil
}

// Decode parses one bus delivery into a Message. The suffix selects the
// payload type; undecodable envelopes or payloads return an error so the
// caller can log and drop them without touching station state.
func Decode(suffix string, payload []byte) (*Message, error) {
	kind := KindForSuffix(suffix)
	if kind == KindUnknown {
		return nil, fmt.Errorf("unknown topic suffix %q", suffix)
	}

	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decode envelope on %q: %w", suffix, err)
	}

	msg := &Message{Kind: kind, Device: env.Device, SentTS: env.SentTS}

	var err error
	switch kind {
	case KindAccessRequest:
		msg.AccessRequest, err = decodeAs[AccessRequest](env.Data)
	case KindAccessResponse:
		msg.AccessResponse, err = decodeAs[AccessResponse](env.Data)
	case KindCodeSubmit:
		msg.CodeSubmit, err = decodeAs[CodeSubmit](env.Data)
	case KindCodeResponse:
		msg.CodeResponse, err = decodeAs[CodeResponse](env.Data)
	case KindTapProgress:
		msg.TapProgress, err = decodeAs[TapProgress](env.Data)
	case KindKeypadEnable:
		msg.KeypadEnable, err = decodeAs[KeypadEnable](env.Data)
	case KindAdminServoControl:
		msg.AdminServoControl, err = decodeAs[AdminServoControl](env.Data)
	case KindStatus:
		msg.Status, err = decodeAs[Status](env.Data)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return msg, nil
}

// decodeAs unmarshals the envelope's data member into a fresh T.
// A missing data member decodes to the zero payload rather than nil so
// stations can rely on the payload pointer being set for a known kind.
func decodeAs[T any](raw json.RawMessage) (*T, error) {
	v := new(T)
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, err
	}
	return v, nil
}
