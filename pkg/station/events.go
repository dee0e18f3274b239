package station

import (
	"time"

	"github.com/latch-protocol/latch-go/pkg/buslog"
	"github.com/latch-protocol/latch-go/pkg/tick"
	"github.com/latch-protocol/latch-go/pkg/wire"
)

// recorder emits structured log events for one station.
type recorder struct {
	log       buslog.Logger
	sessionID string
	station   string
}

func newRecorder(log buslog.Logger, sessionID, station string) recorder {
	if log == nil {
		log = buslog.NoopLogger{}
	}
	return recorder{log: log, sessionID: sessionID, station: station}
}

// received records how an incoming decoded message was treated.
func (r recorder) received(now tick.Millis, msg *wire.Message, suffix, detail string) {
	r.log.Log(buslog.Event{
		Timestamp: time.Now(),
		SessionID: r.sessionID,
		Station:   r.station,
		Direction: buslog.DirectionIn,
		Layer:     buslog.LayerMessage,
		Tick:      uint32(now),
		Message: &buslog.MessageEvent{
			Kind:   msg.Kind.String(),
			Suffix: suffix,
			Peer:   msg.Device.ID,
			SentTS: uint32(msg.SentTS),
			Detail: detail,
		},
	})
}

// sent records an outgoing contract message.
func (r recorder) sent(now tick.Millis, kind wire.Kind, detail string) {
	r.log.Log(buslog.Event{
		Timestamp: time.Now(),
		SessionID: r.sessionID,
		Station:   r.station,
		Direction: buslog.DirectionOut,
		Layer:     buslog.LayerMessage,
		Tick:      uint32(now),
		Message: &buslog.MessageEvent{
			Kind:   kind.String(),
			Suffix: kind.Suffix(),
			SentTS: uint32(now),
			Detail: detail,
		},
	})
}

// state records a station state transition.
func (r recorder) state(now tick.Millis, entity, oldState, newState, reason string) {
	r.log.Log(buslog.Event{
		Timestamp: time.Now(),
		SessionID: r.sessionID,
		Station:   r.station,
		Direction: buslog.DirectionLocal,
		Layer:     buslog.LayerStation,
		Tick:      uint32(now),
		StateChange: &buslog.StateChangeEvent{
			Entity:   entity,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

// failure records an error without changing station state.
func (r recorder) failure(now tick.Millis, context string, err error) {
	r.log.Log(buslog.Event{
		Timestamp: time.Now(),
		SessionID: r.sessionID,
		Station:   r.station,
		Direction: buslog.DirectionLocal,
		Layer:     buslog.LayerStation,
		Tick:      uint32(now),
		Error: &buslog.ErrorEventData{
			Context: context,
			Message: err.Error(),
		},
	})
}
