package authsim

import (
	"time"

	"github.com/latch-protocol/latch-go/pkg/buslog"
	"github.com/latch-protocol/latch-go/pkg/tick"
	"github.com/latch-protocol/latch-go/pkg/wire"
)

// journal emits structured log events for the backend engine.
type journal struct {
	log       buslog.Logger
	sessionID string
	station   string
}

func newJournal(log buslog.Logger, sessionID, station string) journal {
	if log == nil {
		log = buslog.NoopLogger{}
	}
	return journal{log: log, sessionID: sessionID, station: station}
}

func (j journal) received(now tick.Millis, msg *wire.Message, suffix, detail string) {
	j.log.Log(buslog.Event{
		Timestamp: time.Now(),
		SessionID: j.sessionID,
		Station:   j.station,
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

func (j journal) sent(now tick.Millis, kind wire.Kind, detail string) {
	j.log.Log(buslog.Event{
		Timestamp: time.Now(),
		SessionID: j.sessionID,
		Station:   j.station,
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

func (j journal) failure(now tick.Millis, context string, err error) {
	j.log.Log(buslog.Event{
		Timestamp: time.Now(),
		SessionID: j.sessionID,
		Station:   j.station,
		Direction: buslog.DirectionLocal,
		Layer:     buslog.LayerStation,
		Tick:      uint32(now),
		Error: &buslog.ErrorEventData{
			Context: context,
			Message: err.Error(),
		},
	})
}
