package station

import (
	"github.com/latch-protocol/latch-go/pkg/bus"
	"github.com/latch-protocol/latch-go/pkg/tick"
	"github.com/latch-protocol/latch-go/pkg/wire"
)

// AnnounceOnline returns a bus connect hook that publishes the
// station's retained presence record on every new session.
func AnnounceOnline(device wire.DeviceInfo, role string, clock tick.Clock) func(bus.Conn) {
	return func(c bus.Conn) {
		payload, err := wire.Encode(device, clock.Now(), wire.Status{
			Status: wire.StatusOnline,
			Role:   role,
		})
		if err != nil {
			return
		}
		_ = c.PublishRetained(wire.SuffixStatus, payload)
	}
}

// OfflineWill returns the retained last-will payload peers see when
// the station drops off the bus ungracefully.
func OfflineWill(device wire.DeviceInfo, role string) []byte {
	payload, _ := wire.Encode(device, 0, wire.Status{
		Status: wire.StatusOffline,
		Role:   role,
	})
	return payload
}
