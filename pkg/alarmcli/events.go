package alarmcli

import (
	"context"
	"fmt"

	"golang.org/x/net/websocket"

	"github.com/machtimer/machtimer/common"
)

// SubscribeEvents connects to the daemon's event stream and delivers
// every alarm firing on the returned channel. The channel closes when
// the context is canceled or the connection drops.
func SubscribeEvents(ctx context.Context) (<-chan common.FireEvent, error) {
	url := fmt.Sprintf("ws://%s/events", webAddress())
	conn, err := websocket.Dial(url, "", "http://"+webAddress())
	if err != nil {
		return nil, fmt.Errorf("event stream unavailable: %w", err)
	}

	events := make(chan common.FireEvent)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			var ev common.FireEvent
			if err := websocket.JSON.Receive(conn, &ev); err != nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}
