package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/xydata/oracle/types"
)

// Subscribe streams committed transactions carrying eventType, or all of them
// when eventType is empty. The channel closes when ctx is done or the
// connection drops.
func (c *Client) Subscribe(ctx context.Context, eventType string) (<-chan types.TxResult, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = strings.TrimSuffix(u.Path, "/") + "/v1/events"
	if eventType != "" {
		u.RawQuery = url.Values{"event": []string{eventType}}.Encode()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", u, err)
	}

	out := make(chan types.TxResult)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			var res types.TxResult
			if err := conn.ReadJSON(&res); err != nil {
				return
			}
			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
