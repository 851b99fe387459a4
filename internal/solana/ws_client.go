package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

// LogStreamConfig configures WebSocket log subscription behavior.
type LogStreamConfig struct {
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	PingInterval      time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
}

// DefaultLogStreamConfig returns the default stream configuration.
func DefaultLogStreamConfig() LogStreamConfig {
	return LogStreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// LogStream maintains a single logsSubscribe subscription over WebSocket,
// reconnecting and resubscribing on connection loss. Notifications are
// delivered on a buffered channel; the buffer absorbs bursts.
type LogStream struct {
	endpoint string
	filter   LogsFilter
	config   LogStreamConfig
	out      chan LogNotification
	logger   *log.Logger
}

// NewLogStream creates a log stream for one filter. Run must be called to
// start delivery.
func NewLogStream(endpoint string, filter LogsFilter, config *LogStreamConfig, logger *log.Logger) *LogStream {
	cfg := DefaultLogStreamConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = log.Default()
	}
	return &LogStream{
		endpoint: endpoint,
		filter:   filter,
		config:   cfg,
		out:      make(chan LogNotification, 1024),
		logger:   logger,
	}
}

// Notifications returns the delivery channel. Closed when Run returns.
func (s *LogStream) Notifications() <-chan LogNotification {
	return s.out
}

// Run connects, subscribes, and pumps notifications until ctx is done.
// Connection loss triggers reconnect with exponential backoff.
func (s *LogStream) Run(ctx context.Context) error {
	defer close(s.out)

	delay := s.config.ReconnectDelay
	for {
		err := s.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Printf("[ws] connection lost: %v, reconnecting in %s", err, delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > s.config.MaxReconnectDelay {
			delay = s.config.MaxReconnectDelay
		}
	}
}

// runOnce performs one connect/subscribe/read session.
func (s *LogStream) runOnce(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	// Close the connection when ctx is cancelled to unblock the reader.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if err := s.subscribe(conn); err != nil {
		return err
	}

	pingTicker := time.NewTicker(s.config.PingInterval)
	defer pingTicker.Stop()
	go func() {
		for {
			select {
			case <-done:
				return
			case <-pingTicker.C:
				conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("websocket read: %w", err)
		}

		notif, ok := parseLogNotification(data)
		if !ok {
			continue
		}

		select {
		case s.out <- notif:
		default:
			// Buffer full: drop the oldest by draining one slot. Losing a
			// stale notification beats blocking the reader.
			select {
			case <-s.out:
			default:
			}
			s.out <- notif
		}
	}
}

// subscribe sends logsSubscribe and waits for the confirmation frame.
func (s *LogStream) subscribe(conn *websocket.Conn) error {
	var filterParam interface{} = "all"
	if len(s.filter.Mentions) > 0 {
		filterParam = map[string]interface{}{"mentions": s.filter.Mentions}
	}

	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "logsSubscribe",
		"params": []interface{}{
			filterParam,
			map[string]string{"commitment": "confirmed"},
		},
	}

	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read subscribe confirmation: %w", err)
	}

	var resp struct {
		Result *int64 `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("parse subscribe confirmation: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("subscribe rejected: %d %s", resp.Error.Code, resp.Error.Message)
	}
	if resp.Result == nil {
		return fmt.Errorf("subscribe confirmation missing subscription id")
	}
	return nil
}

// wsLogParams is the notification payload shape for logsNotification.
type wsLogParams struct {
	Result struct {
		Context struct {
			Slot int64 `json:"slot"`
		} `json:"context"`
		Value struct {
			Signature string      `json:"signature"`
			Err       interface{} `json:"err"`
			Logs      []string    `json:"logs"`
		} `json:"value"`
	} `json:"result"`
}

// parseLogNotification extracts a LogNotification from a raw frame.
// Non-notification frames return ok=false.
func parseLogNotification(data []byte) (LogNotification, bool) {
	var msg struct {
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(data, &msg); err != nil || msg.Method != "logsNotification" {
		return LogNotification{}, false
	}

	var params wsLogParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return LogNotification{}, false
	}

	return LogNotification{
		Signature: params.Result.Value.Signature,
		Slot:      params.Result.Context.Slot,
		Logs:      params.Result.Value.Logs,
		Err:       params.Result.Value.Err,
	}, true
}
