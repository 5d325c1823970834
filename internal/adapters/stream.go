package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"CoreBridge/internal/domain/repository"
	"CoreBridge/pkg/logger"
)

// StreamAdapter subscribes to an agent's WebSocket feed and buffers incoming
// raw signal payloads until the next aggregation cycle drains them. The read
// loop reconnects with a fixed delay; a full buffer drops the newest frames.
type StreamAdapter struct {
	name           string
	ecosystem      string
	url            string
	topics         []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	buffer    []map[string]any
	bufferCap int
	connected bool

	cancel context.CancelFunc
	done   chan struct{}
	logger *logger.Logger
}

func NewStreamAdapter(ecosystem, url string, topics []string, lgr *logger.Logger) *StreamAdapter {
	return &StreamAdapter{
		name:           ecosystem + "_stream",
		ecosystem:      ecosystem,
		url:            url,
		topics:         topics,
		reconnectDelay: 5 * time.Second,
		pingInterval:   20 * time.Second,
		bufferCap:      4096,
		logger:         lgr,
	}
}

func (a *StreamAdapter) Name() string      { return a.name }
func (a *StreamAdapter) Ecosystem() string { return a.ecosystem }

// Start brings up the read loop. It returns immediately; connection failures
// are retried in the background.
func (a *StreamAdapter) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	go a.runLoop(ctx)
}

// Stop tears down the read loop and the connection.
func (a *StreamAdapter) Stop() {
	if a.cancel == nil {
		return
	}
	a.cancel()
	a.closeConn()
	<-a.done
}

// Collect drains the buffered frames as raw signals. Stream feeds carry only
// trading signals; the other collections stay empty.
func (a *StreamAdapter) Collect(ctx context.Context) (*repository.RawBatch, error) {
	a.mu.Lock()
	drained := a.buffer
	a.buffer = nil
	connected := a.connected
	a.mu.Unlock()

	if !connected && len(drained) == 0 {
		return nil, fmt.Errorf("stream '%s' is not connected", a.name)
	}
	return &repository.RawBatch{RawSignals: drained}, nil
}

func (a *StreamAdapter) runLoop(ctx context.Context) {
	defer close(a.done)
	for {
		if ctx.Err() != nil {
			return
		}
		if err := a.connect(ctx); err != nil {
			a.logger.Warn("stream connect failed",
				logger.String("adapter", a.name), logger.Error(err))
			if !sleepCtx(ctx, a.reconnectDelay) {
				return
			}
			continue
		}

		a.readUntilClosed(ctx)
		a.closeConn()

		if !sleepCtx(ctx, a.reconnectDelay) {
			return
		}
	}
}

func (a *StreamAdapter) connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, a.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", a.url, err)
	}

	for _, topic := range a.topics {
		msg := map[string]string{"type": "subscribe", "topic": topic}
		if err := conn.WriteJSON(msg); err != nil {
			_ = conn.Close()
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}

	a.mu.Lock()
	a.conn = conn
	a.connected = true
	a.mu.Unlock()
	a.logger.Info("stream connected",
		logger.String("adapter", a.name), logger.String("url", a.url))
	return nil
}

func (a *StreamAdapter) readUntilClosed(ctx context.Context) {
	pingCtx, stopPing := context.WithCancel(ctx)
	defer stopPing()
	go a.pingLoop(pingCtx)

	for {
		if ctx.Err() != nil {
			return
		}
		a.mu.Lock()
		conn := a.conn
		a.mu.Unlock()
		if conn == nil {
			return
		}

		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				a.logger.Warn("stream read failed",
					logger.String("adapter", a.name), logger.Error(err))
			}
			return
		}

		var payload map[string]any
		if err := json.Unmarshal(frame, &payload); err != nil {
			// ignore non-object frames (acks, heartbeats)
			continue
		}
		a.push(payload)
	}
}

func (a *StreamAdapter) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(a.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.mu.Lock()
			conn := a.conn
			a.mu.Unlock()
			if conn != nil {
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}
}

func (a *StreamAdapter) push(payload map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.buffer) >= a.bufferCap {
		// drop on backpressure
		return
	}
	a.buffer = append(a.buffer, payload)
}

func (a *StreamAdapter) closeConn() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connected = false
	if a.conn != nil {
		_ = a.conn.Close()
		a.conn = nil
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
