// Package socketio streams progress events to a Socket.IO server, so a
// dashboard can follow a run live. Emission is best-effort: a slow or absent
// server never blocks the engine.
package socketio

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/draftgrid/internal/ctxlog"
	"github.com/vk/draftgrid/internal/progress"
)

// eventName is the Socket.IO event carrying each progress update.
const eventName = "progress"

// Emitter forwards progress events to a Socket.IO endpoint over WebSocket.
type Emitter struct {
	logger      *slog.Logger
	manager     *socket.Manager
	io          *socket.Socket
	events      chan progress.Event
	isConnected atomic.Bool
	drained     chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewEmitter connects to the Socket.IO server at rawURL (the URL path is
// used as the engine.io mount path) and starts forwarding in the background.
// The connection is established asynchronously; events queued before it is
// up are delivered once it is, up to the internal buffer.
func NewEmitter(ctx context.Context, rawURL string, namespace string) (*Emitter, error) {
	logger := ctxlog.FromContext(ctx).With(slog.String("component", "socketio"), slog.String("url", rawURL))

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse progress URL: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	e := &Emitter{
		logger:  logger,
		manager: manager,
		io:      io,
		events:  make(chan progress.Event, 256),
		drained: make(chan struct{}),
	}

	io.On(types.EventName("connect"), func(...any) {
		e.isConnected.Store(true)
		logger.Info("Connected to progress server", slog.String("sid", string(io.Id())))
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		logger.Warn("Progress server connection failed", "error", errs[0])
	})

	io.Connect()
	go e.forward()
	return e, nil
}

// Callback returns the progress callback to register with a tracker. It
// never blocks: when the buffer is full the event is dropped.
func (e *Emitter) Callback() progress.Callback {
	return func(event progress.Event) {
		e.mu.RLock()
		defer e.mu.RUnlock()
		if e.closed {
			return
		}
		select {
		case e.events <- event:
		default:
			e.logger.Debug("Dropping progress event, buffer full",
				slog.String("task", event.Task), slog.String("to", event.To))
		}
	}
}

func (e *Emitter) forward() {
	defer close(e.drained)
	for event := range e.events {
		e.io.Emit(eventName, event)
	}
}

// Close stops accepting events, flushes the buffer and disconnects. Safe to
// call more than once.
func (e *Emitter) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	close(e.events)
	<-e.drained
	e.io.Disconnect()
	if !e.isConnected.Load() {
		e.logger.Warn("Progress server was never reached, events were lost")
	}
	e.logger.Debug("Disconnected from progress server")
}
