package notify

import (
	"context"
	"fmt"
)

// Router picks a sink per channel, falling back to a default.
type Router struct {
	routes   map[string]Sink
	fallback Sink
}

// NewRouter creates a Router; fallback may be nil.
func NewRouter(fallback Sink) *Router {
	return &Router{routes: make(map[string]Sink), fallback: fallback}
}

// Route registers sink for channel and returns the router.
func (r *Router) Route(channel string, sink Sink) *Router {
	r.routes[channel] = sink
	return r
}

// Send delivers through the sink registered for channel.
func (r *Router) Send(ctx context.Context, channel, recipient string, payload Payload) error {
	if sink, ok := r.routes[channel]; ok {
		return sink.Send(ctx, channel, recipient, payload)
	}
	if r.fallback != nil {
		return r.fallback.Send(ctx, channel, recipient, payload)
	}
	return fmt.Errorf("canal de notificação sem destino: %s", channel)
}
