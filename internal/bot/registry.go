package bot

import (
	"context"
	"slices"
	"strings"
)

// DispatchFunc runs a handler for a request.
type DispatchFunc func(ctx context.Context, h Handler, req *Request) []Reply

// Middleware wraps a DispatchFunc.
type Middleware func(next DispatchFunc) DispatchFunc

const accessDenied = "⛔ Access denied."

// Registry manages bot handlers and dispatches commands and callbacks.
type Registry struct {
	handlers   []Handler
	commands   map[string]Handler
	specs      map[string]Command
	order      []string
	middleware []Middleware
}

// NewRegistry creates a new handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make([]Handler, 0),
		commands: make(map[string]Handler),
		specs:    make(map[string]Command),
	}
}

// Register adds a handler. A command registered twice keeps its first owner.
func (r *Registry) Register(h Handler) {
	r.handlers = append(r.handlers, h)
	for _, c := range h.Commands() {
		name := strings.ToLower(c.Name)
		if _, exists := r.commands[name]; exists {
			continue
		}
		r.commands[name] = h
		r.specs[name] = c
		r.order = append(r.order, name)
	}
}

// Use appends middleware. The first one added is the outermost.
func (r *Registry) Use(mw ...Middleware) {
	r.middleware = append(r.middleware, mw...)
}

func (r *Registry) chain(final DispatchFunc) DispatchFunc {
	for _, mw := range slices.Backward(r.middleware) {
		final = mw(final)
	}
	return final
}

// DispatchCommand runs the handler owning req.Command.
// It returns false when no module registered the command.
func (r *Registry) DispatchCommand(ctx context.Context, req *Request) ([]Reply, bool) {
	name := strings.ToLower(req.Command)
	h, ok := r.commands[name]
	if !ok {
		return nil, false
	}
	if r.specs[name].Admin && !req.IsAdmin {
		return []Reply{Text(accessDenied)}, true
	}
	req.Command = name
	run := r.chain(func(ctx context.Context, h Handler, req *Request) []Reply {
		return h.HandleCommand(ctx, req)
	})
	return run(ctx, h, req), true
}

// DispatchCallback runs the first handler that accepts req.Data.
func (r *Registry) DispatchCallback(ctx context.Context, req *Request) ([]Reply, bool) {
	for _, h := range r.handlers {
		if h.CanHandleCallback(req.Data) {
			run := r.chain(func(ctx context.Context, h Handler, req *Request) []Reply {
				return h.HandleCallback(ctx, req)
			})
			return run(ctx, h, req), true
		}
	}
	return nil, false
}

// Commands returns the visible commands in registration order.
// Admin commands are included only when admin is true.
func (r *Registry) Commands(admin bool) []Command {
	out := make([]Command, 0, len(r.order))
	for _, name := range r.order {
		c := r.specs[name]
		if c.Hidden || (c.Admin && !admin) {
			continue
		}
		out = append(out, c)
	}
	return out
}
