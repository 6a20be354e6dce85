package bot

import (
	"context"
	"testing"
)

func TestRegistry_DispatchCommand(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	first := newEchoHandler("first")
	second := newEchoHandler("second")
	r.Register(first)
	r.Register(second)

	replies, ok := r.DispatchCommand(context.Background(), &Request{Command: "ECHO", Args: "hi"})
	if !ok || len(replies) != 1 || replies[0].Text != "echo:hi" {
		t.Fatalf("Unexpected dispatch: %v %+v", ok, replies)
	}
	if first.calls.Load() != 1 || second.calls.Load() != 0 {
		t.Errorf("Expected the first owner to win, calls = %d, %d", first.calls.Load(), second.calls.Load())
	}

	if _, ok := r.DispatchCommand(context.Background(), &Request{Command: "nope"}); ok {
		t.Error("Expected unknown command to be unhandled")
	}
}

func TestRegistry_AdminGate(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	h := newEchoHandler("echo")
	r.Register(h)

	replies, ok := r.DispatchCommand(context.Background(), &Request{Command: "secret"})
	if !ok || len(replies) != 1 || replies[0].Text != accessDenied {
		t.Fatalf("Expected access denied, got %v %+v", ok, replies)
	}
	if h.calls.Load() != 0 {
		t.Error("Handler must not run for non-admins")
	}

	replies, _ = r.DispatchCommand(context.Background(), &Request{Command: "secret", IsAdmin: true})
	if replies[0].Text != "secret:" {
		t.Errorf("Expected admin to reach the handler, got %q", replies[0].Text)
	}
}

func TestRegistry_Commands(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Register(newEchoHandler("echo"))

	public := r.Commands(false)
	if len(public) != 1 || public[0].Name != "echo" {
		t.Errorf("Expected only echo for users, got %+v", public)
	}
	admin := r.Commands(true)
	if len(admin) != 2 || admin[1].Name != "secret" {
		t.Errorf("Expected echo and secret for admins, got %+v", admin)
	}
}

func TestRegistry_DispatchCallback(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Register(newEchoHandler("echo"))

	replies, ok := r.DispatchCallback(context.Background(), &Request{Data: "echo:x"})
	if !ok || len(replies) != 1 || replies[0].Text != "edited x" || !replies[0].Edit {
		t.Errorf("Unexpected callback dispatch: %v %+v", ok, replies)
	}
	if _, ok := r.DispatchCallback(context.Background(), &Request{Data: "other:x"}); ok {
		t.Error("Expected unclaimed callback to be unhandled")
	}
}

func TestRegistry_MiddlewareOrder(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Register(newEchoHandler("echo"))

	var order []string
	tag := func(name string) Middleware {
		return func(next DispatchFunc) DispatchFunc {
			return func(ctx context.Context, h Handler, req *Request) []Reply {
				order = append(order, name+">")
				out := next(ctx, h, req)
				order = append(order, "<"+name)
				return out
			}
		}
	}
	r.Use(tag("outer"), tag("inner"))

	r.DispatchCommand(context.Background(), &Request{Command: "echo"})
	want := []string{"outer>", "inner>", "<inner", "<outer"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}
