package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pawn-settlement/pkg/id"
)

type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Dispatcher sends messages after the caller's transaction has committed. Sends run
// detached from the request context and never report failure to the caller.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	log     *slog.Logger
	newID   func() string
	wg      sync.WaitGroup
}

func NewDispatcher(sender Sender, timeout time.Duration, log *slog.Logger) *Dispatcher {
	if sender == nil {
		sender = Noop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{sender: sender, timeout: timeout, log: log, newID: id.NewCorrelationID}
}

func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	msgs := Messages(ev, d.newID)
	if len(msgs) == 0 {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		sendCtx := context.WithoutCancel(ctx)
		if d.timeout > 0 {
			var cancel context.CancelFunc
			sendCtx, cancel = context.WithTimeout(sendCtx, d.timeout)
			defer cancel()
		}
		for _, m := range msgs {
			if err := d.sender.Send(sendCtx, m); err != nil {
				d.log.Error("notification send failed",
					slog.String("message_id", m.ID),
					slog.String("entity", string(m.Entity)),
					slog.String("state", m.State),
					slog.String("audience", string(m.Audience)),
					slog.Any("error", err))
				continue
			}
			d.log.Debug("notification sent", slog.String("message_id", m.ID), slog.String("audience", string(m.Audience)))
		}
	}()
}

// Wait blocks until every in-flight dispatch has finished. Used on shutdown and in tests.
func (d *Dispatcher) Wait() { d.wg.Wait() }

type Noop struct{}

func (Noop) Send(context.Context, Message) error { return nil }

// Router sends user-facing messages one way and drop-point mail another.
type Router struct {
	Users      Sender
	DropPoints Sender
}

func (r Router) Send(ctx context.Context, m Message) error {
	if m.Audience == DropPoint {
		if r.DropPoints == nil {
			return nil
		}
		return r.DropPoints.Send(ctx, m)
	}
	if r.Users == nil {
		return nil
	}
	return r.Users.Send(ctx, m)
}
