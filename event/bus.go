package event

import (
	"context"
	"crypto/rand"
	"log/slog"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/oklog/ulid/v2"
)

type Handler func(ctx context.Context, e Envelope)

// Publisher is the capability handed to producers. Publish returns once
// the event is handed off; handlers run out-of-band.
type Publisher interface {
	Publish(ctx context.Context, name string, payload any) error
}

// Bus dispatches each published event asynchronously to every handler
// subscribed to its name. A handler failure or panic never reaches the
// publisher; delivery is at-least-once, unordered across events.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	wg       sync.WaitGroup
	log      *slog.Logger
}

func NewBus(log *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for an event name. Call during wiring,
// before the first Publish.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

func (b *Bus) Publish(ctx context.Context, name string, payload any) error {
	raw, err := jsoniter.ConfigFastest.Marshal(payload)
	if err != nil {
		return err
	}

	id, err := newEventID()
	if err != nil {
		return err
	}
	env := Envelope{
		ID:         id,
		Name:       name,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}

	b.mu.RLock()
	subs := b.handlers[name]
	b.mu.RUnlock()

	// Detach from the request: cancellation of the publishing call must
	// not cancel or delay the consumers.
	hctx := context.WithoutCancel(ctx)
	for _, h := range subs {
		b.wg.Add(1)
		go b.deliver(hctx, h, env)
	}
	return nil
}

func (b *Bus) deliver(ctx context.Context, h Handler, env Envelope) {
	defer b.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked", "event", env.Name, "event_id", env.ID, "panic", r)
		}
	}()
	h(ctx, env)
}

// Close waits for in-flight handlers to finish.
func (b *Bus) Close() {
	b.wg.Wait()
}

func newEventID() (string, error) {
	t := time.Now().UTC()
	id, err := ulid.New(ulid.Timestamp(t), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
