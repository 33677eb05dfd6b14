package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/sistemact/internal/config"
	"github.com/Additional-Code/sistemact/internal/messaging"
)

// replayClient hands a fixed batch of messages to the consumer, then blocks.
type replayClient struct {
	messages []messaging.Message

	mu     sync.Mutex
	failed []string
}

func (r *replayClient) Publish(context.Context, string, []byte, []byte) error { return nil }

func (r *replayClient) Consume(ctx context.Context, handler messaging.Handler) error {
	for _, m := range r.messages {
		if err := handler(ctx, m); err != nil {
			r.mu.Lock()
			r.failed = append(r.failed, m.Event())
			r.mu.Unlock()
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func (r *replayClient) Topic() string { return "ventas.events" }

func message(event string) messaging.Message {
	return messaging.Message{Topic: "ventas.events", Headers: map[string]string{messaging.EventHeader: event}}
}

func enabledConfig() config.Config {
	return config.Config{Messaging: config.Messaging{
		Enabled: true,
		Workers: config.Worker{Enabled: true, Concurrency: 1},
	}}
}

func TestEngineDispatchesByEvent(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	record := func(ctx context.Context, msg messaging.Message) error {
		mu.Lock()
		defer mu.Unlock()
		seen[msg.Event()]++
		return nil
	}
	client := &replayClient{messages: []messaging.Message{
		message("sync.requested"),
		message("sale.created"),
		message("sync.requested"),
		message("unknown.event"),
		message("boom"),
	}}

	engine := NewEngine(Params{
		Client: client,
		Logger: zap.NewNop(),
		Config: enabledConfig(),
		Registrations: []HandlerRegistration{
			{Event: "sync.requested", Handler: record},
			{Event: "sale.created", Handler: record},
			{Event: "boom", Handler: func(context.Context, messaging.Message) error { return errors.New("boom") }},
			{Event: "", Handler: record},
		},
	})

	require.NoError(t, engine.start(context.Background()))
	require.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return len(client.failed) == 1
	}, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, engine.stop(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int{"sync.requested": 2, "sale.created": 1}, seen)
	assert.Equal(t, []string{"boom"}, client.failed)
}

func TestEngineDisabled(t *testing.T) {
	engine := NewEngine(Params{
		Client: &replayClient{},
		Logger: zap.NewNop(),
		Config: config.Config{},
		Registrations: []HandlerRegistration{
			{Event: "sale.created", Handler: func(context.Context, messaging.Message) error { return nil }},
		},
	})

	require.NoError(t, engine.start(context.Background()))
	assert.Nil(t, engine.cancel)
	require.NoError(t, engine.stop(context.Background()))
}
