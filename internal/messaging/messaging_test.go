package messaging

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingClient struct {
	noopClient
	event string
	key   string
	value []byte
}

func (r *recordingClient) Publish(_ context.Context, event string, key []byte, value []byte) error {
	r.event, r.key, r.value = event, string(key), value
	return nil
}

func TestPublishJSON(t *testing.T) {
	rec := &recordingClient{}
	require.NoError(t, PublishJSON(context.Background(), rec, "sync.requested", "tiendanube", map[string]string{"platform": "tiendanube"}))

	assert.Equal(t, "sync.requested", rec.event)
	assert.Equal(t, "tiendanube", rec.key)

	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.value, &got))
	assert.Equal(t, "tiendanube", got["platform"])
}

func TestPublishJSONRejectsUnencodable(t *testing.T) {
	err := PublishJSON(context.Background(), &recordingClient{}, "x", "k", make(chan int))
	require.Error(t, err)
}

func TestMessageEvent(t *testing.T) {
	msg := Message{Headers: map[string]string{EventHeader: "sale.created"}}
	assert.Equal(t, "sale.created", msg.Event())
	assert.Equal(t, "", Message{}.Event())
}
