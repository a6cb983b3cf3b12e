package stage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tatami-backend/internal/substrate/invoker"
)

// stubDeliverer records delivered payloads.
type stubDeliverer struct {
	payloads []map[string]any
	err      error
}

func (d *stubDeliverer) Deliver(ctx context.Context, payload map[string]any) error {
	if d.err != nil {
		return d.err
	}
	d.payloads = append(d.payloads, payload)
	return nil
}

func TestNotifier_Handle(t *testing.T) {
	pub := &stubPublisher{}
	del := &stubDeliverer{}
	n := NewNotifier(pub, del, nil)

	out, err := n.Handle(context.Background(), invoker.InvocationContext{}, invoker.Payload{
		"luta_id": "LUTA-1",
		"winner":  "Ana",
		"method":  "Finalização",
	})
	require.NoError(t, err)

	assert.Equal(t, "NOTIFIED", out["status"])
	assert.Equal(t, "Resultado LUTA-1: vencedor Ana por Finalização", out["message"])

	require.Len(t, pub.messages, 1)
	assert.Equal(t, NotifierTopic, pub.topics[0])

	require.Len(t, del.payloads, 1)
	assert.Equal(t, "LUTA-1", del.payloads[0]["luta_id"])
}

func TestNotifier_Handle_NoDeliverer(t *testing.T) {
	pub := &stubPublisher{}
	n := NewNotifier(pub, nil, nil)

	out, err := n.Handle(context.Background(), invoker.InvocationContext{}, invoker.Payload{
		"luta_id": "LUTA-2",
		"winner":  "Bruno",
	})
	require.NoError(t, err)
	assert.Equal(t, "NOTIFIED", out["status"])
	assert.Equal(t, "Resultado LUTA-2: vencedor Bruno", out["message"])
}

func TestNotifier_Handle_DelivererFailureIsNonFatal(t *testing.T) {
	pub := &stubPublisher{}
	del := &stubDeliverer{err: errors.New("webhook unreachable")}
	n := NewNotifier(pub, del, nil)

	out, err := n.Handle(context.Background(), invoker.InvocationContext{}, invoker.Payload{
		"luta_id": "LUTA-3",
		"winner":  "Carla",
	})
	require.NoError(t, err, "log line is the durable record; delivery is best effort")
	assert.Equal(t, "NOTIFIED", out["status"])
	assert.Len(t, pub.messages, 1)
}

func TestNotifier_Handle_PublishFailure(t *testing.T) {
	pub := &stubPublisher{err: errors.New("disk full")}
	n := NewNotifier(pub, nil, nil)

	_, err := n.Handle(context.Background(), invoker.InvocationContext{},
		invoker.Payload{"luta_id": "LUTA-1", "winner": "Ana"})
	assert.Error(t, err)
}
