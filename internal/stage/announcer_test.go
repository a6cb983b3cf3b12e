package stage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tatami-backend/internal/substrate/invoker"
)

// stubPublisher records published messages.
type stubPublisher struct {
	topics   []string
	messages []string
	err      error
}

func (p *stubPublisher) Publish(topic, message string) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.messages = append(p.messages, message)
	return nil
}

func TestAnnouncer_Handle(t *testing.T) {
	pub := &stubPublisher{}
	a := NewAnnouncer(pub, nil)

	out, err := a.Handle(context.Background(), invoker.InvocationContext{}, invoker.Payload{
		"luta_id": "LUTA-1",
		"round":   "Classificatórias",
		"athletes": []map[string]any{
			{"name": "Ana"},
			{"name": "Bruno"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "ANNOUNCED", out["status"])
	want := "Classificatórias - LUTA-1: Ana vs Bruno. Dirijam-se ao tatame!"
	assert.Equal(t, want, out["message"])

	require.Len(t, pub.messages, 1)
	assert.Equal(t, AnnouncerTopic, pub.topics[0])
	assert.Equal(t, want, pub.messages[0])
}

func TestAnnouncer_Handle_MissingFields(t *testing.T) {
	pub := &stubPublisher{}
	a := NewAnnouncer(pub, nil)

	out, err := a.Handle(context.Background(), invoker.InvocationContext{}, invoker.Payload{})
	require.NoError(t, err)

	message := out["message"].(string)
	assert.Contains(t, message, "LUTA-DESCONHECIDA")
	assert.Contains(t, message, "Rodada Única")
	assert.Contains(t, message, "Participantes indefinidos")
}

func TestAnnouncer_Handle_NamelessAthlete(t *testing.T) {
	pub := &stubPublisher{}
	a := NewAnnouncer(pub, nil)

	out, err := a.Handle(context.Background(), invoker.InvocationContext{}, invoker.Payload{
		"luta_id":  "LUTA-2",
		"athletes": []map[string]any{{"name": "Ana"}, {}},
	})
	require.NoError(t, err)
	assert.Contains(t, out["message"].(string), "Ana vs ??")
}

func TestAnnouncer_Handle_PublishFailure(t *testing.T) {
	pub := &stubPublisher{err: errors.New("disk full")}
	a := NewAnnouncer(pub, nil)

	_, err := a.Handle(context.Background(), invoker.InvocationContext{},
		invoker.Payload{"luta_id": "LUTA-1"})
	assert.Error(t, err)
}
