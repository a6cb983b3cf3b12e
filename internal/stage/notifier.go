package stage

import (
	"context"
	"fmt"
	"log/slog"

	"tatami-backend/internal/substrate/invoker"
)

// NotifierTopic is the notification log topic for recorded results.
const NotifierTopic = "jiujitsu-resultados"

// Deliverer pushes a notification to an external channel, such as a webhook.
type Deliverer interface {
	Deliver(ctx context.Context, payload map[string]any) error
}

// Notifier publishes a recorded result to the notification log and, when a
// deliverer is configured, forwards it to the external channel.
//
// Input:  {"luta_id", "winner", "method"?}
// Output: {"status": "NOTIFIED", "message": <notification text>}
//
// External delivery is best effort: a webhook failure is logged but does not
// fail the stage, because the log line is the durable record.
type Notifier struct {
	publisher Publisher
	deliverer Deliverer
	logger    *slog.Logger
}

// NewNotifier creates the notifier stage. deliverer may be nil to disable
// external delivery.
func NewNotifier(publisher Publisher, deliverer Deliverer, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{publisher: publisher, deliverer: deliverer, logger: logger}
}

// Name implements invoker.Function.
func (n *Notifier) Name() string { return "notifier" }

// Handle implements invoker.Function.
func (n *Notifier) Handle(ctx context.Context, ictx invoker.InvocationContext, payload invoker.Payload) (invoker.Payload, error) {
	var input struct {
		LutaID string `json:"luta_id"`
		Winner string `json:"winner"`
		Method string `json:"method"`
	}
	if err := decodePayload(payload, &input); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Resultado %s: vencedor %s", input.LutaID, input.Winner)
	if input.Method != "" {
		message += " por " + input.Method
	}

	if err := n.publisher.Publish(NotifierTopic, message); err != nil {
		return nil, fmt.Errorf("publish result notification: %w", err)
	}

	if n.deliverer != nil {
		if err := n.deliverer.Deliver(ctx, map[string]any{
			"luta_id": input.LutaID,
			"winner":  input.Winner,
			"method":  input.Method,
			"message": message,
		}); err != nil {
			n.logger.Warn("external notification delivery failed",
				slog.String("luta_id", input.LutaID),
				slog.String("error", err.Error()))
		}
	}

	return invoker.Payload{
		"status":  "NOTIFIED",
		"message": message,
	}, nil
}
