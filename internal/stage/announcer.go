package stage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tatami-backend/internal/domain/entity"
	"tatami-backend/internal/substrate/invoker"
)

// AnnouncerTopic is the notification log topic for match announcements.
const AnnouncerTopic = "jiujitsu-lutas"

// Publisher is the notification log surface the side-effecting stages need.
type Publisher interface {
	Publish(topic, message string) error
}

// Announcer turns a dequeued match message into a public announcement on the
// notification log.
//
// Input:  a queued match message {"luta_id", "athletes", "round", ...}
// Output: {"status": "ANNOUNCED", "message": <announcement text>}
//
// Missing fields get placeholder text rather than failing: an announcement
// with an unknown match ID is still worth calling out.
type Announcer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewAnnouncer creates the announcer stage.
func NewAnnouncer(publisher Publisher, logger *slog.Logger) *Announcer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Announcer{publisher: publisher, logger: logger}
}

// Name implements invoker.Function.
func (a *Announcer) Name() string { return "announcer" }

// Handle implements invoker.Function.
func (a *Announcer) Handle(ctx context.Context, ictx invoker.InvocationContext, payload invoker.Payload) (invoker.Payload, error) {
	var input struct {
		LutaID   string           `json:"luta_id"`
		Athletes []entity.Athlete `json:"athletes"`
		Round    string           `json:"round"`
	}
	if err := decodePayload(payload, &input); err != nil {
		return nil, err
	}

	if input.LutaID == "" {
		input.LutaID = "LUTA-DESCONHECIDA"
	}
	if input.Round == "" {
		input.Round = "Rodada Única"
	}

	names := make([]string, 0, len(input.Athletes))
	for _, athlete := range input.Athletes {
		name := athlete.Name
		if name == "" {
			name = "??"
		}
		names = append(names, name)
	}
	lineup := strings.Join(names, " vs ")
	if lineup == "" {
		lineup = "Participantes indefinidos"
	}

	message := fmt.Sprintf("%s - %s: %s. Dirijam-se ao tatame!", input.Round, input.LutaID, lineup)

	a.logger.Info("announcing match", slog.String("luta_id", input.LutaID))
	if err := a.publisher.Publish(AnnouncerTopic, message); err != nil {
		return nil, fmt.Errorf("publish announcement: %w", err)
	}

	return invoker.Payload{
		"status":  "ANNOUNCED",
		"message": message,
	}, nil
}
