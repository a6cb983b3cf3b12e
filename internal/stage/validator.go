package stage

import (
	"context"

	"tatami-backend/internal/domain/entity"
	"tatami-backend/internal/substrate/invoker"
)

// Validator checks an athlete registration payload.
//
// Input:  {"athlete": {...}}
// Output: {"valid": bool, "errors": [string] (when invalid), "athlete": {...} (when valid)}
//
// A valid athlete comes back with defaults applied (team falls back to
// "Independente"). The stage never returns an error for a merely invalid
// athlete; invalidity is data, not failure.
type Validator struct{}

// NewValidator creates the validator stage.
func NewValidator() *Validator {
	return &Validator{}
}

// Name implements invoker.Function.
func (v *Validator) Name() string { return "validator" }

// Handle implements invoker.Function.
func (v *Validator) Handle(ctx context.Context, ictx invoker.InvocationContext, payload invoker.Payload) (invoker.Payload, error) {
	var input struct {
		Athlete entity.Athlete `json:"athlete"`
	}
	if err := decodePayload(payload, &input); err != nil {
		return nil, err
	}

	if err := input.Athlete.Validate(); err != nil {
		var messages []string
		if missing, ok := err.(*entity.MissingFieldsError); ok {
			for _, field := range missing.Fields {
				messages = append(messages, "missing required field: "+field)
			}
		} else {
			messages = append(messages, err.Error())
		}
		return invoker.Payload{
			"valid":  false,
			"errors": messages,
		}, nil
	}

	athlete := input.Athlete
	athlete.ApplyDefaults()

	athletePayload, err := encodePayload(athlete)
	if err != nil {
		return nil, err
	}
	return invoker.Payload{
		"valid":   true,
		"athlete": map[string]any(athletePayload),
	}, nil
}
