package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/fire-danger-card/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var errEmptyPush = errors.New("at least one state change is required")

// stateChangeRequest is one element of a POST /api/v1/states body.
type stateChangeRequest struct {
	EntityID   string         `json:"entity_id" validate:"required,contains=."`
	State      *string        `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

func decodeStateChanges(body io.Reader) ([]domain.StateChange, error) {
	var reqs []stateChangeRequest
	if err := json.NewDecoder(body).Decode(&reqs); err != nil {
		return nil, fmt.Errorf("decode state changes: %w", err)
	}
	if len(reqs) == 0 {
		return nil, errEmptyPush
	}

	changes := make([]domain.StateChange, 0, len(reqs))
	for i, req := range reqs {
		req.EntityID = strings.TrimSpace(req.EntityID)
		if err := validate.Struct(req); err != nil {
			return nil, fmt.Errorf("state change %d: %w", i, err)
		}
		changes = append(changes, domain.StateChange{
			EntityID:   req.EntityID,
			State:      req.State,
			Attributes: req.Attributes,
		})
	}
	return changes, nil
}
