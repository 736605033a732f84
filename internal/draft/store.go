package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dukerupert/invibe/internal/model"
)

// StorageKey is the session storage key holding the serialized draft.
const StorageKey = "eventFormData"

// Storage is per-session key/value persistence.
type Storage interface {
	Get(ctx context.Context, sessionID, key string) (string, bool, error)
	Set(ctx context.Context, sessionID, key, value string) error
	Delete(ctx context.Context, sessionID, key string) error
}

// Store owns the draft of each authoring session.
type Store struct {
	storage Storage
	logger  *slog.Logger
}

func NewStore(storage Storage, logger *slog.Logger) *Store {
	return &Store{storage: storage, logger: logger}
}

// Load returns the persisted draft, or nil if the session has none. A blob
// that no longer decodes is treated as absent.
func (s *Store) Load(ctx context.Context, sessionID string) (*model.EventDraft, error) {
	raw, ok, err := s.storage.Get(ctx, sessionID, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var d model.EventDraft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		s.logger.Warn("discarding undecodable draft", "session", sessionID, "error", err)
		return nil, nil
	}
	if d.Background.IsZero() {
		d.Background = model.TemplateBackground(model.DefaultTemplateID)
	}
	return &d, nil
}

// LoadOrInit returns the persisted draft, or persists and returns a default
// draft when there is none. Only a storage failure is an error.
func (s *Store) LoadOrInit(ctx context.Context, sessionID string) (model.EventDraft, error) {
	d, err := s.Load(ctx, sessionID)
	if err != nil {
		return model.EventDraft{}, err
	}
	if d != nil {
		return *d, nil
	}

	fresh := model.DefaultDraft()
	if err := s.Save(ctx, sessionID, fresh); err != nil {
		return model.EventDraft{}, err
	}
	return fresh, nil
}

// Save overwrites the persisted draft. The last save wins.
func (s *Store) Save(ctx context.Context, sessionID string, d model.EventDraft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.storage.Set(ctx, sessionID, StorageKey, string(raw)); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Clear removes the persisted draft.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.storage.Delete(ctx, sessionID, StorageKey); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}
