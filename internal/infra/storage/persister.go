package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MRamiBalles/minesweeper/server/internal/events"
	"github.com/MRamiBalles/minesweeper/server/internal/platform/metrics"
)

// JournalPersister translates journal events to storage events.
// It implements events.EventPersister.
type JournalPersister struct {
	repo    EventRepository
	metrics *metrics.Collector
	timeout time.Duration
}

// NewJournalPersister wraps repo. A nil collector uses the global one.
func NewJournalPersister(repo EventRepository, m *metrics.Collector) *JournalPersister {
	if m == nil {
		m = metrics.Get()
	}
	return &JournalPersister{repo: repo, metrics: m, timeout: 5 * time.Second}
}

func (p *JournalPersister) Append(event events.GameEvent) error {
	stored, err := FromJournal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	start := time.Now()
	err = p.repo.Append(ctx, stored)
	p.metrics.RecordEventWrite(time.Since(start), err)
	return err
}

// FromJournal converts an in-memory journal event to its stored form.
func FromJournal(event events.GameEvent) (GameEvent, error) {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return GameEvent{}, fmt.Errorf("marshal %s payload: %w", event.Type, err)
	}
	var payloadMap map[string]interface{}
	if err := json.Unmarshal(payloadBytes, &payloadMap); err != nil {
		return GameEvent{}, fmt.Errorf("%s payload is not an object: %w", event.Type, err)
	}
	return GameEvent{
		ID:        event.ID,
		GameID:    event.GameID,
		SessionID: event.SessionID,
		Timestamp: event.Timestamp,
		EventType: string(event.Type),
		Payload:   payloadMap,
	}, nil
}
