package storage

import (
	"context"
	"sort"
	"sync"

	"tiller/internal/model"
)

type MemoryStore struct {
	mu    sync.RWMutex
	runs  map[string]model.RunRecord
	ticks map[string][]model.TickRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = make(map[string]model.RunRecord)
	s.ticks = make(map[string][]model.TickRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run.SchemaVersion = CurrentSchemaVersion
	run.CodecVersion = CurrentCodecVersion
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAtUTC == runs[j].StartedAtUTC {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].StartedAtUTC < runs[j].StartedAtUTC
	})
	return runs, nil
}

func (s *MemoryStore) SaveTicks(_ context.Context, runID string, ticks []model.TickRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.TickRecord, 0, len(ticks))
	for _, tick := range ticks {
		copied = append(copied, model.TickRecord{
			Tick:        tick.Tick,
			Observation: append([]float64(nil), tick.Observation...),
			Action:      append([]float64(nil), tick.Action...),
		})
	}
	s.ticks[runID] = copied
	return nil
}

func (s *MemoryStore) GetTicks(_ context.Context, runID string) ([]model.TickRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticks, ok := s.ticks[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.TickRecord, 0, len(ticks))
	for _, tick := range ticks {
		copied = append(copied, model.TickRecord{
			Tick:        tick.Tick,
			Observation: append([]float64(nil), tick.Observation...),
			Action:      append([]float64(nil), tick.Action...),
		})
	}
	return copied, true, nil
}
