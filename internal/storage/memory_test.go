package storage

import (
	"context"
	"testing"

	"tiller/internal/model"
)

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	run := model.RunRecord{
		ID:           "run-1",
		ArtifactPath: "policy.tilr",
		ObsWidth:     3,
		ActWidth:     1,
		StartedAtUTC: "2026-08-29T10:00:00Z",
		Ticks:        12,
	}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	got, ok, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatal("expected run to exist")
	}
	if got.ArtifactPath != run.ArtifactPath || got.Ticks != run.Ticks {
		t.Fatalf("unexpected run: %+v", got)
	}
	if got.SchemaVersion != CurrentSchemaVersion {
		t.Fatalf("expected schema version to be stamped, got %d", got.SchemaVersion)
	}

	_, ok, err = store.GetRun(ctx, "absent")
	if err != nil {
		t.Fatalf("get absent run: %v", err)
	}
	if ok {
		t.Fatal("expected absent run")
	}
}

func TestMemoryStoreListRunsOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	for _, run := range []model.RunRecord{
		{ID: "b", StartedAtUTC: "2026-08-29T11:00:00Z"},
		{ID: "a", StartedAtUTC: "2026-08-29T09:00:00Z"},
		{ID: "c", StartedAtUTC: "2026-08-29T11:00:00Z"},
	} {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run %s: %v", run.ID, err)
		}
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].ID != "a" || runs[1].ID != "b" || runs[2].ID != "c" {
		t.Fatalf("unexpected order: %s %s %s", runs[0].ID, runs[1].ID, runs[2].ID)
	}
}

func TestMemoryStoreTicksAreCopied(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	obs := []float64{1, 2}
	ticks := []model.TickRecord{{Tick: 0, Observation: obs, Action: []float64{3}}}
	if err := store.SaveTicks(ctx, "run-1", ticks); err != nil {
		t.Fatalf("save ticks: %v", err)
	}

	obs[0] = 99

	got, ok, err := store.GetTicks(ctx, "run-1")
	if err != nil {
		t.Fatalf("get ticks: %v", err)
	}
	if !ok {
		t.Fatal("expected trace to exist")
	}
	if got[0].Observation[0] != 1 {
		t.Fatalf("stored trace aliases caller slice: %+v", got)
	}

	_, ok, err = store.GetTicks(ctx, "absent")
	if err != nil {
		t.Fatalf("get absent ticks: %v", err)
	}
	if ok {
		t.Fatal("expected absent trace")
	}
}
