package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestTasks_Expansion(t *testing.T) {
	store := newFakeStore()
	store.fids = []string{"1", "2", "3"}
	eng := newTestEngine(t, store, &fakeOhsome{})

	tasks, err := eng.Tasks(context.Background(), "regions", "", "")
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	// 3 regions times the full combination manifest.
	want := 3 * len(eng.reg.Combinations())
	if len(tasks) != want {
		t.Errorf("task count: got %d, want %d", len(tasks), want)
	}

	tasks, err = eng.Tasks(context.Background(), "regions", "PoiDensity", "")
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Errorf("PoiDensity task count: got %d, want 3", len(tasks))
	}
	for _, task := range tasks {
		if task.Layer != "poi" {
			t.Errorf("PoiDensity task layer: got %q, want poi", task.Layer)
		}
	}
}

func TestTasks_InvalidSelection(t *testing.T) {
	eng := newTestEngine(t, newFakeStore(), &fakeOhsome{})

	if _, err := eng.Tasks(context.Background(), "nope", "", ""); err == nil {
		t.Error("unknown dataset must be rejected")
	}

	_, err := eng.Tasks(context.Background(), "regions", "PoiDensity", "building_count")
	var combErr *CombinationError
	if !errors.As(err, &combErr) {
		t.Errorf("got %v, want CombinationError", err)
	}
}

func TestRunAll_BoundedConcurrency(t *testing.T) {
	store := newFakeStore()
	store.fids = make([]string, 10)
	for n := range store.fids {
		store.fids[n] = fmt.Sprintf("%d", n+1)
	}
	client := &fakeOhsome{delay: 20 * time.Millisecond}
	eng := newTestEngine(t, store, client)

	tasks, err := eng.Tasks(context.Background(), "regions", "GhsPopComparisonBuildings", "building_count")
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if len(tasks) != 10 {
		t.Fatalf("task count: got %d, want 10", len(tasks))
	}

	res := eng.RunAll(context.Background(), tasks, true)
	if res.Total != 10 || res.Failed != 0 {
		t.Fatalf("run result: got %+v, want 10 total, 0 failed", res)
	}
	if client.maxInFlight > maxInFlight {
		t.Errorf("max in-flight queries: got %d, want at most %d", client.maxInFlight, maxInFlight)
	}
	if store.saveCalls != 10 {
		t.Errorf("saves: got %d, want 10", store.saveCalls)
	}
}

func TestRunAll_FailuresAreIsolated(t *testing.T) {
	store := newFakeStore()
	store.fids = []string{"1", "2", "3", "4", "5"}
	store.failFids = map[string]bool{"2": true, "4": true}
	eng := newTestEngine(t, store, &fakeOhsome{})

	tasks, err := eng.Tasks(context.Background(), "regions", "GhsPopComparisonBuildings", "building_count")
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}

	res := eng.RunAll(context.Background(), tasks, true)
	if res.Total != 5 {
		t.Errorf("total: got %d, want 5", res.Total)
	}
	if res.Failed != 2 {
		t.Errorf("failed: got %d, want 2", res.Failed)
	}
	if store.saveCalls != 3 {
		t.Errorf("saves: got %d, want 3 (failing regions must not block the rest)", store.saveCalls)
	}
}
