package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/osmquality/osmquality/internal/registry"
)

// maxInFlight bounds concurrent precomputation tasks. Each task hits the
// ohsome API and the database, so the fan-out stays deliberately small.
const maxInFlight = 4

// Task is one unit of bulk precomputation.
type Task struct {
	Indicator string
	Layer     string
	Dataset   string
	FeatureID string
}

// RunResult summarizes a bulk run.
type RunResult struct {
	Total  int
	Failed int
}

// Tasks expands the targets into the cross product of dataset feature ids and
// valid (indicator, layer) combinations. An empty indicatorName selects every
// indicator; an empty layerName every layer valid for it.
func (e *Engine) Tasks(ctx context.Context, dataset, indicatorName, layerName string) ([]Task, error) {
	if err := e.validateDataset(dataset, ""); err != nil {
		return nil, err
	}
	var combos []registry.Combination
	for _, c := range e.reg.Combinations() {
		if indicatorName != "" && c.Indicator != indicatorName {
			continue
		}
		if layerName != "" && c.Layer != layerName {
			continue
		}
		combos = append(combos, c)
	}
	if indicatorName != "" && layerName != "" && len(combos) == 0 {
		return nil, &CombinationError{Indicator: indicatorName, Layer: layerName}
	}

	fids, err := e.store.FeatureIDs(ctx, dataset)
	if err != nil {
		return nil, err
	}
	tasks := make([]Task, 0, len(fids)*len(combos))
	for _, fid := range fids {
		for _, c := range combos {
			tasks = append(tasks, Task{
				Indicator: c.Indicator,
				Layer:     c.Layer,
				Dataset:   dataset,
				FeatureID: fid,
			})
		}
	}
	return tasks, nil
}

// RunAll executes the tasks with at most maxInFlight in flight. A failing
// task is logged and counted but never stops the others; the run returns once
// every task reached a terminal state.
func (e *Engine) RunAll(ctx context.Context, tasks []Task, force bool) RunResult {
	slog.Info("engine: bulk run starting", "tasks", len(tasks), "force", force)

	permits := make(chan struct{}, maxInFlight)
	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0

	for _, t := range tasks {
		permits <- struct{}{}
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			defer func() { <-permits }()

			_, err := e.resolveStored(ctx, IndicatorStoredRequest{
				Name:      t.Indicator,
				Layer:     t.Layer,
				Dataset:   t.Dataset,
				FeatureID: t.FeatureID,
			}, force)
			if err != nil {
				slog.Error("engine: precompute task failed",
					"indicator", t.Indicator, "layer", t.Layer,
					"dataset", t.Dataset, "fid", t.FeatureID, "error", err)
				precomputeFailures.Inc()
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(t)
	}
	wg.Wait()

	res := RunResult{Total: len(tasks), Failed: failed}
	slog.Info("engine: bulk run finished", "tasks", res.Total, "failed", res.Failed)
	return res
}
