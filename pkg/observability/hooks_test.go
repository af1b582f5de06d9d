package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnStageStart(ctx, "loading")
	p.OnStageComplete(ctx, "loading", time.Second, nil)
	p.OnRunComplete(ctx, 9, 1, time.Second, nil)

	c := NoopComposerHooks{}
	c.OnFallback(ctx, errors.New("model unavailable"))

	g := NoopGovernorHooks{}
	g.OnDenied(ctx, "user-1", "monthly limit reached")
	g.OnReserved(ctx, "user-1")
	g.OnRollback(ctx, "user-1")
}

type recordingPipelineHooks struct {
	NoopPipelineHooks
	stages []string
}

func (r *recordingPipelineHooks) OnStageStart(_ context.Context, stage string) {
	r.stages = append(r.stages, stage)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Composer().(NoopComposerHooks); !ok {
		t.Error("Composer() should return NoopComposerHooks by default")
	}
	if _, ok := Governor().(NoopGovernorHooks); !ok {
		t.Error("Governor() should return NoopGovernorHooks by default")
	}

	rec := &recordingPipelineHooks{}
	SetPipelineHooks(rec)
	Pipeline().OnStageStart(context.Background(), "rendering")
	if len(rec.stages) != 1 || rec.stages[0] != "rendering" {
		t.Errorf("expected recorded stage [rendering], got %v", rec.stages)
	}

	// Nil registration keeps the previous hooks.
	SetPipelineHooks(nil)
	if Pipeline() != rec {
		t.Error("SetPipelineHooks(nil) should keep the registered hooks")
	}
}
