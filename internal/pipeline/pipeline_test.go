package pipeline

import (
	"context"
	"errors"
	"testing"

	"soc-platform/internal/event"
)

type fakeStage struct {
	calls   int
	err     error
	ctxErrs []error
}

func (f *fakeStage) Enqueue(ctx context.Context, ev event.LogEvent) error    { return f.record(ctx) }
func (f *fakeStage) IndexEvent(ctx context.Context, ev event.LogEvent) error { return f.record(ctx) }
func (f *fakeStage) Evaluate(ctx context.Context, ev event.LogEvent) error   { return f.record(ctx) }

func (f *fakeStage) record(ctx context.Context) error {
	f.calls++
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return f.err
}

func TestProcess_AllStagesRun(t *testing.T) {
	q, ix, al := &fakeStage{}, &fakeStage{}, &fakeStage{}
	p := New(q, ix, al, nil, nil)

	p.Process(context.Background(), event.New("t", "h", "s", "m", event.SeverityInfo, "api", nil))

	if q.calls != 1 || ix.calls != 1 || al.calls != 1 {
		t.Fatalf("expected one call per stage, got queue=%d index=%d alerts=%d", q.calls, ix.calls, al.calls)
	}
}

func TestProcess_FailingStageDoesNotBlockOthers(t *testing.T) {
	q := &fakeStage{err: errors.New("redis down")}
	ix := &fakeStage{err: errors.New("index down")}
	al := &fakeStage{}
	p := New(q, ix, al, nil, nil)

	p.Process(context.Background(), event.New("t", "h", "s", "m", event.SeverityError, "api", nil))

	if al.calls != 1 {
		t.Fatalf("alert stage skipped after earlier failures")
	}
}

func TestProcess_SurvivesCallerCancellation(t *testing.T) {
	q, ix, al := &fakeStage{}, &fakeStage{}, &fakeStage{}
	p := New(q, ix, al, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Process(ctx, event.New("t", "h", "s", "m", event.SeverityInfo, "api", nil))

	for name, stage := range map[string]*fakeStage{"queue": q, "index": ix, "alerts": al} {
		if stage.calls != 1 {
			t.Fatalf("%s stage not reached after caller cancellation", name)
		}
		if stage.ctxErrs[0] != nil {
			t.Fatalf("%s stage saw a canceled context: %v", name, stage.ctxErrs[0])
		}
	}
}
