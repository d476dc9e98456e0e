package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"statement-importer/internal/importer"
	"statement-importer/internal/quotes"
	"statement-importer/pkg/errors"
)

type fakeJob struct {
	mu      sync.Mutex
	calls   int
	err     error
	block   chan struct{}
	started chan struct{}
	panics  string
}

func (f *fakeJob) Run(ctx context.Context, status importer.StatusFunc, progress quotes.ProgressFunc) (*importer.UpdateResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if f.panics != "" {
		panic(f.panics)
	}
	if f.err != nil {
		status(importer.StepDownload, importer.StatusError, f.err)
		return nil, f.err
	}
	return &importer.UpdateResult{Symbols: []string{"EDO0134"}, Quotes: &quotes.Result{Emitted: 3}}, nil
}

func TestRegister_InvalidSpec(t *testing.T) {
	s := New(context.Background(), &fakeJob{}, 0)
	if err := s.Register("every tuesday"); !errors.HasCode(err, errors.CodeInvalidConfig) {
		t.Errorf("expected invalid config error, got %v", err)
	}
}

func TestRegister_Next(t *testing.T) {
	s := New(context.Background(), &fakeJob{}, 0)
	if !s.Next().IsZero() {
		t.Error("expected no next run before registering")
	}
	if err := s.Register("0 18 * * 1-5"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	s.Start()
	defer s.Stop()

	if next := s.Next(); next.IsZero() || next.Hour() != 18 {
		t.Errorf("Next() = %v", next)
	}
}

func TestRunNow_RecordsOutcome(t *testing.T) {
	job := &fakeJob{}
	s := New(context.Background(), job, time.Minute)

	s.RunNow()
	last := s.LastRun()
	if last == nil || last.Err != nil || last.Result.Quotes.Emitted != 3 {
		t.Fatalf("unexpected record %+v", last)
	}

	job.err = fmt.Errorf("download failed")
	s.RunNow()
	if last := s.LastRun(); last.Err == nil || last.Result != nil {
		t.Errorf("failure must be recorded, got %+v", last)
	}
	if s.Runs() != 2 {
		t.Errorf("Runs() = %d", s.Runs())
	}
}

func TestRunNow_SkipsOverlappingRuns(t *testing.T) {
	job := &fakeJob{block: make(chan struct{}), started: make(chan struct{}, 1)}
	s := New(context.Background(), job, 0)

	done := make(chan struct{})
	go func() {
		s.RunNow()
		close(done)
	}()
	<-job.started

	s.RunNow()
	close(job.block)
	<-done

	if job.calls != 1 || s.Runs() != 1 {
		t.Errorf("expected one run, got %d calls and %d runs", job.calls, s.Runs())
	}
}

func TestRunNow_RecoversFromPanic(t *testing.T) {
	job := &fakeJob{panics: "nil map"}
	s := New(context.Background(), job, 0)

	s.RunNow()
	last := s.LastRun()
	if last == nil || !errors.HasCode(last.Err, errors.CodeUnexpectedError) {
		t.Fatalf("panic must be recorded as an internal error, got %+v", last)
	}
	if last.Finished.IsZero() {
		t.Error("finish time must be set")
	}

	job.panics = ""
	s.RunNow()
	if job.calls != 2 || s.Runs() != 2 {
		t.Errorf("a panicking run must not block the next one, got %d calls and %d runs", job.calls, s.Runs())
	}
	if last := s.LastRun(); last.Err != nil || last.Result == nil {
		t.Errorf("second run must succeed, got %+v", last)
	}
}
