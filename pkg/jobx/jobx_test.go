package jobx_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/pagelift/pkg/errx"
	"github.com/Abraxas-365/pagelift/pkg/jobx"
	"github.com/Abraxas-365/pagelift/pkg/kernel"
)

// memQueue is an in-memory jobx.Queue
type memQueue struct {
	mu      sync.Mutex
	jobs    map[string]*jobx.JobInfo
	ready   []string
	retried []string
	nextID  int
}

func newMemQueue() *memQueue {
	return &memQueue{jobs: map[string]*jobx.JobInfo{}}
}

func (q *memQueue) Enqueue(_ context.Context, job jobx.Job) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	id := string(rune('a' + q.nextID - 1))
	q.jobs[id] = &jobx.JobInfo{
		ID: id, Type: job.Type, Queue: job.Queue, Payload: job.Payload,
		Status: jobx.JobStatusPending, MaxRetries: job.MaxRetries,
	}
	q.ready = append(q.ready, id)
	return id, nil
}

func (q *memQueue) EnqueueDelayed(ctx context.Context, job jobx.Job, _ time.Duration) (string, error) {
	return q.Enqueue(ctx, job)
}

func (q *memQueue) GetJob(_ context.Context, id string) (*jobx.JobInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	info, ok := q.jobs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *info
	return &cp, nil
}

func (q *memQueue) Dequeue(_ context.Context, _ []string, _ time.Duration) (*jobx.JobInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ready) == 0 {
		return nil, nil
	}
	id := q.ready[0]
	q.ready = q.ready[1:]
	info := q.jobs[id]
	info.Status = jobx.JobStatusActive
	info.Attempts++
	cp := *info
	return &cp, nil
}

func (q *memQueue) Complete(_ context.Context, id string, result []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs[id].Status = jobx.JobStatusCompleted
	q.jobs[id].Result = result
	return nil
}

func (q *memQueue) Fail(_ context.Context, id string, msg string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	info := q.jobs[id]
	info.Error = msg
	retry := info.Attempts < info.MaxRetries
	if retry {
		info.Status = jobx.JobStatusRetrying
	} else {
		info.Status = jobx.JobStatusFailed
	}
	return retry, nil
}

func (q *memQueue) Retry(_ context.Context, id string, _ time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.retried = append(q.retried, id)
	q.ready = append(q.ready, id)
	return nil
}

func (q *memQueue) PromoteScheduled(context.Context, []string) error { return nil }

type extractPayload struct {
	DocumentID string `json:"document_id"`
}

func TestCompleteStoresHandlerResult(t *testing.T) {
	ctx := context.Background()
	q := newMemQueue()
	client := jobx.NewClient(q)

	var seenJobID kernel.JobID
	client.Register("document.extract", func(ctx context.Context, job *jobx.JobInfo) (json.RawMessage, error) {
		var p extractPayload
		if err := job.Decode(&p); err != nil {
			return nil, err
		}
		seenJobID, _ = kernel.JobIDFrom(ctx)
		return json.Marshal(map[string]string{"document": p.DocumentID})
	})

	job, err := jobx.NewJob("document.extract", extractPayload{DocumentID: "doc-1"})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	id, err := client.Enqueue(ctx, job)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if ok, err := client.RunOnce(ctx); !ok || err != nil {
		t.Fatalf("expected a processed job, got %v %v", ok, err)
	}

	info, _ := client.GetJob(ctx, id)
	if info.Status != jobx.JobStatusCompleted {
		t.Fatalf("expected completed, got %s", info.Status)
	}
	if string(info.Result) != `{"document":"doc-1"}` {
		t.Fatalf("unexpected result %s", info.Result)
	}
	if info.Queue != jobx.DefaultQueue || info.MaxRetries != jobx.DefaultMaxRetries {
		t.Fatalf("defaults not applied: %+v", info)
	}
	if seenJobID.String() != id {
		t.Fatalf("handler context should carry the job id, got %q", seenJobID)
	}
}

func TestFailedJobsRetryUntilExhausted(t *testing.T) {
	ctx := context.Background()
	q := newMemQueue()
	client := jobx.NewClient(q)

	calls := 0
	client.Register("flaky", func(context.Context, *jobx.JobInfo) (json.RawMessage, error) {
		calls++
		return nil, errors.New("renderer crashed")
	})

	id, _ := client.Enqueue(ctx, jobx.Job{Type: "flaky", MaxRetries: 2})
	for i := 0; i < 5; i++ {
		if _, err := client.RunOnce(ctx); err != nil {
			t.Fatalf("run: %v", err)
		}
	}

	info, _ := client.GetJob(ctx, id)
	if calls != 2 || info.Status != jobx.JobStatusFailed || info.Error != "renderer crashed" {
		t.Fatalf("unexpected state after retries: calls=%d %+v", calls, info)
	}
	if len(q.retried) != 1 {
		t.Fatalf("expected one retry, got %d", len(q.retried))
	}
}

func TestHandlerPanicFailsJob(t *testing.T) {
	ctx := context.Background()
	q := newMemQueue()
	client := jobx.NewClient(q)
	client.Register("boom", func(context.Context, *jobx.JobInfo) (json.RawMessage, error) {
		panic("nil raster")
	})

	id, _ := client.Enqueue(ctx, jobx.Job{Type: "boom", MaxRetries: 1})
	if _, err := client.RunOnce(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if info, _ := client.GetJob(ctx, id); info.Status != jobx.JobStatusFailed {
		t.Fatalf("panicking handler should fail the job, got %s", info.Status)
	}
}

func TestUnknownTypeAndInvalidJobs(t *testing.T) {
	ctx := context.Background()
	q := newMemQueue()
	client := jobx.NewClient(q)

	if _, err := client.Enqueue(ctx, jobx.Job{}); !errx.HasCode(err, jobx.ErrInvalidJob) {
		t.Fatalf("expected INVALID_JOB, got %v", err)
	}

	id, _ := client.Enqueue(ctx, jobx.Job{Type: "unknown", MaxRetries: 1})
	if _, err := client.RunOnce(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	info, _ := client.GetJob(ctx, id)
	if info.Status != jobx.JobStatusFailed || info.Error == "" {
		t.Fatalf("unknown job types should fail, got %+v", info)
	}

	if ok, err := client.RunOnce(ctx); ok || err != nil {
		t.Fatalf("empty queue should report no job, got %v %v", ok, err)
	}
}

func TestStartStopsWithContext(t *testing.T) {
	q := newMemQueue()
	client := jobx.NewClient(q, jobx.WithConcurrency(1), jobx.WithPollInterval(10*time.Millisecond))

	done := make(chan struct{})
	client.Register("noop", func(context.Context, *jobx.JobInfo) (json.RawMessage, error) {
		close(done)
		return nil, nil
	})
	_, _ = client.Enqueue(context.Background(), jobx.Job{Type: "noop"})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- client.Start(ctx) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("job was not processed")
	}
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Start did not return after cancel")
	}
}
