package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quizforge/internal/quiz"
)

// ErrQueueFull is returned by Submit when the job queue has no room.
var ErrQueueFull = errors.New("job queue is full")

// ErrWorkerStopped is returned by Submit after Stop.
var ErrWorkerStopped = errors.New("worker is stopped")

// JobResult is the terminal outcome of one job.
type JobResult struct {
	Quiz *quiz.Quiz
	Err  error
}

// Job is one queued quiz production request. Result delivers exactly one
// JobResult and is then closed.
type Job struct {
	ID     string
	Spec   JobSpec
	Result chan JobResult
}

// Worker drains the job queue with a single goroutine, so jobs run strictly
// in submission order and never concurrently. A running job is not
// interrupted by Stop; the worker finishes it first.
type Worker struct {
	pipe *Pipeline
	jobs chan *Job
	log  *zap.Logger

	mu      sync.Mutex
	stopped bool
	done    chan struct{}
}

// NewWorker creates a Worker with the given queue capacity.
func NewWorker(pipe *Pipeline, queueSize int, log *zap.Logger) *Worker {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Worker{
		pipe: pipe,
		jobs: make(chan *Job, queueSize),
		log:  log,
		done: make(chan struct{}),
	}
}

// Start launches the worker loop. ctx cancellation fails all remaining
// queued jobs; the in-flight job sees the cancellation through its own
// provider calls.
func (w *Worker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Submit enqueues a job and returns it immediately. Read Job.Result for
// the outcome.
func (w *Worker) Submit(spec JobSpec) (*Job, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil, ErrWorkerStopped
	}

	job := &Job{
		ID:     uuid.NewString(),
		Spec:   spec,
		Result: make(chan JobResult, 1),
	}
	select {
	case w.jobs <- job:
		w.log.Info("job queued", zap.String("job_id", job.ID))
		return job, nil
	default:
		return nil, ErrQueueFull
	}
}

// Stop refuses new submissions, lets the current job finish, fails the
// rest of the queue, and waits for the loop to exit.
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.stopped = true
	close(w.jobs)
	w.mu.Unlock()
	<-w.done
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	for job := range w.jobs {
		if err := ctx.Err(); err != nil {
			job.Result <- JobResult{Err: err}
			close(job.Result)
			continue
		}

		w.log.Info("job started", zap.String("job_id", job.ID))
		q, err := w.pipe.Generate(ctx, job.Spec)
		if err != nil {
			w.log.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
		} else {
			w.log.Info("job finished",
				zap.String("job_id", job.ID),
				zap.Int("questions", len(q.Questions)))
		}
		job.Result <- JobResult{Quiz: q, Err: err}
		close(job.Result)
	}
}
