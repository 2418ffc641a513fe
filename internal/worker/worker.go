// Package worker runs the background pool that drains the job queue.
package worker

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/carelog/internal/queue"
)

// HandlerFunc processes one dequeued job.
type HandlerFunc func(ctx context.Context, job queue.Job) error

// StartWorkers runs workerCount goroutines that dequeue and handle jobs
// until ctx is cancelled. It blocks until every worker has stopped, so
// callers normally run it in its own goroutine.
func StartWorkers(ctx context.Context, q queue.Queue, handler HandlerFunc, workerCount int) error {
	log.Printf("StartWorkers: starting %d workers", workerCount)

	var wg sync.WaitGroup
	for i := 1; i <= workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			run(ctx, q, handler, id)
		}(i)
	}
	wg.Wait()

	log.Printf("StartWorkers: all workers stopped")
	return nil
}

// run dequeues jobs until the context ends. A failing job is logged and
// dropped; the next dequeue proceeds so one bad payload cannot wedge the
// pool.
func run(ctx context.Context, q queue.Queue, handler HandlerFunc, id int) {
	for {
		job, err := q.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Printf("run: worker %d stopping", id)
				return
			}
			log.Printf("run: worker %d dequeue error: %v", id, err)
			continue
		}

		log.Printf("run: worker %d handling %s job", id, job.Type)
		if err := handler(ctx, job); err != nil {
			log.Printf("run: worker %d job %s failed: %v", id, job.Type, err)
		}
	}
}
