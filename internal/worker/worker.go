package worker

import (
	"context"
	"log"
	"sync"
)

// Task is a function that represents a background job
type Task func(ctx context.Context) error

// Pool runs tasks that must not block the request path: audit writes
// and the orphan-blob sweep.
type Pool struct {
	taskQueue chan Task
	wg        sync.WaitGroup

	// mu orders Submit's send against Shutdown's close. Submit holds
	// the read side while sending, so the queue can never be closed
	// under an in-flight send.
	mu     sync.RWMutex
	closed bool
}

func NewPool(size int) *Pool {
	p := &Pool{
		taskQueue: make(chan Task, 1000), // Buffer for 1000 pending tasks
	}

	for range size {
		p.wg.Add(1)
		go p.startWorker()
	}

	return p
}

func (p *Pool) startWorker() {
	defer p.wg.Done()
	for task := range p.taskQueue {
		if err := task(context.Background()); err != nil {
			log.Printf("Worker task failed: %v", err)
		}
	}
}

func (p *Pool) Submit(t Task) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		log.Println("Warning: task submitted during shutdown, dropping.")
		return
	}
	select {
	case p.taskQueue <- t:
	default:
		log.Println("Task queue full, dropping task!")
	}
}

// Shutdown closes the queue and waits for workers to drain it. Safe to
// call more than once.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.taskQueue)
	p.mu.Unlock()

	p.wg.Wait()
}
