package services

import (
	"fmt"
	"log"
	"sync"

	"tour-marketplace-api/models"

	"github.com/google/uuid"
)

// SubmissionEvent is the change payload handlers react to. Before is
// nil for creation events. Handlers must diff Before/After rather than
// re-reading store state: delivery is at-least-once and may be out of
// order relative to rapid successive writes.
type SubmissionEvent struct {
	EventID string
	ActorID int
	Before  *models.PublishingSubmission
	After   models.PublishingSubmission
}

// FeedbackEvent fires when a reviewer adds a feedback item under a
// submission.
type FeedbackEvent struct {
	EventID  string
	ActorID  int
	Feedback models.ReviewFeedback
}

// Dispatcher delivers change events to registered handlers on their own
// goroutines. A handler error triggers bounded redelivery, so handlers
// carry their own idempotency guards; handlers that want no retry
// (illegal transitions, no-op redeliveries) return nil.
type Dispatcher struct {
	mu                 sync.RWMutex
	submissionHandlers []func(SubmissionEvent) error
	feedbackHandlers   []func(FeedbackEvent) error

	maxAttempts int
	wg          sync.WaitGroup
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{maxAttempts: 3}
}

func (d *Dispatcher) OnSubmissionChange(fn func(SubmissionEvent) error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.submissionHandlers = append(d.submissionHandlers, fn)
}

func (d *Dispatcher) OnFeedbackCreated(fn func(FeedbackEvent) error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.feedbackHandlers = append(d.feedbackHandlers, fn)
}

func (d *Dispatcher) DispatchSubmissionChange(ev SubmissionEvent) {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}

	d.mu.RLock()
	handlers := make([]func(SubmissionEvent) error, len(d.submissionHandlers))
	copy(handlers, d.submissionHandlers)
	d.mu.RUnlock()

	for _, fn := range handlers {
		fn := fn
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.deliver(ev.EventID, func() error { return fn(ev) })
		}()
	}
}

func (d *Dispatcher) DispatchFeedbackCreated(ev FeedbackEvent) {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}

	d.mu.RLock()
	handlers := make([]func(FeedbackEvent) error, len(d.feedbackHandlers))
	copy(handlers, d.feedbackHandlers)
	d.mu.RUnlock()

	for _, fn := range handlers {
		fn := fn
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.deliver(ev.EventID, func() error { return fn(ev) })
		}()
	}
}

func (d *Dispatcher) deliver(eventID string, fn func() error) {
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		err := d.invoke(fn)
		if err == nil {
			return
		}
		log.Printf("event %s handler attempt %d/%d failed: %v", eventID, attempt, d.maxAttempts, err)
	}
	log.Printf("event %s dropped after %d attempts", eventID, d.maxAttempts)
}

func (d *Dispatcher) invoke(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &handlerPanic{value: r}
		}
	}()
	return fn()
}

type handlerPanic struct {
	value interface{}
}

func (p *handlerPanic) Error() string {
	return fmt.Sprintf("handler panic: %v", p.value)
}

// Wait blocks until all in-flight deliveries finish. Used by tests and
// graceful shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
