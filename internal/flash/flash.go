// Package flash holds one-shot notices that ride along with the next reply.
package flash

import (
	"sync"

	"schedule_bot/internal/template"
)

// Queue is a FIFO of notices. The dispatcher creates one per inbound event,
// so notices never leak into a reply for another scope.
type Queue struct {
	mu       sync.Mutex
	messages []string
}

func New() *Queue {
	return &Queue{}
}

func (q *Queue) Push(message string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = append(q.messages, message)
}

// Drain returns the queued notices and clears the queue.
func (q *Queue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.messages
	q.messages = nil
	return out
}

// DrainAndPrepend drains the queue and returns msgs followed by the drained
// notices as text messages.
func (q *Queue) DrainAndPrepend(msgs ...template.Message) []template.Message {
	flashes := q.Drain()
	out := make([]template.Message, 0, len(msgs)+len(flashes))
	out = append(out, msgs...)
	for _, f := range flashes {
		out = append(out, template.Text{Text: f})
	}
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}
