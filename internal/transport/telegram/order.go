package telegram

import (
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sequencer runs jobs of one key in submission order on a single worker
// goroutine, while different keys run concurrently. A worker exits once its
// queue is empty.
type sequencer struct {
	mu     sync.Mutex
	queues map[string][]func()
	wg     sync.WaitGroup
}

func newSequencer() *sequencer {
	return &sequencer{queues: make(map[string][]func())}
}

func (s *sequencer) submit(key string, job func()) {
	s.mu.Lock()
	q, running := s.queues[key]
	s.queues[key] = append(q, job)
	s.mu.Unlock()
	if running {
		return
	}
	s.wg.Add(1)
	go s.work(key)
}

func (s *sequencer) work(key string) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		q := s.queues[key]
		if len(q) == 0 {
			delete(s.queues, key)
			s.mu.Unlock()
			return
		}
		job := q[0]
		s.queues[key] = q[1:]
		s.mu.Unlock()
		job()
	}
}

// wait blocks until every submitted job has run.
func (s *sequencer) wait() {
	s.wg.Wait()
}

// chatKey orders updates per chat, which covers every scope of the chat.
func chatKey(update tgbotapi.Update) string {
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		return strconv.FormatInt(update.Message.Chat.ID, 10)
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil:
		return strconv.FormatInt(update.CallbackQuery.Message.Chat.ID, 10)
	}
	return ""
}
