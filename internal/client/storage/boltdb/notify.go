package boltdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/scriba-app/scriba/internal/client/storage"
)

// eventBufferSize bounds each subscriber channel. A slow consumer loses
// events rather than stalling writers; the next event carries fresh state.
const eventBufferSize = 64

// subscriber is one registered change-feed consumer. done unblocks the
// context watcher goroutine when the subscription ends.
type subscriber struct {
	ch   chan storage.NoteEvent
	done chan struct{}
}

// Subscribe registers a change-feed subscriber. Events are delivered after
// the originating transaction commits. The returned stop function is
// idempotent; cancelling ctx also unsubscribes.
func (s *Storage) Subscribe(ctx context.Context) (<-chan storage.NoteEvent, func()) {
	id := uuid.NewString()
	sub := &subscriber{
		ch:   make(chan storage.NoteEvent, eventBufferSize),
		done: make(chan struct{}),
	}

	s.subsMu.Lock()
	s.subs[id] = sub
	s.subsMu.Unlock()

	stop := func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if cur, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(cur.ch)
			close(cur.done)
		}
	}

	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-sub.done:
		}
	}()

	return sub.ch, stop
}

// publish fans an event out to all subscribers without blocking. Sends
// happen under the read lock, so a channel is never written after stop
// removed and closed it.
func (s *Storage) publish(event storage.NoteEvent) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()

	for id, sub := range s.subs {
		select {
		case sub.ch <- event:
		default:
			if s.logger != nil {
				s.logger.Warn("note event dropped, subscriber too slow",
					"subscriber", id,
					"note_id", event.NoteID,
				)
			}
		}
	}
}

// closeSubscribers drops and closes every subscriber channel.
func (s *Storage) closeSubscribers() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for id, sub := range s.subs {
		delete(s.subs, id)
		close(sub.ch)
		close(sub.done)
	}
}
