package recompute

import "sync"

// subscriber queues events for one consumer. Consecutive progress events of
// the same generation collapse into the latest one, so a slow consumer sees
// fewer progress updates but every terminal event.
type subscriber struct {
	mu      sync.Mutex
	pending []Event
	notify  chan struct{}
	out     chan Event
	done    chan struct{}
	once    sync.Once
}

func newSubscriber(buffer int) *subscriber {
	s := &subscriber{
		notify: make(chan struct{}, 1),
		out:    make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	go s.pump()
	return s
}

func (s *subscriber) push(ev Event) {
	s.mu.Lock()
	n := len(s.pending)
	if ev.Kind == EventProgress && n > 0 {
		last := s.pending[n-1]
		if last.Kind == EventProgress && last.Generation == ev.Generation {
			s.pending[n-1] = ev
			s.mu.Unlock()
			s.wake()
			return
		}
	}
	s.pending = append(s.pending, ev)
	s.mu.Unlock()
	s.wake()
}

// dropBefore discards every queued event of generations older than gen,
// terminal ones included.
func (s *subscriber) dropBefore(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.pending[:0]
	for _, ev := range s.pending {
		if ev.Generation < gen {
			continue
		}
		kept = append(kept, ev)
	}
	s.pending = kept
}

func (s *subscriber) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.done) })
}

func (s *subscriber) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.mu.Unlock()
			select {
			case <-s.notify:
				continue
			case <-s.done:
				return
			}
		}
		ev := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		select {
		case s.out <- ev:
		case <-s.done:
			return
		}
	}
}
