package session

import "sync"

// Subscription is one listener's ordered view of a session's events.
// Publishing only appends to an unbounded queue, so a slow or absent reader
// never blocks the turn; a pump goroutine feeds the queue into Events().
type Subscription struct {
	id      uint64
	session *Session

	mu       sync.Mutex
	queue    []Event
	finished bool

	signal chan struct{}
	out    chan Event
	done   chan struct{}
	once   sync.Once
}

func newSubscription(id uint64, s *Session) *Subscription {
	sub := &Subscription{
		id:      id,
		session: s,
		signal:  make(chan struct{}, 1),
		out:     make(chan Event),
		done:    make(chan struct{}),
	}
	go sub.pump()
	return sub
}

// Events is closed after the terminal event has been delivered, or on Detach.
func (s *Subscription) Events() <-chan Event {
	return s.out
}

// Detach stops delivery to this listener. The turn keeps running.
func (s *Subscription) Detach() {
	s.once.Do(func() {
		close(s.done)
		if s.session != nil {
			s.session.removeSubscription(s.id)
		}
	})
}

func (s *Subscription) push(ev Event) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, ev)
	if ev.Terminal() {
		s.finished = true
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Subscription) notify() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	defer func() {
		if s.session != nil {
			s.session.removeSubscription(s.id)
		}
		close(s.out)
	}()
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			finished := s.finished
			s.mu.Unlock()
			if finished {
				return
			}
			select {
			case <-s.signal:
				continue
			case <-s.done:
				return
			}
		}
		ev := s.queue[0]
		s.queue[0] = Event{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- ev:
		case <-s.done:
			return
		}
	}
}
