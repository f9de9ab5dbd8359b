package session

// Event represents a session lifecycle event.
// Minimal and stable: name, the phase after the operation, the cycle id
// and optional fields.
type Event struct {
	Name   string
	Phase  Phase
	Cycle  uint64
	Fields map[string]any
}

// EventPublisher receives events from the session. Publish is called with
// the session lock held: implementations must be non-blocking, must not
// call back into the session, and must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// multiPublisher fans an event out to several publishers in order.
type multiPublisher []EventPublisher

func (m multiPublisher) Publish(e Event) {
	for _, p := range m {
		p.Publish(e)
	}
}

// Publishers combines publishers into one. Nil entries are skipped.
func Publishers(ps ...EventPublisher) EventPublisher {
	out := make(multiPublisher, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Subscribe registers an observer that receives a Snapshot after every
// operation. Delivery never blocks the session: when the channel buffer is
// full the oldest queued snapshot is dropped, so the latest state is
// always delivered.
// The returned func unsubscribes and closes the channel.
func (s *Session) Subscribe(buf int) (<-chan Snapshot, func()) {
	if buf < 1 {
		buf = 1
	}
	ch := make(chan Snapshot, buf)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	// Seed with the current state so observers never start blank.
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	var done bool
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if done {
			return
		}
		done = true
		delete(s.subs, id)
		close(ch)
	}
}

// notifyLocked publishes e and pushes the current snapshot to subscribers.
// Caller must hold s.mu for writing.
func (s *Session) notifyLocked(name string, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	s.pub.Publish(Event{Name: name, Phase: s.phase, Cycle: s.cycle, Fields: fields})
	if len(s.subs) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
