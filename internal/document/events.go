package document

import "slices"

// EventKind identifies what changed in a session.
type EventKind string

const (
	EventLoaded  EventKind = "loaded"
	EventMutated EventKind = "mutated"
	EventReset   EventKind = "reset"
	EventClosed  EventKind = "closed"
)

// Event is delivered to listeners after a snapshot is installed.
type Event struct {
	Kind EventKind
	// Label names the operation for EventMutated.
	Label    string
	Snapshot Snapshot
}

// Listener receives session events. Listeners run synchronously in the
// order events happen and must not mutate the session they observe.
type Listener func(Event)

// Subscribe registers l and returns a function that removes it.
func (s *Session) Subscribe(l Listener) (unsubscribe func()) {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

// emit delivers ev to the current listeners. The caller holds notifyMu;
// emit releases it.
func (s *Session) emit(ev Event) {
	defer s.notifyMu.Unlock()

	s.lmu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	ls := make([]Listener, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		ls = append(ls, s.listeners[id])
	}
	s.lmu.Unlock()

	for _, l := range ls {
		l(ev)
	}
}
