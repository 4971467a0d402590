package services

import "context"

// EventKind names a state change.
type EventKind string

const (
	EventInitialized     EventKind = "initialized"
	EventEntryAdded      EventKind = "entry_added"
	EventEntryUpdated    EventKind = "entry_updated"
	EventEntriesLoaded   EventKind = "entries_loaded"
	EventEntriesMigrated EventKind = "entries_migrated"
	EventTemplateAdded   EventKind = "template_added"
	EventSettingsChanged EventKind = "settings_changed"
)

// Event is delivered to subscribers after the change is persisted. ID is the
// entry or template id where one applies.
type Event struct {
	Kind EventKind
	ID   string
}

const subscriberBuffer = 16

// Subscribe returns a channel of state changes that closes when ctx is done.
// A subscriber that falls more than subscriberBuffer events behind loses the
// newest ones.
func (s *diaryService) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subMu.Lock()
		delete(s.subs, id)
		close(ch)
		s.subMu.Unlock()
	}()

	return ch
}

func (s *diaryService) publish(ctx context.Context, ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.log.Warn(ctx, "subscriber is not keeping up, event dropped", "subscriber", id, "kind", ev.Kind)
		}
	}
}
