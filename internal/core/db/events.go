package db

import "go.uber.org/zap"

// ------------------------------
// Event System
// ------------------------------
//
// The DB emits typed events after a daily record (normal or degraded) has been
// committed. Register listeners to react to these writes.
//
// Example usage:
//
//	db.RegisterEventListener(db.OnDailySavedEvent, func(event db.Event) error {
//	    ev := event.(db.DailySavedEvent)
//	    logger.Info("stored bullet", zap.String("date", ev.Record.Date))
//	    return nil
//	})
//
// Event is the common interface for all database events.
type Event interface {
	Kind() EventKind
}

// EventKind represents all the kinds of events that can be emitted by the DB.
type EventKind int

const (
	// OnDailySavedEvent is emitted when a daily record and its joins are committed.
	OnDailySavedEvent EventKind = iota
	// OnDegradedSavedEvent is emitted when a degraded record is stored.
	OnDegradedSavedEvent
)

func (k EventKind) String() string {
	switch k {
	case OnDailySavedEvent:
		return "daily_saved"
	case OnDegradedSavedEvent:
		return "degraded_saved"
	default:
		return "unknown"
	}
}

// DailySavedEvent is emitted after SaveDaily commits.
type DailySavedEvent struct {
	Record  DailyRecord
	Authors []string
	Links   []string
}

func (e DailySavedEvent) Kind() EventKind { return OnDailySavedEvent }

// DegradedSavedEvent is emitted after SaveDegraded commits.
type DegradedSavedEvent struct {
	Record DailyRecord
}

func (e DegradedSavedEvent) Kind() EventKind { return OnDegradedSavedEvent }

// EventListener is a callback that handles events of a specific kind.
type EventListener func(event Event) error

// RegisterEventListener adds a listener for a specific event kind.
// Listeners are called synchronously in registration order after the DB operation succeeds.
func (db *DB) RegisterEventListener(eventKind EventKind, listener EventListener) {
	if db.eventListeners == nil {
		db.eventListeners = make(map[EventKind][]EventListener)
	}
	db.eventListeners[eventKind] = append(db.eventListeners[eventKind], listener)
}

// emit dispatches an event to all registered listeners for that event kind.
func (db *DB) emit(event Event) {
	for _, listener := range db.eventListeners[event.Kind()] {
		if err := listener(event); err != nil {
			db.logger.Warn("event listener failed",
				zap.Stringer("event", event.Kind()),
				zap.Error(err),
			)
		}
	}
}
