package domain

// EventType is the wire tag of a change event.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Event is a row-level change on one owner's bookmarks.
//
// The set of implementations is closed: Inserted, Updated and Deleted.
// Consumers switch on the concrete type.
type Event interface {
	Type() EventType
	OwnerID() string
	isEvent()
}

// Inserted carries the new row.
type Inserted struct {
	Bookmark Bookmark
}

// Updated carries the replacement row. No code path emits it today;
// consumers still handle it.
type Updated struct {
	Bookmark Bookmark
}

// Deleted carries the owner and the removed row's ID.
type Deleted struct {
	Owner string
	ID    string
}

func (Inserted) Type() EventType { return EventInsert }
func (Updated) Type() EventType  { return EventUpdate }
func (Deleted) Type() EventType  { return EventDelete }

func (e Inserted) OwnerID() string { return e.Bookmark.Owner }
func (e Updated) OwnerID() string  { return e.Bookmark.Owner }
func (e Deleted) OwnerID() string  { return e.Owner }

func (Inserted) isEvent() {}
func (Updated) isEvent()  {}
func (Deleted) isEvent()  {}
