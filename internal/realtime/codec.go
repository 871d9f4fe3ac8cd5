package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/MrSnakeDoc/smartmarks/internal/domain"
)

// message is the JSON payload published on a change channel.
//
//	{"type":"INSERT","owner":"…","new":{…}}
//	{"type":"DELETE","owner":"…","old":{"id":"…"}}
type message struct {
	Type  domain.EventType `json:"type"`
	Owner string           `json:"owner"`
	New   *domain.Bookmark `json:"new,omitempty"`
	Old   *oldRow          `json:"old,omitempty"`
}

type oldRow struct {
	ID string `json:"id"`
}

// Encode serializes ev for the wire.
func Encode(ev domain.Event) ([]byte, error) {
	m := message{Type: ev.Type(), Owner: ev.OwnerID()}

	switch e := ev.(type) {
	case domain.Inserted:
		b := e.Bookmark
		m.New = &b
	case domain.Updated:
		b := e.Bookmark
		m.New = &b
	case domain.Deleted:
		m.Old = &oldRow{ID: e.ID}
	default:
		return nil, fmt.Errorf("unknown event %T", ev)
	}

	return json.Marshal(m)
}

// Decode parses a wire payload back into an event.
func Decode(data []byte) (domain.Event, error) {
	var m message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode change: %w", err)
	}

	switch m.Type {
	case domain.EventInsert, domain.EventUpdate:
		if m.New == nil {
			return nil, fmt.Errorf("%s change without new row", m.Type)
		}
		b := *m.New
		if b.Owner == "" {
			b.Owner = m.Owner
		}
		if m.Type == domain.EventInsert {
			return domain.Inserted{Bookmark: b}, nil
		}
		return domain.Updated{Bookmark: b}, nil

	case domain.EventDelete:
		if m.Old == nil || m.Old.ID == "" {
			return nil, fmt.Errorf("DELETE change without old id")
		}
		return domain.Deleted{Owner: m.Owner, ID: m.Old.ID}, nil
	}

	return nil, fmt.Errorf("unknown change type %q", m.Type)
}
