package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDisplayDomain(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain https", input: "https://example.com/path?q=1", expected: "example.com"},
		{name: "strips www", input: "https://www.example.com", expected: "example.com"},
		{name: "keeps subdomain", input: "http://docs.example.com:8080/x", expected: "docs.example.com"},
		{name: "lowercases host", input: "https://GitHub.com/a", expected: "github.com"},
		{name: "only first www removed", input: "https://www.www.example.com", expected: "www.example.com"},
		{name: "not a url", input: "not a url", expected: "not a url"},
		{name: "missing scheme", input: "example.com/path", expected: "example.com/path"},
		{name: "broken escape", input: "https://%zz", expected: "https://%zz"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DisplayDomain(tt.input))
		})
	}
}

func TestValidateNew(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		url     string
		wantErr bool
	}{
		{name: "both set", title: "Go", url: "https://go.dev"},
		{name: "empty title", title: "", url: "https://go.dev", wantErr: true},
		{name: "empty url", title: "Go", url: "", wantErr: true},
		{name: "blank title", title: "   ", url: "https://go.dev", wantErr: true},
		{name: "url not validated", title: "x", url: "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNew(tt.title, tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrEmptyField)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFormatAdded(t *testing.T) {
	ts := time.Date(2026, time.October, 16, 14, 7, 0, 0, time.UTC)
	assert.Equal(t, "Oct 16, 2026, 02:07 PM", FormatAdded(ts, time.UTC))

	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skip("tzdata not available")
	}
	assert.Equal(t, "Oct 16, 2026, 04:07 PM", FormatAdded(ts, paris))
}

func TestNewerThan(t *testing.T) {
	t0 := time.Unix(100, 0)
	older := Bookmark{ID: "a", CreatedAt: t0}
	newer := Bookmark{ID: "b", CreatedAt: t0.Add(time.Second)}

	assert.True(t, NewerThan(newer, older))
	assert.False(t, NewerThan(older, newer))

	tieLow := Bookmark{ID: "1", CreatedAt: t0}
	tieHigh := Bookmark{ID: "2", CreatedAt: t0}
	assert.True(t, NewerThan(tieHigh, tieLow))
}

func TestStoreError(t *testing.T) {
	base := errors.New("connection refused")
	err := NewStoreError("list", base)

	assert.True(t, IsStoreError(err))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "store list failed: connection refused", err.Error())

	wrapped := fmt.Errorf("handler: %w", err)
	assert.True(t, IsStoreError(wrapped))

	// Re-wrapping with the same op keeps the original error.
	assert.Same(t, err, NewStoreError("list", err))
	assert.Nil(t, NewStoreError("list", nil))
}

func TestEventOwner(t *testing.T) {
	b := Bookmark{ID: "1", Owner: "u1"}
	events := []Event{Inserted{Bookmark: b}, Updated{Bookmark: b}, Deleted{Owner: "u1", ID: "1"}}
	want := []EventType{EventInsert, EventUpdate, EventDelete}

	for i, ev := range events {
		assert.Equal(t, "u1", ev.OwnerID())
		assert.Equal(t, want[i], ev.Type())
	}
}
