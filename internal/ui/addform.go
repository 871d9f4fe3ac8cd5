package ui

import (
	"context"
	"errors"
	"sync"

	"github.com/MrSnakeDoc/smartmarks/internal/domain"
	"github.com/MrSnakeDoc/smartmarks/internal/logger"
)

// FormState is the AddForm lifecycle: Idle -> Submitting -> Idle.
type FormState int

const (
	Idle FormState = iota
	Submitting
)

func (s FormState) String() string {
	if s == Submitting {
		return "submitting"
	}
	return "idle"
}

// ErrSubmitting is returned when a submit arrives while another is in flight.
var ErrSubmitting = errors.New("a submission is already in progress")

// AddForm holds the title/url inputs of one user and submits them.
type AddForm struct {
	owner string
	store Inserter
	alert Alerter
	log   logger.Logger

	mu    sync.Mutex
	title string
	url   string
	state FormState
}

func NewAddForm(owner string, store Inserter, alert Alerter, log logger.Logger) *AddForm {
	return &AddForm{owner: owner, store: store, alert: alert, log: log}
}

func (f *AddForm) SetTitle(v string) { f.mu.Lock(); f.title = v; f.mu.Unlock() }
func (f *AddForm) SetURL(v string)   { f.mu.Lock(); f.url = v; f.mu.Unlock() }

// Values returns the current title and url inputs.
func (f *AddForm) Values() (title, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.title, f.url
}

func (f *AddForm) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// ButtonLabel is the submit button text for the current state.
func (f *AddForm) ButtonLabel() string {
	if f.State() == Submitting {
		return "Adding..."
	}
	return "+ Add Bookmark"
}

// Submit inserts the current inputs.
//
//   - while a submission is in flight: ErrSubmitting, nothing else happens
//   - empty title or url: domain.ErrEmptyField, no store call, no alert
//   - success: both inputs are cleared
//   - failure: the inputs are kept and the user is alerted
func (f *AddForm) Submit(ctx context.Context) error {
	f.mu.Lock()
	return f.submitLocked(ctx)
}

// SubmitValues sets both inputs and submits them in one step, unless a
// submission is already in flight, in which case the inputs are left alone.
func (f *AddForm) SubmitValues(ctx context.Context, title, url string) error {
	f.mu.Lock()
	if f.state == Submitting {
		f.mu.Unlock()
		return ErrSubmitting
	}
	f.title, f.url = title, url
	return f.submitLocked(ctx)
}

// submitLocked is entered with mu held and releases it.
func (f *AddForm) submitLocked(ctx context.Context) error {
	if f.state == Submitting {
		f.mu.Unlock()
		return ErrSubmitting
	}
	title, url := f.title, f.url
	if err := domain.ValidateNew(title, url); err != nil {
		f.mu.Unlock()
		return err
	}
	f.state = Submitting
	f.mu.Unlock()

	_, err := f.store.Insert(ctx, f.owner, title, url)

	f.mu.Lock()
	f.state = Idle
	if err == nil {
		f.title, f.url = "", ""
	}
	f.mu.Unlock()

	if err != nil {
		f.log.Error("failed to add bookmark", logger.String("owner", f.owner), logger.Error(err))
		f.alert.Alert(ctx, MsgAddFailed)
		return err
	}
	return nil
}
