package admin

import (
	"errors"
	"fmt"
)

type State int

const (
	Idle State = iota
	Creating
	Editing
	Submitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Creating:
		return "creating"
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var ErrTransition = errors.New("invalid form transition")

// Form is the editor state of one admin page. Requests rebuild it from the
// URL, so every value is a plain copy.
type Form struct {
	State  State
	Origin State // Creating or Editing while Submitting
	ID     string
	Notice string
}

func (f Form) transition(from []State, to State) (Form, error) {
	for _, s := range from {
		if f.State == s {
			f.State = to
			return f, nil
		}
	}
	return f, fmt.Errorf("%w: %s -> %s", ErrTransition, f.State, to)
}

// Open starts a blank create form.
func (f Form) Open() (Form, error) {
	next, err := f.transition([]State{Idle}, Creating)
	next.ID, next.Notice = "", ""
	return next, err
}

// Edit opens the form pre-filled with row id.
func (f Form) Edit(id string) (Form, error) {
	if id == "" {
		return f, fmt.Errorf("%w: edit needs an id", ErrTransition)
	}
	next, err := f.transition([]State{Idle}, Editing)
	if err == nil {
		next.ID, next.Notice = id, ""
	}
	return next, err
}

func (f Form) Submit() (Form, error) {
	origin := f.State
	next, err := f.transition([]State{Creating, Editing}, Submitting)
	if err == nil {
		next.Origin = origin
	}
	return next, err
}

// Succeed closes the form; the caller redirects so the list is fetched again.
func (f Form) Succeed() (Form, error) {
	next, err := f.transition([]State{Submitting}, Idle)
	if err == nil {
		next = Form{}
	}
	return next, err
}

// Fail returns to the originating mode with the entered values kept by the caller.
func (f Form) Fail(notice string) (Form, error) {
	next, err := f.transition([]State{Submitting}, f.Origin)
	if err == nil {
		next.Origin = Idle
		next.Notice = notice
	}
	return next, err
}

func (f Form) IsOpen() bool {
	return f.State == Creating || f.State == Editing
}
