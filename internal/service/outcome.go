// Package service contains the signup, login and profile workflows.
package service

import (
	"sync/atomic"

	"github.com/and161185/campus-onboard/internal/errs"
)

// State is a workflow position.
type State int

const (
	StateIdle State = iota
	StateRoleChosen
	StateSubmitting
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRoleChosen:
		return "role-chosen"
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of one submission. Message is what the
// user sees; Err carries the typed cause for callers and logs.
type Outcome struct {
	State   State
	Message string
	Err     error
	UserID  string // signup only; set whenever the user account was created
}

// OK reports whether the submission succeeded.
func (o Outcome) OK() bool { return o.State == StateSuccess }

// User-facing messages.
const (
	MsgSignupOK      = "Account created! Please log in."
	MsgSignupFailed  = "Signup failed. Try again."
	MsgLoginFailed   = "Login failed. Try again."
	MsgMissingToken  = "Missing authentication token."
	MsgProfileOK     = "Profile info saved successfully!"
	MsgProfileFailed = "Failed to save profile. Please try again."
	MsgBusy          = "Please wait, your request is still being processed."

	MsgSelectRole  = "Please select a role."
	MsgInvalidRole = "Invalid role selected."
	MsgUsername    = "Username must be at least 3 characters."
	MsgEmail       = "Please enter a valid email address."
	MsgSignupPass  = "Password must be at least 6 characters and include:\n- 1 uppercase letter\n- 1 number\n- 1 special character (!@#$%^&*)"
	MsgLoginPass   = "Password must be at least 6 characters."
	MsgFirstName   = "First name is required."
	MsgLastName    = "Last name is required."
	MsgNickname    = "Please enter your nickname."
)

// Form field names carried by ValidationError.
const (
	FieldRole      = "role"
	FieldUsername  = "username"
	FieldEmail     = "email"
	FieldPassword  = "password"
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldNickname  = "nickname"
)

// guard rejects a submission while another one is in flight.
type guard struct{ busy atomic.Bool }

func (g *guard) enter() bool { return g.busy.CompareAndSwap(false, true) }
func (g *guard) leave()      { g.busy.Store(false) }

var busyOutcome = Outcome{State: StateSubmitting, Message: MsgBusy, Err: errs.ErrBusy}

// invalid builds a validation failure outcome.
func invalid(field, msg string) Outcome {
	return Outcome{State: StateFailed, Message: msg, Err: &errs.ValidationError{Field: field, Message: msg}}
}
