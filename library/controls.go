package library

import (
	"errors"
	"sync"
)

// Action names a user-triggerable operation on a list entry.
type Action string

const (
	ActionBorrow  Action = "borrow"
	ActionReturn  Action = "return"
	ActionRenew   Action = "renew"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Control is the rendered state of one button.
type Control struct {
	Action  Action
	Label   string
	Enabled bool
}

// ErrControlDisabled is returned when an action is attempted through a
// control that is not currently enabled.
var ErrControlDisabled = errors.New("action not available")

// Trigger wraps a Control that must not fire twice while a request is in flight.
type Trigger struct {
	mu   sync.Mutex
	idle Control
	cur  Control
}

func NewTrigger(c Control) *Trigger {
	return &Trigger{idle: c, cur: c}
}

// State is what the button shows right now.
func (t *Trigger) State() Control {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cur
}

// Action is the action the control fires.
func (t *Trigger) Action() Action {
	return t.idle.Action
}

// begin disables the control and shows busy. It returns false when the
// control was already disabled.
func (t *Trigger) begin(busy string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.cur.Enabled {
		return false
	}
	t.cur.Enabled = false
	t.cur.Label = busy
	return true
}

// fail puts the control back the way it was before begin.
func (t *Trigger) fail() {
	t.mu.Lock()
	t.cur = t.idle
	t.mu.Unlock()
}
