package main

import (
	"fmt"
	"io"
	"sync"

	"library-client/session"
)

// terminalNav turns alerts and redirects into hints on stderr. The command
// that triggered them then stops with the error it got.
type terminalNav struct {
	mu sync.Mutex
	w  io.Writer
}

func newTerminalNav(w io.Writer) *terminalNav {
	return &terminalNav{w: w}
}

func (n *terminalNav) Alert(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "! %s\n", message)
}

func (n *terminalNav) RedirectToLogin() {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.w, "Run 'login' to sign in.")
}

func (n *terminalNav) RedirectHome(role string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "Back to your %s: run '%s'.\n", session.HomeFor(role), homeCommand(role))
}

// homeCommand is the command that shows a role's landing screen.
func homeCommand(role string) string {
	if role == session.RoleAdmin {
		return "admin"
	}
	return "dashboard"
}
