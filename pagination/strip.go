// Package pagination holds the page state shared by every list screen and the
// button strip drawn under it.
package pagination

import "strconv"

// Kind identifies a button in the strip.
type Kind int

const (
	Prev Kind = iota
	First
	Ellipsis
	Number
	Last
	Next
)

// WindowRadius is how many numbered pages are shown either side of the current one.
const WindowRadius = 2

// Button is one control of the strip. Page is 0-based; Ellipsis buttons carry
// no page and are never clickable.
type Button struct {
	Kind     Kind
	Page     int
	Active   bool
	Disabled bool
}

// Label is the text shown on the button, with pages numbered from 1.
func (b Button) Label() string {
	switch b.Kind {
	case Prev:
		return "prev"
	case Next:
		return "next"
	case Ellipsis:
		return "..."
	default:
		return strconv.Itoa(b.Page + 1)
	}
}

// Clickable reports whether pressing the button should change the page.
func (b Button) Clickable() bool {
	return b.Kind != Ellipsis && !b.Disabled && !b.Active
}

// Strip builds the controls for a list with totalPages pages showing current.
// It returns nil when there is nothing to page through. Every page a button
// points at is within [0, totalPages).
func Strip(totalPages, current int) []Button {
	if totalPages <= 1 {
		return nil
	}
	current = clamp(current, 0, totalPages-1)

	start := max(0, current-WindowRadius)
	end := min(totalPages-1, current+WindowRadius)

	buttons := []Button{{Kind: Prev, Page: max(0, current-1), Disabled: current == 0}}

	if start > 0 {
		buttons = append(buttons, Button{Kind: First, Page: 0})
		if start > 1 {
			buttons = append(buttons, Button{Kind: Ellipsis, Page: -1, Disabled: true})
		}
	}
	for p := start; p <= end; p++ {
		buttons = append(buttons, Button{Kind: Number, Page: p, Active: p == current})
	}
	if end < totalPages-1 {
		if end < totalPages-2 {
			buttons = append(buttons, Button{Kind: Ellipsis, Page: -1, Disabled: true})
		}
		buttons = append(buttons, Button{Kind: Last, Page: totalPages - 1})
	}

	last := totalPages - 1
	buttons = append(buttons, Button{Kind: Next, Page: min(last, current+1), Disabled: current == last})
	return buttons
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
