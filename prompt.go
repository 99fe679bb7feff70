package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// readPassword securely reads a password with masking. Piped input is read
// as a plain line.
func (a *app) readPassword(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)
	if a.stdin != nil && term.IsTerminal(int(a.stdin.Fd())) {
		bytePassword, err := term.ReadPassword(int(a.stdin.Fd()))
		if err != nil {
			return "", err
		}
		fmt.Fprintln(a.out) // Add newline after password input
		return strings.TrimSpace(string(bytePassword)), nil
	}
	return a.readLine("")
}

func (a *app) readLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(a.out, prompt)
	}
	if !a.in.Scan() {
		if err := a.in.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(a.in.Text()), nil
}

// confirm asks a yes/no question; anything but y/yes is no.
func (a *app) confirm(question string) bool {
	answer, err := a.readLine(question + " [y/N]: ")
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %s", what, s)
	}
	return id, nil
}

// lineReader hands the app's scanner to code that wants an io.Reader, one
// line per Read, so input buffered by the shell is not lost.
type lineReader struct {
	sc  *bufio.Scanner
	buf []byte
}

func (r *lineReader) Read(p []byte) (int, error) {
	if len(r.buf) == 0 {
		if !r.sc.Scan() {
			if err := r.sc.Err(); err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		r.buf = append(append(r.buf[:0], r.sc.Bytes()...), '\n')
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

func (a *app) stdinReader() io.Reader {
	return &lineReader{sc: a.in}
}
