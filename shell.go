package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session; type commands without the program name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShell(cmd.Context())
		},
	}
}

func (a *app) printShellHelp() {
	fmt.Fprintln(a.out, "Available commands:")
	fmt.Fprintln(a.out, "  Account: login, logout, whoami, register, profile, password, settings")
	fmt.Fprintln(a.out, "  Catalog: books, search, hot, history, book, cover, author")
	fmt.Fprintln(a.out, "  Loans: dashboard, borrows, borrow, return, renew")
	fmt.Fprintln(a.out, "  Submissions: submit, submissions, review, approve, reject")
	fmt.Fprintln(a.out, "  Admin: admin, admin users, admin borrows, admin return, admin delete-user")
	fmt.Fprintln(a.out, "  Reading: read")
	fmt.Fprintln(a.out, "  System: help, exit")
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Tips:")
	fmt.Fprintln(a.out, "  • After a list, 'next', 'prev' or 'page N' move through its pages")
	fmt.Fprintln(a.out, "  • Add --help to any command to see its flags")
}

func (a *app) runShell(ctx context.Context) error {
	fmt.Fprintln(a.out, "Welcome to the library client!")
	if s, ok := a.lm.CurrentSession(); ok {
		fmt.Fprintf(a.out, "Signed in as %s (%s).\n", s.Username, s.Role)
	} else {
		fmt.Fprintln(a.out, "You are not signed in; start with 'login'.")
	}
	a.printShellHelp()

	for {
		fmt.Fprint(a.out, "\n> ")
		if !a.in.Scan() {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		args, err := splitArgs(a.in.Text())
		if err != nil {
			fmt.Fprintf(a.errOut, "Error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		switch strings.ToLower(args[0]) {
		case "exit", "quit":
			fmt.Fprintln(a.out, "Goodbye!")
			return nil
		case "help", "?":
			if len(args) == 1 {
				a.printShellHelp()
				continue
			}
		case "shell":
			fmt.Fprintln(a.out, "Already in the shell.")
			continue
		case "next", "n":
			a.turnPage(ctx, 1, false)
			continue
		case "prev", "p":
			a.turnPage(ctx, -1, false)
			continue
		case "page":
			if len(args) != 2 {
				fmt.Fprintln(a.out, "Usage: page N")
				continue
			}
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				fmt.Fprintf(a.out, "Invalid page number: %s\n", args[1])
				continue
			}
			a.turnPage(ctx, n-1, true)
			continue
		}

		root := newRootCmd(a)
		root.SetArgs(args)
		if err := root.ExecuteContext(ctx); err != nil {
			a.report(err)
		}
	}
	return a.in.Err()
}

// turnPage moves the last list by delta pages, or to page when absolute.
func (a *app) turnPage(ctx context.Context, n int, absolute bool) {
	if a.list == nil {
		fmt.Fprintln(a.out, "No list to page through; run a list command first.")
		return
	}
	if !absolute {
		n += a.list.current()
	}
	if err := a.list.change(ctx, n); err != nil {
		a.report(err)
	}
}

// splitArgs splits a shell line into words. Single or double quotes group
// words; a backslash escapes the next character outside single quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, errors.New("unterminated quote")
	}
	if escaped {
		return nil, errors.New("dangling backslash")
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}
