package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"library-client/library"
	"library-client/pagination"
)

// draftFlags binds the submission form to flags.
type draftFlags struct {
	draft library.SubmissionDraft
	year  int
	cover string
}

func (f *draftFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.draft.Title, "title", "", "book title")
	fs.StringVar(&f.draft.Author, "author", "", "book author")
	fs.StringVar(&f.draft.ISBN, "isbn", "", "ISBN")
	fs.StringVar(&f.draft.Category, "category", "", "category")
	fs.StringVar(&f.draft.Publisher, "publisher", "", "publisher")
	fs.IntVar(&f.year, "year", 0, "publish year")
	fs.StringVar(&f.draft.Description, "description", "", "short description")
	fs.StringVar(&f.cover, "cover", "", "cover image file")
}

// build returns the draft, merged over base for flags that were not given.
func (f *draftFlags) build(cmd *cobra.Command, base *library.Submission) (library.SubmissionDraft, error) {
	d := f.draft
	if cmd.Flags().Changed("year") {
		year := f.year
		d.PublishYear = &year
	}
	if f.cover != "" {
		raw, err := os.ReadFile(f.cover)
		if err != nil {
			return d, fmt.Errorf("read cover: %w", err)
		}
		d.CoverBase64 = base64.StdEncoding.EncodeToString(raw)
	}
	if base == nil {
		return d, nil
	}

	keep := func(flag string, dst *string, old string) {
		if !cmd.Flags().Changed(flag) {
			*dst = old
		}
	}
	keep("title", &d.Title, base.Title)
	keep("author", &d.Author, base.Author)
	keep("isbn", &d.ISBN, base.ISBN)
	keep("category", &d.Category, base.Category)
	keep("publisher", &d.Publisher, base.Publisher)
	keep("description", &d.Description, base.Description)
	if d.PublishYear == nil && base.PublishYear > 0 {
		year := base.PublishYear
		d.PublishYear = &year
	}
	return d, nil
}

func newSubmitCmd(a *app) *cobra.Command {
	var f draftFlags
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Propose a book for the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := f.build(cmd, nil)
			if err != nil {
				return err
			}
			sub, msg, err := a.lm.Submit(cmd.Context(), d)
			if err != nil {
				return err
			}
			if msg == "" {
				msg = "Submission received"
			}
			if sub != nil {
				fmt.Fprintf(a.out, "%s: #%d %q is %s.\n", msg, sub.ID, sub.Title, sub.Status.Text())
			} else {
				fmt.Fprintf(a.out, "%s.\n", msg)
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newSubmissionsCmd(a *app) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "submissions",
		Short: "List your submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl := pagination.NewController(a.lm.PageSize(), a.lm.MySubmissions)
			return showList(cmd.Context(), a, ctl, page, "", func(res pagination.PageResult[library.Submission], strip []pagination.Button) error {
				return a.renderer().Submissions(res, strip, library.ViewerSubmitter)
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page to show")
	cmd.AddCommand(newEditSubmissionCmd(a), newCancelSubmissionCmd(a))
	return cmd
}

// findMySubmission walks the reader's submission pages for id.
func (a *app) findMySubmission(ctx context.Context, id int64) (library.Submission, error) {
	q := pagination.Query{Size: a.lm.PageSize()}
	for {
		page, err := a.lm.MySubmissions(ctx, q)
		if err != nil {
			return library.Submission{}, err
		}
		if sub, ok := library.FindSubmission(page, id); ok {
			return sub, nil
		}
		if page.Last || q.Page+1 >= page.TotalPages {
			return library.Submission{}, fmt.Errorf("submission %d not found", id)
		}
		q.Page++
	}
}

func newEditSubmissionCmd(a *app) *cobra.Command {
	var f draftFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a pending submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "submission ID")
			if err != nil {
				return err
			}
			sub, err := a.findMySubmission(ctx, id)
			if err != nil {
				return err
			}
			d, err := f.build(cmd, &sub)
			if err != nil {
				return err
			}
			if err := a.lm.EditSubmission(ctx, sub, d); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Submission #%d updated.\n", id)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newCancelSubmissionCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "cancel <id>",
		Aliases: []string{"delete"},
		Short:   "Withdraw a pending submission",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "submission ID")
			if err != nil {
				return err
			}
			sub, err := a.findMySubmission(ctx, id)
			if err != nil {
				return err
			}
			if !yes && !a.confirm(fmt.Sprintf("Withdraw %q?", sub.Title)) {
				fmt.Fprintln(a.out, "Cancelled.")
				return nil
			}
			if err := a.lm.CancelSubmission(ctx, sub); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Submission #%d withdrawn.\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// reviewScreen returns the shell's open review list, or a new one.
func (a *app) reviewScreen() *library.ReviewScreen {
	if a.review == nil {
		a.review = a.lm.NewReviewScreen()
	}
	return a.review
}

func (a *app) showReview(screen *library.ReviewScreen, res pagination.PageResult[library.Submission]) error {
	r := a.renderer()
	r.Message("Pending review: %d", screen.Pending)
	return r.Submissions(res, screen.Strip(), library.ViewerAdmin)
}

func newReviewCmd(a *app) *cobra.Command {
	var (
		status string
		page   int
	)
	cmd := &cobra.Command{
		Use:   "review",
		Short: "List submissions for review (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			screen := a.lm.NewReviewScreen()
			res, err := screen.Load(ctx, status)
			if err != nil {
				return err
			}
			if page > 1 {
				if res, err = screen.ChangePage(ctx, page-1); err != nil {
					return err
				}
			}
			a.review = screen
			a.list = &listState{
				change: func(ctx context.Context, n int) error {
					res, err := screen.ChangePage(ctx, n)
					if err != nil {
						return err
					}
					return a.showReview(screen, res)
				},
				current: func() int { return screen.Current().Number },
			}
			return a.showReview(screen, res)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "PENDING, APPROVED, REJECTED or CANCELLED")
	cmd.Flags().IntVar(&page, "page", 1, "page to show")
	return cmd
}

func newDecisionCmd(a *app, use, short string, approved bool) *cobra.Command {
	var comment string
	cmd := &cobra.Command{
		Use:   use + " <submission id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "submission ID")
			if err != nil {
				return err
			}
			screen := a.reviewScreen()
			// Without an admin identity Review refuses before any request.
			s, _ := a.lm.CurrentSession()
			if _, ok := library.AdminIdentity(s); ok && len(screen.Current().Content) == 0 {
				if _, err := screen.Load(ctx, ""); err != nil {
					return err
				}
			}
			msg, err := screen.Review(ctx, id, approved, strings.TrimSpace(comment))
			if err != nil {
				return err
			}
			if msg == "" {
				msg = "Review saved"
			}
			fmt.Fprintf(a.out, "%s.\n", msg)
			return a.showReview(screen, screen.Current())
		},
	}
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "review comment")
	return cmd
}

func newApproveCmd(a *app) *cobra.Command {
	return newDecisionCmd(a, "approve", "Approve a pending submission (admin)", true)
}

func newRejectCmd(a *app) *cobra.Command {
	return newDecisionCmd(a, "reject", "Reject a pending submission (admin)", false)
}
