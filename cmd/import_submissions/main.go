// Command import_submissions files a submission for every text in a
// directory, using the session saved by 'library-client login'.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"library-client/api"
	"library-client/config"
	"library-client/library"
	"library-client/logger"
	"library-client/pagination"
	"library-client/session"
)

// entry describes one text. manifest.json in the directory maps file names
// to entries; files it does not name fall back to the built-in list.
type entry struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Category    string `json:"category"`
	ISBN        string `json:"isbn"`
	Publisher   string `json:"publisher"`
	PublishYear *int   `json:"publishYear"`
}

var builtin = map[string]entry{
	"1984.txt":                   {Title: "1984", Author: "George Orwell", Category: "Fiction"},
	"animal_farm.txt":            {Title: "Animal Farm", Author: "George Orwell", Category: "Fiction"},
	"anne_frank.txt":             {Title: "The Diary of a Young Girl", Author: "Anne Frank", Category: "Biography"},
	"art_of_war.txt":             {Title: "The Art of War", Author: "Sun Tzu", Category: "Philosophy"},
	"fellowship_of_the_ring.txt": {Title: "The Fellowship of the Ring", Author: "J.R.R. Tolkien", Category: "Fantasy"},
	"the_two_towers.txt":         {Title: "The Two Towers", Author: "J.R.R. Tolkien", Category: "Fantasy"},
	"return_of_the_king.txt":     {Title: "The Return of the King", Author: "J.R.R. Tolkien", Category: "Fantasy"},
	"romeo_and_juliet.txt":       {Title: "Romeo and Juliet", Author: "William Shakespeare", Category: "Drama"},
	"three_little_pigs.txt":      {Title: "The Three Little Pigs", Author: "Traditional", Category: "Children"},
	"three_musketeers.txt":       {Title: "The Three Musketeers", Author: "Alexandre Dumas", Category: "Adventure"},
}

const descriptionLen = 300

type stderrNav struct{}

func (stderrNav) Alert(message string) { fmt.Fprintf(os.Stderr, "! %s\n", message) }
func (stderrNav) RedirectToLogin()     { fmt.Fprintln(os.Stderr, "Run 'library-client login' first.") }
func (stderrNav) RedirectHome(role string) {
	fmt.Fprintf(os.Stderr, "Submissions are filed by readers; you are signed in as %s.\n", role)
}

func main() {
	var dryRun bool
	cmd := &cobra.Command{
		Use:           "import_submissions [dir]",
		Short:         "Submit every .txt file in dir (default ./texts) for review",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "texts"
			if len(args) == 1 {
				dir = args[0]
			}
			return run(cmd.Context(), dir, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be submitted without sending anything")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, session.ErrNotLoggedIn) && !errors.Is(err, session.ErrForbidden) && !errors.Is(err, api.ErrUnauthorized) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, dir string, dryRun bool) error {
	cfg := config.LoadConfig()
	log, err := logger.New(cfg.Env, cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	store, err := session.NewStore(cfg.Session.DBPath, cfg.Session.Secret)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	nav := stderrNav{}
	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, store, nav, log)
	lm := library.NewLibraryManager(client, store, nav, library.Options{Logger: log})
	if _, err := lm.Require(session.RoleUser); err != nil {
		return err
	}

	meta, err := loadManifest(dir)
	if err != nil {
		return err
	}
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(f.Name(), ".txt") {
			names = append(names, f.Name())
		}
	}
	sort.Strings(names)

	fmt.Printf("Submitting books from %s...\n", dir)
	var ok, failed int
	for _, name := range names {
		e, found := meta[name]
		if !found {
			fmt.Printf("Warning: No metadata found for %s, skipping\n", name)
			continue
		}
		desc, err := firstParagraph(filepath.Join(dir, name), descriptionLen)
		if err != nil {
			fmt.Printf("%s: ERROR - %v\n", e.Title, err)
			failed++
			continue
		}
		draft := library.SubmissionDraft{
			Title:       e.Title,
			Author:      e.Author,
			Category:    e.Category,
			ISBN:        e.ISBN,
			Publisher:   e.Publisher,
			PublishYear: e.PublishYear,
			Description: desc,
		}
		if err := draft.Validate(); err != nil {
			fmt.Printf("%s: ERROR - %v\n", name, err)
			failed++
			continue
		}

		fmt.Printf("Submitting: %s by %s... ", draft.Title, draft.Author)
		if dryRun {
			fmt.Println("skipped (dry run)")
			continue
		}
		sub, _, err := lm.Submit(ctx, draft)
		if err != nil {
			fmt.Printf("ERROR - %v\n", err)
			log.Warn("submission failed", zap.String("file", name), zap.Error(err))
			failed++
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		if sub != nil && sub.ID > 0 {
			fmt.Printf("SUCCESS (ID: %d)\n", sub.ID)
		} else {
			fmt.Println("SUCCESS")
		}
		ok++
	}

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Submitted: %d books\n", ok)
	fmt.Printf("Errors: %d\n", failed)
	if ok == 0 {
		return nil
	}

	mine, err := lm.MySubmissions(ctx, pagination.Query{Page: 0, Size: 50})
	if err != nil {
		fmt.Printf("Error retrieving submissions: %v\n", err)
		return nil
	}
	fmt.Println("\nYour submissions:")
	fmt.Printf("%-5s %-45s %-25s %-9s\n", "ID", "Title", "Author", "Status")
	fmt.Println(strings.Repeat("-", 87))
	for _, s := range mine.Content {
		fmt.Printf("%-5d %-45s %-25s %-9s\n", s.ID, truncate(s.Title, 45), truncate(s.Author, 25), s.Status)
	}
	return nil
}

func loadManifest(dir string) (map[string]entry, error) {
	meta := make(map[string]entry, len(builtin))
	for k, v := range builtin {
		meta[k] = v
	}
	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if errors.Is(err, os.ErrNotExist) {
		return meta, nil
	}
	if err != nil {
		return nil, err
	}
	var extra map[string]entry
	if err := json.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("parse manifest.json: %w", err)
	}
	for k, v := range extra {
		meta[k] = v
	}
	return meta, nil
}

// firstParagraph returns the first non-blank paragraph of a text, joined into
// one line and cut to max runes.
func firstParagraph(path string, max int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if len(words) > 0 {
				break
			}
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return truncate(strings.Join(words, " "), max), nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
