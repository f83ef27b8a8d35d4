// Package report renders the end-of-run summary.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/stvsmth/sieve/internal"
	"github.com/stvsmth/sieve/pkg/sieve"
)

// ParseLocale parses a BCP 47 tag. An empty tag is English; an invalid one
// is English plus an error the caller is expected to warn about.
func ParseLocale(s string) (language.Tag, error) {
	if s == "" {
		return language.English, nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.English, errors.Errorf("invalid locale %q, using %s: %w", s, internal.DefaultLocale, err)
	}
	return tag, nil
}

// FormatCount formats n with the digit grouping of tag.
func FormatCount(tag language.Tag, n uint64) string {
	return message.NewPrinter(tag).Sprintf("%d", n)
}

// Summary is the final line of a run.
func Summary(tag language.Tag, totals internal.Totals) string {
	return fmt.Sprintf("Removed %s lines from a total of %s lines read.",
		FormatCount(tag, totals.LinesRemoved), FormatCount(tag, totals.LinesRead))
}

// Print writes the summary line followed by one line per failed file.
func Print(w io.Writer, result *sieve.Result, tag language.Tag) error {
	if result == nil {
		result = &sieve.Result{}
	}

	if _, err := color.New(color.Bold).Fprintln(w, Summary(tag, result.Totals)); err != nil {
		return errors.WithStack(err)
	}

	if n := len(result.Failures); n > 0 {
		yellow := color.New(color.FgYellow)
		if _, err := yellow.Fprintf(w, "%s files could not be processed:\n", FormatCount(tag, uint64(n))); err != nil {
			return errors.WithStack(err)
		}
		for _, rec := range result.Failures {
			if _, err := fmt.Fprintf(w, "  %s %s %v\n", color.RedString("✗"), rec, rec.Err); err != nil {
				return errors.WithStack(err)
			}
		}
	}

	if result.Skipped > 0 {
		if _, err := color.New(color.FgHiBlack).Fprintf(w, "%s files were not processed because the run was interrupted.\n",
			FormatCount(tag, uint64(result.Skipped))); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
