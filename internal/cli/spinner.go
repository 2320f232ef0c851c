package cli

import (
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
)

// WithSpinner runs fn behind a terminal progress spinner. Quiet mode runs fn
// directly. When fn fails and failure is non-empty, the spinner leaves the
// failure message behind in red.
func WithSpinner(quiet bool, suffix, failure string, fn func() error) error {
	if quiet {
		return fn()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + suffix
	s.Start()
	defer s.Stop()

	if err := fn(); err != nil {
		if failure != "" {
			s.FinalMSG = text.FgRed.Sprint(failure) + "\n"
		}
		return err
	}
	return nil
}
