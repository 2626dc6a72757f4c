package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"portafoglio/internal/features"
	"portafoglio/internal/forms"
)

// Exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // rejected input or API refusal
	ExitCommandError = 2 // bad configuration or flags
)

// ExitError carries an exit code out of a command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

// GetExitCode maps err to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// printer writes either aligned text tables or JSON.
type printer struct {
	format string
	w      io.Writer
}

// table prints rows under header, or data as JSON.
func (p printer) table(header []string, rows [][]string, data any) error {
	if p.format == "json" {
		return p.json(data)
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

// line prints text, or data as JSON.
func (p printer) line(text string, data any) error {
	if p.format == "json" {
		return p.json(data)
	}
	_, err := fmt.Fprintln(p.w, text)
	return err
}

func (p printer) json(data any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// submitFailure turns a Submit error into an ExitError listing the
// messages of every failed field.
func submitFailure(err error, view forms.View) error {
	if errors.Is(err, features.ErrInvalidForm) {
		var lines []string
		names := make([]string, 0, len(view.Fields))
		for name := range view.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, msg := range view.Fields[name].Messages {
				lines = append(lines, name+": "+msg)
			}
		}
		return &ExitError{Code: ExitFailure, Message: "invalid input:\n  " + strings.Join(lines, "\n  ")}
	}
	var se *features.SubmitError
	if errors.As(err, &se) {
		return &ExitError{Code: ExitFailure, Message: se.Reason}
	}
	return &ExitError{Code: ExitFailure, Message: "request failed", Err: err}
}
