// Package console renders run progress, findings and the final verdict.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"pystrict/internal/rules"
)

var (
	headerColor  = color.New(color.FgBlue, color.Bold)
	ruleColor    = color.New(color.FgGreen, color.Bold)
	passedColor  = color.New(color.FgBlue)
	failedColor  = color.New(color.FgRed)
	findingColor = color.New(color.FgHiRed)
	noteColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen, color.Bold)
	failureColor = color.New(color.FgRed, color.Bold)
)

// Console writes run output. Progress goes to Out, the failure summary to
// Err, matching shell redirection expectations.
type Console struct {
	Out io.Writer
	Err io.Writer
}

// New returns a console bound to the process streams.
func New() *Console {
	return &Console{Out: os.Stdout, Err: os.Stderr}
}

// FileHeader announces the file being processed.
func (c *Console) FileHeader(path string) {
	fmt.Fprintln(c.Out)
	headerColor.Fprintf(c.Out, "Processing file %s\n", path)
}

// Tree prints the parsed node outline for the print-tree diagnostic.
func (c *Console) Tree(rendered string) {
	fmt.Fprint(c.Out, rendered)
	fmt.Fprintln(c.Out)
}

// RuleStart announces one rule check; RulePassed or RuleFailed finishes
// the line.
func (c *Console) RuleStart(title string) {
	fmt.Fprint(c.Out, "\t- Checking ")
	ruleColor.Fprint(c.Out, title)
	fmt.Fprint(c.Out, " ... ")
}

func (c *Console) RulePassed() {
	passedColor.Fprintln(c.Out, "PASSED")
}

func (c *Console) RuleFailed() {
	failedColor.Fprintln(c.Out, "FAILED")
}

// Findings prints every finding of one file's report.
func (c *Console) Findings(report *rules.Report) {
	for _, f := range report.Findings {
		findingColor.Fprintf(c.Out, "\t  %s:%d: %s\n", report.File, f.Span.Start, f.Message)
		if len(f.Suggestion) > 0 {
			fmt.Fprintf(c.Out, "\t  suggesting:\n")
			for _, line := range f.Suggestion {
				fmt.Fprintf(c.Out, "\t  | %s\n", line)
			}
		}
		for _, note := range f.Notes {
			noteColor.Fprintf(c.Out, "\t  %s\n", note)
		}
	}
}

// FileError reports a file that could not be processed at all.
func (c *Console) FileError(path string, err error) {
	failedColor.Fprintf(c.Out, "\t  %s: %v\n", path, err)
}

// Summary prints the final verdict. Failed file paths are listed on the
// error stream.
func (c *Console) Summary(failed []string) {
	if len(failed) == 0 {
		fmt.Fprintln(c.Out)
		successColor.Fprintln(c.Out, "SUCCESS")
		return
	}
	fmt.Fprintln(c.Err)
	failureColor.Fprintf(c.Err, "%d FILES FAILED\n", len(failed))
	fmt.Fprintln(c.Err, strings.Repeat("-", 40))
	for _, path := range failed {
		findingColor.Fprintf(c.Err, "  %s\n", path)
	}
}

// SuggestRerun hints at re-running the checks after refactoring wrote
// fixes into the files.
func (c *Console) SuggestRerun() {
	fmt.Fprintln(c.Err)
	fmt.Fprintln(c.Err, "It is suggested to re-run the checks after refactoring.")
}
