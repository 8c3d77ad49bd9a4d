package reportsink

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/streamvalidate/scenario/domain/report"
)

// openLogFiles resolves the `PATH:PATH:...`-style log-files list (spec
// §4.3), recognizing the special `stdout`/`stderr` tokens, and returns
// the writers plus a close func for any opened files.
func openLogFiles(entries []string) ([]io.Writer, func(), error) {
	var writers []io.Writer
	var files []*os.File

	for _, entry := range entries {
		switch entry {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		case "":
			continue
		default:
			f, err := os.OpenFile(entry, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				for _, opened := range files {
					opened.Close()
				}
				return nil, nil, err
			}
			files = append(files, f)
			writers = append(writers, f)
		}
	}

	closeFn := func() {
		for _, f := range files {
			f.Close()
		}
	}
	return writers, closeFn, nil
}

// formatReport renders a Report the way every log file receives it (spec
// §4.3): level/summary line, detected-on line (including shadow
// reporters), the message body, an optional .dot note, an optional stack
// trace, a line giving the repeat count, the issue's long description,
// then a blank line.
func formatReport(r *report.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(r.Severity.String()), r.Issue.Summary)

	reporters := []string{r.Reporter}
	for _, shadow := range r.Shadows() {
		reporters = append(reporters, shadow.Reporter)
	}
	fmt.Fprintf(&b, "Detected on %s\n", strings.Join(reporters, ", "))

	for _, line := range strings.Split(r.Message, "\n") {
		fmt.Fprintf(&b, "    %s\n", line)
	}

	if r.DotFile != "" {
		fmt.Fprintf(&b, "A dot file was saved: %s\n", r.DotFile)
	}

	if r.Stack != "" {
		b.WriteString("Stack trace:\n")
		for _, line := range strings.Split(r.Stack, "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}

	if n := r.RepeatCount(); n > 0 {
		fmt.Fprintf(&b, "(repeated %d more time(s))\n", n)
	}

	if r.Issue.Description != "" {
		fmt.Fprintf(&b, "%s\n", r.Issue.Description)
	}

	b.WriteString("\n")
	return b.String()
}
