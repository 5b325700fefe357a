package ui

import (
	"fmt"
	"io"

	"github.com/flatzip/flatzip/internal/stats"
)

// plainPresenter outputs one line per notable event.
type plainPresenter struct {
	w       io.Writer
	stats   stats.Reader
	verbose bool
}

func (p *plainPresenter) Run(events <-chan Event) error {
	for ev := range events {
		p.handleEvent(ev)
	}
	return nil
}

func (p *plainPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case FileCopied:
		if p.verbose {
			fmt.Fprintf(p.w, "%s  %s\n", ev.Path, FormatBytes(ev.Size))
		}
	case AliasResolved:
		fmt.Fprintf(p.w, "%s -> %s\n", ev.Path, ev.Target)
	case AliasSkipped:
		errMsg := "unresolvable"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		fmt.Fprintf(p.w, "skipped %s: %s\n", ev.Path, errMsg)
	case VerifyStarted:
		fmt.Fprintln(p.w, "verifying...")
	case VerifyFailed:
		fmt.Fprintf(p.w, "MISMATCH: %s\n", ev.Path)
	case ArchiveStarted:
		fmt.Fprintln(p.w, "archiving...")
	case ArchiveEntry:
		if p.verbose {
			fmt.Fprintf(p.w, "add %s\n", ev.Path)
		}
	}
}

func (p *plainPresenter) Summary() string {
	return completionSummary(p.stats.Snapshot())
}
