package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/fireworks/gitengine/internal/events"
)

// taskProgressBar renders Task::Progress events for one task ID to stderr.
// On a non-terminal stderr (piped output, CI logs) it falls back to plain
// line-oriented status prints so redirected output stays readable.
type taskProgressBar struct {
	taskID   string
	isTTY    bool
	bar      *progressbar.ProgressBar
	lastMsg  string
	lastPct  float64
}

func newTaskProgressBar(taskID string) *taskProgressBar {
	return &taskProgressBar{
		taskID: taskID,
		isTTY:  isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()),
	}
}

// drain reads every event published since the last drain and renders the
// ones that belong to this task.
func (b *taskProgressBar) drain(bus *events.Bus) {
	for _, e := range bus.TakeAll() {
		if e.Type != events.FamilyTask {
			continue
		}
		id, _ := e.Data["id"].(string)
		if id != b.taskID {
			continue
		}
		switch e.Variant {
		case events.VariantTaskProgress:
			msg, _ := e.Data["message"].(string)
			pct, _ := e.Data["increment"].(float64)
			b.update(msg, pct)
		case events.VariantTaskFailed:
			msg, _ := e.Data["message"].(string)
			b.fail(msg)
		}
	}
}

func (b *taskProgressBar) update(msg string, pct float64) {
	if msg == "" {
		msg = b.lastMsg
	}
	b.lastMsg, b.lastPct = msg, pct

	if !b.isTTY {
		fmt.Fprintf(os.Stderr, "%s: %s (%.0f%%)\n", b.taskID, msg, pct)
		return
	}
	if b.bar == nil {
		b.bar = progressbar.NewOptions(100,
			progressbar.OptionSetDescription(msg),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetPredictTime(false),
		)
	}
	b.bar.Describe(msg)
	_ = b.bar.Set(int(pct))
}

func (b *taskProgressBar) fail(msg string) {
	if b.isTTY {
		fmt.Fprintln(os.Stderr, color.RedString("%s: failed: %s", b.taskID, msg))
		return
	}
	fmt.Fprintf(os.Stderr, "%s: failed: %s\n", b.taskID, msg)
}

func (b *taskProgressBar) finish() {
	if b.bar != nil {
		_ = b.bar.Finish()
	}
}
