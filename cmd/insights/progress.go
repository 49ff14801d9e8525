package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"

	"github.com/finance-tracker/insights/internal/application/usecase/recompute"
)

const progressSteps = 100

func newProgressBar(w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(progressSteps,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("[cyan][bold]Computing insights...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

func updateProgress(bar *progressbar.ProgressBar, ev recompute.Event) {
	if bar == nil {
		return
	}
	bar.Describe(fmt.Sprintf("[cyan][bold]Computing insights[reset] (%s)", ev.Phase))
	if err := bar.Set(int(ev.Fraction * progressSteps)); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

func finishProgress(bar *progressbar.ProgressBar) {
	if bar == nil {
		return
	}
	if err := bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}
