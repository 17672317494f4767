package main

import (
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"

	"relocator/internal/logging"
	"relocator/internal/verify"
)

// progressReporter draws a bar on an interactive terminal and falls back to
// sampled log lines otherwise.
type progressReporter struct {
	writer      io.Writer
	interactive bool
	bar         *progressbar.ProgressBar
	sampler     *logging.ProgressSampler
	logger      *slog.Logger
}

func newProgressReporter(w io.Writer, logger *slog.Logger, interactive bool) *progressReporter {
	return &progressReporter{
		writer:      w,
		interactive: interactive,
		sampler:     logging.NewProgressSampler(10),
		logger:      logging.NewComponentLogger(logger, "verify"),
	}
}

func (p *progressReporter) update(pr verify.Progress) {
	if p.interactive {
		if p.bar == nil {
			p.bar = progressbar.NewOptions(pr.Total,
				progressbar.OptionSetWriter(p.writer),
				progressbar.OptionSetDescription("Verifying files"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(30),
				progressbar.OptionThrottle(100*time.Millisecond),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = p.bar.Set(pr.Processed)
		return
	}
	if !p.sampler.ShouldLog(pr.Percent) {
		return
	}
	p.logger.Info("verification progress",
		logging.Int("processed", pr.Processed),
		logging.Int("total", pr.Total),
		logging.Float64(logging.FieldProgressPercent, pr.Percent),
		logging.String(logging.FieldEventType, "batch_progress"),
	)
}

func (p *progressReporter) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
