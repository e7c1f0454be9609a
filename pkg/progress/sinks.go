package progress

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/screa/partial-key-cracker/pkg/types"
)

// Printer is the subset of the application logger used by LogSink.
type Printer interface {
	Printf(format string, v ...any)
}

// LogSink writes samples as log lines.
type LogSink struct {
	logger Printer
	p      *message.Printer
}

// NewLogSink creates a sink logging through logger.
func NewLogSink(logger Printer) *LogSink {
	return &LogSink{
		logger: logger,
		p:      message.NewPrinter(language.English),
	}
}

// Report implements Sink.
func (l *LogSink) Report(s types.Sample) {
	if s.HasRate {
		l.logger.Printf("Checking keys: %s keys / second", l.p.Sprintf("%d", s.Rate))
	}
	l.logger.Printf("Progress: %.2f%% (%s of %s)", s.Percent,
		l.p.Sprintf("%d", s.Count), l.p.Sprintf("%d", s.Total))
}

// BarSink renders samples on a terminal progress bar.
type BarSink struct {
	bar *progressbar.ProgressBar
}

// NewBarSink creates a progress bar over total keys writing to w.
func NewBarSink(w io.Writer, total uint64) *BarSink {
	return &BarSink{
		bar: progressbar.NewOptions64(int64(total),
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("Checking keys"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("keys"),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionFullWidth(),
		),
	}
}

// Report implements Sink.
func (b *BarSink) Report(s types.Sample) {
	_ = b.bar.Set64(int64(s.Count))
}

// Finish completes the bar.
func (b *BarSink) Finish() {
	_ = b.bar.Finish()
}
