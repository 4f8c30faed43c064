package ui

import (
	"io"
	"time"

	"cfmods/downloader"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// BarObserver draws one progress bar per transfer on w.
type BarObserver struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

// NewBarObserver creates an observer writing to w, usually os.Stderr.
func NewBarObserver(w io.Writer) *BarObserver {
	return &BarObserver{w: w}
}

func (b *BarObserver) Start(label string, total int64) {
	b.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetDescription(label),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionShowCount(),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
	)
}

func (b *BarObserver) Update(p downloader.Progress) {
	if b.bar == nil {
		return
	}
	_ = b.bar.Set64(p.Written)
}

func (b *BarObserver) Finish(p downloader.Progress, err error) {
	if b.bar == nil {
		return
	}
	if err != nil {
		_ = b.bar.Exit()
	} else {
		_ = b.bar.Finish()
	}
	b.bar = nil
}

// LogObserver logs the outcome of every transfer.
type LogObserver struct {
	Log *zap.SugaredLogger
}

func (l LogObserver) Start(label string, total int64) {
	l.Log.Debugw("Downloading", "mod", label, "size", Size(total))
}

func (LogObserver) Update(downloader.Progress) {}

func (l LogObserver) Finish(p downloader.Progress, err error) {
	if err != nil {
		l.Log.Errorw("Download failed", "mod", p.Label, "received", Size(p.Written), "expected", Size(p.Total), zap.Error(err))
		return
	}
	l.Log.Infow("Downloaded", "mod", p.Label, "size", Size(p.Written), "rate", Rate(p.BytesPerSecond),
		"elapsed", p.Elapsed.Round(time.Millisecond).String())
}
