package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"cfmods/downloader"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0B"},
		{999, "999B"},
		{65000, "65kB"},
		{2_000_000, "2MB"},
		{-1, "?"},
	}
	for _, tt := range tests {
		if got := Size(tt.in); got != tt.want {
			t.Errorf("Size(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRate(t *testing.T) {
	assert.Equal(t, "-", Rate(0))
	assert.Equal(t, "1.5MB/s", Rate(1_500_000))
}

func TestAgo(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "never", Ago(time.Time{}, now))
	assert.Equal(t, "3 hours ago", Ago(now.Add(-3*time.Hour), now))
}

func TestLoader(t *testing.T) {
	assert.Contains(t, Loader("forge"), "forge")
	assert.Equal(t, "quilt", Loader("quilt"))
}

func TestBarObserverWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	b := NewBarObserver(&buf)

	b.Start("jei", 100)
	b.Update(downloader.Progress{Label: "jei", Written: 50, Total: 100})
	b.Finish(downloader.Progress{Label: "jei", Written: 100, Total: 100}, nil)

	assert.NotEmpty(t, buf.String())
	assert.Nil(t, b.bar)

	// Calls without Start are ignored.
	b.Update(downloader.Progress{Written: 1})
	b.Finish(downloader.Progress{}, errors.New("boom"))
}

func TestLogObserver(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := LogObserver{Log: zap.New(core).Sugar()}

	l.Start("jei", 10)
	l.Finish(downloader.Progress{Label: "jei", Written: 10, Total: 10}, nil)
	l.Finish(downloader.Progress{Label: "jei", Written: 3, Total: 10}, errors.New("short"))

	entries := logs.All()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, "Downloading", entries[0].Message)
		assert.Equal(t, "Downloaded", entries[1].Message)
		assert.Equal(t, "Download failed", entries[2].Message)
	}
}
