package downloader

import "time"

// Progress is a snapshot of one transfer.
type Progress struct {
	Label   string
	Written int64
	Total   int64
	// BytesPerSecond is the current throughput, measured over the last
	// rateWindow chunks.
	BytesPerSecond float64
	Elapsed        time.Duration
}

// rateWindow is how many recent chunks the throughput is measured over.
const rateWindow = 8

type rateSample struct {
	at      time.Time
	written int64
}

// rateMeter computes throughput over a sliding window of samples.
type rateMeter struct {
	samples []rateSample
}

func newRateMeter(start time.Time) *rateMeter {
	return &rateMeter{samples: []rateSample{{at: start}}}
}

// add records the running byte count at t and returns the rate between the
// oldest and newest sample still in the window.
func (m *rateMeter) add(t time.Time, written int64) float64 {
	m.samples = append(m.samples, rateSample{at: t, written: written})
	if len(m.samples) > rateWindow+1 {
		m.samples = m.samples[len(m.samples)-rateWindow-1:]
	}
	first, last := m.samples[0], m.samples[len(m.samples)-1]
	secs := last.at.Sub(first.at).Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(last.written-first.written) / secs
}

// Fraction is Written/Total in [0,1].
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Written) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

// Observer receives progress for each transfer. Update is called once per
// chunk; Finish is called exactly once after Start, with the error if the
// transfer failed.
type Observer interface {
	Start(label string, total int64)
	Update(p Progress)
	Finish(p Progress, err error)
}

// NopObserver discards progress.
type NopObserver struct{}

func (NopObserver) Start(string, int64) {}
func (NopObserver) Update(Progress) {}
func (NopObserver) Finish(Progress, error) {}

// MultiObserver fans progress out to several observers.
type MultiObserver []Observer

func (m MultiObserver) Start(label string, total int64) {
	for _, o := range m {
		o.Start(label, total)
	}
}

func (m MultiObserver) Update(p Progress) {
	for _, o := range m {
		o.Update(p)
	}
}

func (m MultiObserver) Finish(p Progress, err error) {
	for _, o := range m {
		o.Finish(p, err)
	}
}
