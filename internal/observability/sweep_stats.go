package observability

import (
	"sync/atomic"
	"time"
)

// SweepStats keeps in-process counters for the reminder runner's status
// endpoint.
type SweepStats struct {
	runs    atomic.Uint64
	errors  atomic.Uint64
	sent    atomic.Uint64
	failed  atomic.Uint64
	lastRun atomic.Int64 // unix nanos

	durationTotal atomic.Int64
	durationMax   atomic.Int64
}

func NewSweepStats() *SweepStats {
	return &SweepStats{}
}

func (s *SweepStats) Record(at time.Time, d time.Duration, sent, failed int, err error) {
	s.runs.Add(1)
	if err != nil {
		s.errors.Add(1)
	}
	s.sent.Add(uint64(sent))
	s.failed.Add(uint64(failed))
	s.lastRun.Store(at.UnixNano())

	ns := d.Nanoseconds()
	s.durationTotal.Add(ns)

	for {
		curr := s.durationMax.Load()
		if ns <= curr {
			return
		}
		if s.durationMax.CompareAndSwap(curr, ns) {
			return
		}
	}
}

type SweepStatsSnapshot struct {
	Runs            uint64     `json:"runs"`
	Errors          uint64     `json:"errors"`
	Sent            uint64     `json:"sent"`
	Failed          uint64     `json:"failed"`
	LastRunAt       *time.Time `json:"lastRunAt,omitempty"`
	AverageDuration string     `json:"averageDuration"`
	MaxDuration     string     `json:"maxDuration"`
}

func (s *SweepStats) Snapshot() SweepStatsSnapshot {
	runs := s.runs.Load()

	var avg time.Duration
	if runs > 0 {
		avg = time.Duration(s.durationTotal.Load() / int64(runs))
	}

	snap := SweepStatsSnapshot{
		Runs:            runs,
		Errors:          s.errors.Load(),
		Sent:            s.sent.Load(),
		Failed:          s.failed.Load(),
		AverageDuration: avg.String(),
		MaxDuration:     time.Duration(s.durationMax.Load()).String(),
	}

	if last := s.lastRun.Load(); last > 0 {
		t := time.Unix(0, last).UTC()
		snap.LastRunAt = &t
	}
	return snap
}
