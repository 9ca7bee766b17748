package main

import (
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Stats struct {
	Kernel      string
	SQEntries   uint32
	CQEntries   uint32
	Supported   []string
	Unsupported []string
	Rounds      int
	Failed      int
	Submitted   uint64
	Completions uint64
	Retries     uint64
	Bytes       uint64
	Elapsed     time.Duration
	Slowest     time.Duration
}

func (s *Stats) observe(d time.Duration) {
	if d > s.Slowest {
		s.Slowest = d
	}
}

func (s *Stats) print(w io.Writer) {
	p := message.NewPrinter(language.English)

	var avg time.Duration
	if s.Rounds > 0 {
		avg = s.Elapsed / time.Duration(s.Rounds)
	}
	var opsPerSec float64
	if secs := s.Elapsed.Seconds(); secs > 0 {
		opsPerSec = float64(s.Completions) / secs
	}

	p.Fprint(w, "\nRING REPORT\n")
	p.Fprintf(w, " Kernel:            %s\n", s.Kernel)
	p.Fprintf(w, " SQ/CQ entries:     %d/%d\n", s.SQEntries, s.CQEntries)
	p.Fprintf(w, " Supported ops:     %v\n", s.Supported)
	if len(s.Unsupported) > 0 {
		p.Fprintf(w, " Unsupported ops:   %v\n", s.Unsupported)
	}
	p.Fprintf(w, " Rounds:            %d (%d failed)\n", s.Rounds, s.Failed)
	p.Fprintf(w, " Submitted:         %s\n", humanize.Comma(int64(s.Submitted)))
	p.Fprintf(w, " Completions:       %s\n", humanize.Comma(int64(s.Completions)))
	p.Fprintf(w, " Slot retries:      %d\n", s.Retries)
	p.Fprintf(w, " Transferred:       %s\n", humanize.Bytes(s.Bytes))
	p.Fprintf(w, " Elapsed:           %s\n", s.Elapsed.Round(time.Microsecond))
	p.Fprintf(w, " Avg round:         %s\n", avg.Round(time.Microsecond))
	p.Fprintf(w, " Slowest round:     %s\n", s.Slowest.Round(time.Microsecond))
	p.Fprintf(w, " Completions/s:     %.0f\n", opsPerSec)
}
