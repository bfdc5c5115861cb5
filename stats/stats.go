// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stats accumulates run statistics on the driver goroutine and
// emits them as an ordered TSV table. Every counter here is the only
// global mutable state in the run; workers return pure results and
// never touch it directly.
package stats

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/kortschak/chopper/segment"
)

// Outcome is a per-read classification result.
type Outcome string

const (
	ClassifiedFull Outcome = "ClassifiedFull"
	Rescued        Outcome = "Rescued"
	Unclassified   Outcome = "Unclassified"
	LenFail        Outcome = "LenFail"
	QcFail         Outcome = "QcFail"
)

// orderedCounter is an insertion-ordered name to count mapping, the
// OrderedDict-semantics counters require for stable TSV row order.
type orderedCounter struct {
	keys []string
	n    map[string]int
}

func newOrderedCounter() orderedCounter {
	return orderedCounter{n: make(map[string]int)}
}

func (c *orderedCounter) add(key string, delta int) {
	if _, ok := c.n[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.n[key] += delta
}

// Stats accumulates the counters named in the Stats entity: classification
// outcome, per-strand totals, per-hit-count and per-segment-count
// histograms, the usable-length distribution, and per-primer-pair counts.
// All counters are monotonically increasing for the run's duration.
type Stats struct {
	outcome    orderedCounter
	strand     orderedCounter
	hitCount   orderedCounter
	segCount   orderedCounter
	usableLen  []int
	pairCounts orderedCounter
	totalReads int

	hitScores     []float64
	percentUsable []float64
}

// New returns an empty Stats accumulator.
func New() *Stats {
	return &Stats{
		outcome:    newOrderedCounter(),
		strand:     newOrderedCounter(),
		hitCount:   newOrderedCounter(),
		segCount:   newOrderedCounter(),
		pairCounts: newOrderedCounter(),
	}
}

// RecordOutcome increments the count for a read's classification.
func (s *Stats) RecordOutcome(o Outcome) {
	s.totalReads++
	s.outcome.add(string(o), 1)
}

// RecordStrand increments the per-strand total for a chosen segment.
func (s *Stats) RecordStrand(st segment.Strand) {
	s.strand.add(string(rune(st)), 1)
}

// RecordHitCount adds one observation to the per-read hit-count histogram.
func (s *Stats) RecordHitCount(n int) {
	s.hitCount.add(fmt.Sprint(n), 1)
}

// RecordSegmentCount adds one observation to the per-read segment-count
// histogram.
func (s *Stats) RecordSegmentCount(n int) {
	s.segCount.add(fmt.Sprint(n), 1)
}

// RecordUsableLength appends one observation to the usable-length
// distribution.
func (s *Stats) RecordUsableLength(n int) {
	s.usableLen = append(s.usableLen, n)
}

// RecordPair increments the count for the observed (a, b) primer pair,
// feeding the anomaly-detection pass.
func (s *Stats) RecordPair(a, b string) {
	s.pairCounts.add(a+"\t"+b, 1)
}

// UsableLengths returns the recorded usable-length distribution.
func (s *Stats) UsableLengths() []int {
	return s.usableLen
}

// RecordHitScore appends one observation to the raw primer-hit score
// distribution, the PercentUsable report page's counterpart for hits
// rather than reads.
func (s *Stats) RecordHitScore(v float64) {
	s.hitScores = append(s.hitScores, v)
}

// HitScores returns the recorded primer-hit score distribution.
func (s *Stats) HitScores() []float64 {
	return s.hitScores
}

// RecordPercentUsable appends one observation to the
// segment-length/read-length*100 distribution, cdna_classifier.py's
// PercentUsable histogram.
func (s *Stats) RecordPercentUsable(pct float64) {
	s.percentUsable = append(s.percentUsable, pct)
}

// PercentUsable returns the recorded percent-usable distribution.
func (s *Stats) PercentUsable() []float64 {
	return s.percentUsable
}

// StrandCounts returns the per-strand totals for chosen segments.
func (s *Stats) StrandCounts() map[string]int {
	out := make(map[string]int, len(s.strand.keys))
	for _, k := range s.strand.keys {
		out[k] = s.strand.n[k]
	}
	return out
}

// SegmentCounts returns the per-read segment-count histogram.
func (s *Stats) SegmentCounts() map[int]int {
	out := make(map[int]int, len(s.segCount.keys))
	for _, k := range s.segCount.keys {
		n, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out[n] = s.segCount.n[k]
	}
	return out
}

// RescuedSegmentCounts returns the segment-count histogram restricted
// to rescued reads (more than one chosen segment), cdna_classifier.py's
// RescueSegmentNr.
func (s *Stats) RescuedSegmentCounts() map[int]int {
	out := make(map[int]int)
	for n, count := range s.SegmentCounts() {
		if n > 1 {
			out[n] = count
		}
	}
	return out
}

// WriteTSV writes every counter as Category\tName\tValue rows, grouped
// by category, in first-observed order within each category.
func (s *Stats) WriteTSV(w io.Writer) error {
	groups := []struct {
		cat string
		c   orderedCounter
	}{
		{"Outcome", s.outcome},
		{"Strand", s.strand},
		{"HitCount", s.hitCount},
		{"SegmentCount", s.segCount},
		{"PrimerPair", s.pairCounts},
	}
	for _, g := range groups {
		for _, k := range g.c.keys {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%d\n", g.cat, k, g.c.n[k]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Anomaly is an observed two-primer hit combination not present in the
// run's Config, accounting for at least the reporting threshold of
// all reads.
type Anomaly struct {
	A, B    string
	Count   int
	Percent float64
}

// Anomalies returns every observed pair not present in cfg whose share
// of totalReads is at least thresholdPct (spec default 1.0), sorted by
// descending count for a stable, most-significant-first report.
func (s *Stats) Anomalies(cfg *segment.Config, thresholdPct float64) []Anomaly {
	if s.totalReads == 0 {
		return nil
	}
	var out []Anomaly
	for _, k := range s.pairCounts.keys {
		var a, b string
		for i := 0; i < len(k); i++ {
			if k[i] == '\t' {
				a, b = k[:i], k[i+1:]
				break
			}
		}
		if _, ok := cfg.Lookup(a, b); ok {
			continue
		}
		n := s.pairCounts.n[k]
		pct := 100 * float64(n) / float64(s.totalReads)
		if pct >= thresholdPct {
			out = append(out, Anomaly{A: a, B: b, Count: n, Percent: pct})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
