// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package segment builds candidate cDNA segments from cleaned primer
// hits, selects a maximum-coverage non-overlapping subset by dynamic
// programming, and materialises the chosen segments as oriented read
// fragments.
package segment

import (
	"fmt"

	"github.com/kortschak/chopper/fastx"
	"github.com/kortschak/chopper/hit"
	"github.com/kortschak/chopper/primer"
)

// Strand is a read orientation.
type Strand byte

const (
	None    Strand = 0
	Forward Strand = '+'
	Reverse Strand = '-'
)

// Config is an insertion-ordered mapping from an ordered pair of primer
// names to the strand that pair implies.
type Config struct {
	keys   [][2]string
	strand map[[2]string]Strand
}

// NewConfig returns an empty Config.
func NewConfig() *Config {
	return &Config{strand: make(map[[2]string]Strand)}
}

// Set records that the ordered pair (a, b) implies strand s. It is a
// no-op if the pair is already present.
func (c *Config) Set(a, b string, s Strand) {
	k := [2]string{a, b}
	if _, ok := c.strand[k]; ok {
		return
	}
	c.keys = append(c.keys, k)
	c.strand[k] = s
}

// Lookup returns the strand implied by the ordered pair (a, b), and
// whether the pair is present.
func (c *Config) Lookup(a, b string) (Strand, bool) {
	s, ok := c.strand[[2]string{a, b}]
	return s, ok
}

// Pairs returns the configured pairs in insertion order.
func (c *Config) Pairs() [][2]string {
	return c.keys
}

// Segment is a candidate inter-hit span of a read.
type Segment struct {
	Left, Start, End, Right int
	Strand                  Strand
	Len                     int
}

// Analyse builds candidate segments from adjacent pairs of the ordered,
// cleaned hits h and selects a maximum-total-length, non-overlapping
// subset by a two-row dynamic program.
//
// It returns the chosen segments in traceback order (reverse of read
// position; callers must not assume they are position-sorted), and the
// DP's optimal total length.
func Analyse(hits []hit.Hit, cfg *Config) (chosen []Segment, total int) {
	n := len(hits)
	if n < 2 {
		return nil, 0
	}
	m := n - 1
	segs := make([]Segment, m)
	for i := 0; i < m; i++ {
		a, b := hits[i], hits[i+1]
		s := Segment{Left: a.RefStart, Start: a.RefEnd, End: b.RefStart, Right: b.RefEnd}
		if strand, ok := cfg.Lookup(a.Query, b.Query); ok {
			s.Strand = strand
			s.Len = s.End - s.Start
		}
		segs[i] = s
	}

	// M[state][j]; state 0 = excluded at j, 1 = included at j.
	// exclFrom[j] records which state at j-1 excl[j] was derived from,
	// so traceback can follow the actual optimal path rather than
	// re-deriving it from a local comparison.
	excl := make([]int, m)
	incl := make([]int, m)
	exclFrom := make([]int, m) // 0 or 1, meaningless at j==0
	incl[0] = segs[0].Len
	for j := 1; j < m; j++ {
		if excl[j-1] >= incl[j-1] {
			excl[j] = excl[j-1]
			exclFrom[j] = 0
		} else {
			excl[j] = incl[j-1]
			exclFrom[j] = 1
		}
		incl[j] = excl[j-1] + segs[j].Len
	}

	j := m - 1
	state := 0
	if incl[j] > excl[j] {
		state = 1
	}
	total = max(incl[j], excl[j])
	for j >= 0 {
		if state == 1 {
			if segs[j].Len > 0 {
				chosen = append(chosen, segs[j])
			}
			if j == 0 {
				break
			}
			j--
			state = 0 // an included segment forces excluded at j-1
			continue
		}
		if j == 0 {
			break
		}
		state = exclFrom[j]
		j--
	}
	return chosen, total
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ToReads materialises each of segs (all from the same parent read) as
// a new fastx.Seq, reverse complementing minus-strand segments.
// keepPrimers selects flanking-primer-inclusive boundaries
// (Left:Right) over the trimmed (Start:End) boundaries.
func ToReads(read fastx.Seq, segs []Segment, keepPrimers bool) []fastx.Seq {
	rescued := len(segs) > 1
	out := make([]fastx.Seq, 0, len(segs))
	for _, s := range segs {
		lo, hi := s.Start, s.End
		if keepPrimers {
			lo, hi = s.Left, s.Right
		}
		seq := read.Seq[lo:hi]
		var qual string
		if read.HasQual() {
			qual = read.Qual[lo:hi]
		}
		id := fmt.Sprintf("%d:%d|%s", lo, hi, read.Id)
		name := fmt.Sprintf("%s %s strand=%c", id, read.Name, byte(s.Strand))
		if rescued {
			name += " rescue=1"
		}
		if s.Strand == Reverse {
			seq = primer.RevComp(seq)
			qual = reverseString(qual)
		}
		out = append(out, fastx.Seq{Id: id, Name: name, Seq: seq, Qual: qual})
	}
	return out
}

func reverseString(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}
