// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hit defines the primer-hit record produced by both detection
// backends and the overlap reducer that sanitises raw hits before
// segmentation.
package hit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/biogo/store/interval"
)

// Hit is a single primer alignment to a read.
type Hit struct {
	Ref        string // read name
	RefStart   int    // half-open start on the read
	RefEnd     int    // half-open end on the read
	Query      string // primer name, "-" prefixed for reverse complement
	QueryStart int
	QueryEnd   int
	Score      float64 // lower is better
}

// Reverse reports whether h is a hit of a reverse complemented primer.
func (h Hit) Reverse() bool {
	return strings.HasPrefix(h.Query, "-")
}

// Reduce drops hits scoring worse than maxScore and collapses overlaps
// in one left-to-right scan: a hit that overlaps the last kept hit and
// scores strictly better replaces it; any other hit is appended.
//
// The result is ordered by (RefStart, RefEnd). Overlapping hits remain
// in it when the later one does not score strictly better. This is a
// cheap linear pre-pass, not an interval-scheduling-optimal reduction;
// the segmenter's dynamic program does the optimal selection.
func Reduce(hits []Hit, maxScore float64) []Hit {
	survivors := make([]Hit, 0, len(hits))
	for _, h := range hits {
		if h.Score <= maxScore {
			survivors = append(survivors, h)
		}
	}
	sort.Slice(survivors, func(i, j int) bool {
		if survivors[i].RefStart != survivors[j].RefStart {
			return survivors[i].RefStart < survivors[j].RefStart
		}
		return survivors[i].RefEnd < survivors[j].RefEnd
	})

	var out []Hit
	for _, h := range survivors {
		if len(out) == 0 {
			out = append(out, h)
			continue
		}
		last := &out[len(out)-1]
		if last.RefEnd > h.RefStart && h.Score < last.Score {
			*last = h
			continue
		}
		out = append(out, h)
	}
	return out
}

// ValidateReduced reports whether hits, as returned by Reduce, contains a
// hit that is fully dominated (contained, with a worse score) by another
// hit. It exists to assert the reducer's contract in tests; the reducer
// itself deliberately stays a linear scan rather than this interval-tree
// check.
func ValidateReduced(hits []Hit) error {
	var tree interval.IntTree
	for i, h := range hits {
		err := tree.Insert(refInterval{uid: uintptr(i), Hit: h}, true)
		if err != nil {
			return err
		}
	}
	tree.AdjustRanges()
	for _, h := range hits {
		for _, o := range tree.Get(refInterval{Hit: h}) {
			other := o.(refInterval)
			if other.RefStart == h.RefStart && other.RefEnd == h.RefEnd {
				continue
			}
			if other.Score < h.Score {
				return fmt.Errorf("hit: dominated hit survived reduction: %+v contained in %+v", h, other.Hit)
			}
		}
	}
	return nil
}

type refInterval struct {
	uid uintptr
	Hit
}

func (r refInterval) Overlap(b interval.IntRange) bool {
	return b.Start <= r.RefStart && r.RefEnd <= b.End
}
func (r refInterval) ID() uintptr { return r.uid }
func (r refInterval) Range() interval.IntRange {
	return interval.IntRange{Start: r.RefStart, End: r.RefEnd}
}
