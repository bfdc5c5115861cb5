// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package edscan implements the approximate, semi-global (HW-mode)
// edit-distance prefilter of backend B: for a primer and a read it
// finds the windows of the read at the smallest edit distance to the
// primer, when that distance is within a given budget. Exact
// boundaries and a normalised score are
// left to package swalign's refinement step.
//
// The row recurrence (diagonal/right/down) is the same one used for
// banded edit-distance computation elsewhere in the ecosystem,
// generalised here from a whole-string comparison to a semi-global
// search of one primer against one long read.
package edscan

import "github.com/kortschak/chopper/hit"

// Find returns the windows of read achieving the single minimum edit
// distance to primer, subject to the budget maxEd = floor(maxEdFrac *
// len(primer)), as raw Hit values with Score = ed / len(primer) and
// approximate boundaries. This mirrors edlib's HW-mode "locations"
// semantics (task="locations", k=maxEd): when a read contains two
// occurrences of the same primer at different edit distances, only
// the better-scoring occurrence is reported, never both. Adjacent
// qualifying end positions at that minimum are merged into one
// window, since a single true occurrence typically satisfies the
// threshold across a short run of end columns.
func Find(readName, read, primerName, primer string, maxEdFrac float64) []hit.Hit {
	m := len(primer)
	if m == 0 || len(read) == 0 {
		return nil
	}
	k := int(maxEdFrac * float64(m))
	n := len(read)

	prev := make([]int, n+1)
	curr := make([]int, n+1)
	// Row 0 is all zeros: the read is free to start anywhere, which is
	// what makes this a semi-global (infix) search rather than a full
	// alignment of primer against read.

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 1
			if primer[i-1] == read[j-1] {
				cost = 0
			}
			v := prev[j-1] + cost
			if d := prev[j] + 1; d < v {
				v = d
			}
			if r := curr[j-1] + 1; r < v {
				v = r
			}
			curr[j] = v
		}
		prev, curr = curr, prev
	}

	minEd := k + 1
	for j := 0; j <= n; j++ {
		if prev[j] < minEd {
			minEd = prev[j]
		}
	}
	if minEd > k {
		return nil
	}

	type end struct {
		j, ed int
	}
	var ends []end
	for j := 0; j <= n; j++ {
		if prev[j] == minEd {
			ends = append(ends, end{j: j, ed: prev[j]})
		}
	}

	var out []hit.Hit
	i := 0
	for i < len(ends) {
		j := i
		for j+1 < len(ends) && ends[j+1].j-ends[j].j <= 1 {
			j++
		}
		best := ends[i]
		refEnd := best.j
		refStart := refEnd - m - k
		if refStart < 0 {
			refStart = 0
		}
		out = append(out, hit.Hit{
			Ref:        readName,
			RefStart:   refStart,
			RefEnd:     refEnd,
			Query:      primerName,
			QueryStart: 0,
			QueryEnd:   m,
			Score:      float64(best.ed) / float64(m),
		})
		i = j + 1
	}
	return out
}
