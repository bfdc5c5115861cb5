// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package swalign implements the local-alignment refinement step of
// backend B: a Smith-Waterman alignment of a primer against the
// candidate window an edscan hit located, used to recompute an exact,
// comparable-to-HMM score and precise boundaries.
//
// No pack library exposes a CIGAR-producing local aligner, so this is
// hand-written, in the same spirit as the teacher's own hand-rolled
// algorithmic code (interval culling, binary key marshalling).
package swalign

import "github.com/kortschak/chopper/hit"

// Default scoring, matching the historical profile-HMM-comparable
// normalisation.
const (
	Match     = 1
	Mismatch  = -2
	GapOpen   = 1
	GapExtend = 1
)

// Op is a single CIGAR-style alignment operation.
type Op byte

const (
	OpMatch Op = 'M' // match or mismatch, consumes both sequences
	OpIns   Op = 'I' // insertion in query (primer) relative to ref
	OpDel   Op = 'D' // deletion in query relative to ref
)

// Alignment is the result of a local alignment of a primer (query)
// against a reference window.
type Alignment struct {
	Score int
	Ops   []Op // leading operation first

	StartQuery, EndQuery int // half-open, 0-based, into primer
	StartRef, EndRef     int // half-open, 0-based, into ref window
}

// Align computes the optimal local alignment of query (a primer)
// against ref (a candidate window of a read), using the package's
// default scoring.
func Align(query, ref string) Alignment {
	n, m := len(query), len(ref)
	if n == 0 || m == 0 {
		return Alignment{}
	}

	type cell struct {
		score int
		from  byte // 0 = stop, 'M', 'I', 'D'
	}
	rows := make([][]cell, n+1)
	for i := range rows {
		rows[i] = make([]cell, m+1)
	}

	best := cell{}
	var bi, bj int
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			s := Mismatch
			if query[i-1] == ref[j-1] {
				s = Match
			}
			diag := rows[i-1][j-1].score + s
			up := rows[i-1][j].score - GapExtend // query consumed, ref not: insertion
			left := rows[i][j-1].score - GapExtend

			c := cell{}
			switch {
			case diag >= up && diag >= left && diag > 0:
				c = cell{diag, 'M'}
			case up >= left && up > 0:
				c = cell{up, 'I'}
			case left > 0:
				c = cell{left, 'D'}
			default:
				c = cell{0, 0}
			}
			rows[i][j] = c
			if c.score > best.score {
				best = c
				bi, bj = i, j
			}
		}
	}
	if best.score <= 0 {
		return Alignment{}
	}

	var ops []Op
	i, j := bi, bj
	for i > 0 && j > 0 && rows[i][j].from != 0 {
		switch rows[i][j].from {
		case 'M':
			ops = append(ops, OpMatch)
			i--
			j--
		case 'I':
			ops = append(ops, OpIns)
			i--
		case 'D':
			ops = append(ops, OpDel)
			j--
		}
	}
	// reverse ops into read order
	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}

	return Alignment{
		Score:      best.score,
		Ops:        ops,
		StartQuery: i,
		EndQuery:   bi,
		StartRef:   j,
		EndRef:     bj,
	}
}

// Refine recomputes h's score and boundaries by aligning primerSeq
// against read[h.RefStart:h.RefEnd], following the boundary-adjustment
// rule: if the alignment's first operation is an insertion, QueryStart
// shifts by its run length; if a deletion, RefStart shifts.
//
// normScore = (Match*len(primerSeq) - aln.Score) / (Match*len(primerSeq)),
// so 0 is a perfect match and larger is worse, comparable in direction
// to an E-value.
func Refine(h hit.Hit, read, primerSeq string) hit.Hit {
	lo, hi := h.RefStart, h.RefEnd
	if lo < 0 {
		lo = 0
	}
	if hi > len(read) {
		hi = len(read)
	}
	if lo >= hi {
		return h
	}
	window := read[lo:hi]
	aln := Align(primerSeq, window)
	if len(aln.Ops) == 0 {
		return h
	}

	refStart := lo + aln.StartRef
	queryStart := aln.StartQuery
	if len(aln.Ops) > 0 {
		switch aln.Ops[0] {
		case OpIns:
			queryStart += runLength(aln.Ops, OpIns)
		case OpDel:
			refStart += runLength(aln.Ops, OpDel)
		}
	}

	out := h
	out.RefStart = refStart
	out.RefEnd = lo + aln.EndRef
	out.QueryStart = queryStart
	out.QueryEnd = aln.EndQuery
	maxScore := Match * len(primerSeq)
	out.Score = float64(maxScore-aln.Score) / float64(maxScore)
	return out
}

func runLength(ops []Op, op Op) int {
	n := 0
	for _, o := range ops {
		if o != op {
			break
		}
		n++
	}
	return n
}
