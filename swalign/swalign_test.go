// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package swalign

import (
	"testing"

	"github.com/kortschak/chopper/hit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignExactMatch(t *testing.T) {
	aln := Align("ACGTACGT", "TTTACGTACGTTTT")
	require.NotEmpty(t, aln.Ops)
	assert.Equal(t, Match*8, aln.Score)
	assert.Equal(t, 3, aln.StartRef)
	assert.Equal(t, 11, aln.EndRef)
}

func TestAlignNoHomology(t *testing.T) {
	aln := Align("AAAAAAAA", "TTTTTTTT")
	assert.Empty(t, aln.Ops)
	assert.Equal(t, 0, aln.Score)
}

func TestRefineRecomputesScore(t *testing.T) {
	primer := "ACGTACGT"
	read := "TTT" + primer + "TTT"
	h := hit.Hit{Ref: "r", RefStart: 0, RefEnd: len(read), Query: "SSP", Score: 1}
	out := Refine(h, read, primer)
	assert.InDelta(t, 0, out.Score, 1e-9)
	assert.Equal(t, 3, out.RefStart)
	assert.Equal(t, 3+len(primer), out.RefEnd)
}
