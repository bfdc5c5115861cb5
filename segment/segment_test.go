// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package segment

import (
	"sort"
	"testing"

	"github.com/kortschak/chopper/fastx"
	"github.com/kortschak/chopper/hit"
	"github.com/kortschak/chopper/primer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullLengthConfig() *Config {
	c := NewConfig()
	c.Set("SSP", "-VNP", Forward)
	c.Set("VNP", "-SSP", Reverse)
	return c
}

func TestAnalyseSingleForward(t *testing.T) {
	hits := []hit.Hit{
		{Ref: "R", RefStart: 10, RefEnd: 30, Query: "SSP", Score: 0.01},
		{Ref: "R", RefStart: 970, RefEnd: 990, Query: "-VNP", Score: 0.01},
	}
	chosen, total := Analyse(hits, fullLengthConfig())
	require.Len(t, chosen, 1)
	s := chosen[0]
	assert.Equal(t, 30, s.Start)
	assert.Equal(t, 970, s.End)
	assert.Equal(t, Forward, s.Strand)
	assert.Equal(t, 940, s.Len)
	assert.Equal(t, 940, total)
}

func TestAnalyseConcatemerRescue(t *testing.T) {
	hits := []hit.Hit{
		{Ref: "R", RefStart: 0, RefEnd: 20, Query: "SSP", Score: 0.01},
		{Ref: "R", RefStart: 500, RefEnd: 520, Query: "-VNP", Score: 0.01},
		{Ref: "R", RefStart: 540, RefEnd: 560, Query: "SSP", Score: 0.01},
		{Ref: "R", RefStart: 1020, RefEnd: 1040, Query: "-VNP", Score: 0.01},
	}
	chosen, total := Analyse(hits, fullLengthConfig())
	require.Len(t, chosen, 2)
	sort.Slice(chosen, func(i, j int) bool { return chosen[i].Start < chosen[j].Start })
	assert.Equal(t, 20, chosen[0].Start)
	assert.Equal(t, 500, chosen[0].End)
	assert.Equal(t, 560, chosen[1].Start)
	assert.Equal(t, 1020, chosen[1].End)
	assert.Equal(t, 940, total)
}

func TestAnalyseOrphanHitNoSegments(t *testing.T) {
	hits := []hit.Hit{
		{Ref: "R", RefStart: 0, RefEnd: 20, Query: "SSP", Score: 0.01},
	}
	chosen, total := Analyse(hits, fullLengthConfig())
	assert.Nil(t, chosen)
	assert.Equal(t, 0, total)
}

func TestAnalyseSoundness(t *testing.T) {
	hits := []hit.Hit{
		{Ref: "R", RefStart: 0, RefEnd: 20, Query: "SSP", Score: 0.01},
		{Ref: "R", RefStart: 500, RefEnd: 520, Query: "-VNP", Score: 0.01},
		{Ref: "R", RefStart: 540, RefEnd: 560, Query: "SSP", Score: 0.01},
		{Ref: "R", RefStart: 1020, RefEnd: 1040, Query: "-VNP", Score: 0.01},
	}
	chosen, _ := Analyse(hits, fullLengthConfig())
	for _, s := range chosen {
		assert.Greater(t, s.Len, 0)
		assert.Contains(t, []Strand{Forward, Reverse}, s.Strand)
	}
}

func TestToReadsForward(t *testing.T) {
	read := fastx.Seq{Id: "R", Name: "R", Seq: "AAAACCCCGGGGTTTT"}
	segs := []Segment{{Left: 0, Start: 4, End: 12, Right: 16, Strand: Forward, Len: 8}}
	out := ToReads(read, segs, false)
	require.Len(t, out, 1)
	assert.Equal(t, "CCCCGGGG", out[0].Seq)
}

func TestToReadsReverseComplement(t *testing.T) {
	read := fastx.Seq{Id: "R", Name: "R", Seq: "AAAACCCCGGGGTTTT"}
	segs := []Segment{{Left: 0, Start: 0, End: 16, Right: 16, Strand: Reverse, Len: 16}}
	out := ToReads(read, segs, true)
	require.Len(t, out, 1)
	assert.Equal(t, primer.RevComp(read.Seq[0:16]), out[0].Seq)
}

func TestToReadsRescueTag(t *testing.T) {
	read := fastx.Seq{Id: "R", Name: "R", Seq: "AAAACCCCGGGGTTTTAAAACCCC"}
	segs := []Segment{
		{Left: 0, Start: 0, End: 8, Right: 8, Strand: Forward, Len: 8},
		{Left: 8, Start: 16, End: 24, Right: 24, Strand: Forward, Len: 8},
	}
	out := ToReads(read, segs, false)
	require.Len(t, out, 2)
	for _, o := range out {
		assert.Contains(t, o.Name, "rescue=1")
	}
}
