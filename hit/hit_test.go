// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReduceDropsHighScore(t *testing.T) {
	hits := []Hit{
		{Ref: "r", RefStart: 0, RefEnd: 10, Query: "SSP", Score: 0.5},
		{Ref: "r", RefStart: 20, RefEnd: 30, Query: "VNP", Score: 0.01},
	}
	got := Reduce(hits, 0.1)
	assert.Equal(t, []Hit{hits[1]}, got)
}

func TestReduceCollapsesOverlap(t *testing.T) {
	hits := []Hit{
		{Ref: "r", RefStart: 0, RefEnd: 20, Query: "SSP", Score: 0.3},
		{Ref: "r", RefStart: 10, RefEnd: 30, Query: "SSP", Score: 0.1},
	}
	got := Reduce(hits, 1.0)
	assert.Equal(t, []Hit{{Ref: "r", RefStart: 10, RefEnd: 30, Query: "SSP", Score: 0.1}}, got)
}

func TestReduceTieBreakKeepsEarlier(t *testing.T) {
	hits := []Hit{
		{Ref: "r", RefStart: 0, RefEnd: 20, Query: "SSP", Score: 0.1},
		{Ref: "r", RefStart: 10, RefEnd: 30, Query: "SSP", Score: 0.1},
	}
	got := Reduce(hits, 1.0)
	assert.Equal(t, []Hit{hits[0]}, got)
}

func TestReduceMonotonicOrder(t *testing.T) {
	hits := []Hit{
		{Ref: "r", RefStart: 40, RefEnd: 50, Score: 0.1},
		{Ref: "r", RefStart: 0, RefEnd: 10, Score: 0.1},
		{Ref: "r", RefStart: 20, RefEnd: 30, Score: 0.1},
	}
	got := Reduce(hits, 1.0)
	for i := 1; i < len(got); i++ {
		a, b := got[i-1], got[i]
		assert.True(t, a.RefEnd <= b.RefStart || a.Score <= b.Score)
	}
	assert.NoError(t, ValidateReduced(got))
}

func TestReduceNoOverlapKeepsBoth(t *testing.T) {
	hits := []Hit{
		{Ref: "r", RefStart: 0, RefEnd: 10, Score: 0.2},
		{Ref: "r", RefStart: 10, RefEnd: 20, Score: 0.01},
	}
	got := Reduce(hits, 1.0)
	assert.Len(t, got, 2)
}
