// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package edscan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindExactMatch(t *testing.T) {
	primer := "ACGTACGT"
	read := strings.Repeat("T", 20) + primer + strings.Repeat("A", 20)
	hits := Find("r", read, "SSP", primer, 0.2)
	require.Len(t, hits, 1)
	assert.Equal(t, 0.0, hits[0].Score)
	assert.LessOrEqual(t, hits[0].RefEnd, len(read))
}

func TestFindNoMatch(t *testing.T) {
	primer := "ACGTACGTACGTACGT"
	read := strings.Repeat("T", 60)
	hits := Find("r", read, "SSP", primer, 0.1)
	assert.Empty(t, hits)
}

func TestFindToleratesMismatch(t *testing.T) {
	primer := "ACGTACGTAC"
	mutated := "ACGTTCGTAC" // single substitution
	read := strings.Repeat("G", 10) + mutated + strings.Repeat("G", 10)
	hits := Find("r", read, "SSP", primer, 0.2)
	require.Len(t, hits, 1)
	assert.InDelta(t, 0.1, hits[0].Score, 1e-9)
}

func TestFindEmptyInputs(t *testing.T) {
	assert.Empty(t, Find("r", "", "SSP", "ACGT", 0.1))
	assert.Empty(t, Find("r", "ACGT", "SSP", "", 0.1))
}

// TestFindKeepsOnlyGlobalMinimum checks edlib HW-mode "locations"
// semantics: when a primer occurs twice in a read at different edit
// distances, only the better-scoring occurrence is reported.
func TestFindKeepsOnlyGlobalMinimum(t *testing.T) {
	primer := "ACGTACGTAC"
	exact := primer
	mutated := "ACGTTCGTAC" // single substitution, ed=1
	read := exact + strings.Repeat("G", 30) + mutated
	hits := Find("r", read, "SSP", primer, 0.3)
	require.Len(t, hits, 1)
	assert.Equal(t, 0.0, hits[0].Score)
	assert.Less(t, hits[0].RefEnd, len(exact)+15)
}
