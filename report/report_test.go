// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteProducesPDF(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, Tables{
		UsableLengths:  []float64{100, 200, 150, 940, 935},
		PercentUsable:  []float64{40, 85, 92},
		HitScores:      []float64{0.01, 0.02, 0.1},
		StrandCounts:   map[string]int{"+": 10, "-": 4},
		SegmentCounts:  map[int]int{1: 12, 2: 3},
		RescuedHistory: map[int]int{2: 3},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestWriteEmptyTablesIsNoop(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, Tables{})
	require.NoError(t, err)
	assert.Empty(t, buf.Bytes())
}
