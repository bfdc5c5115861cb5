// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stats

import (
	"strings"
	"testing"

	"github.com/kortschak/chopper/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTSVOrder(t *testing.T) {
	s := New()
	s.RecordOutcome(ClassifiedFull)
	s.RecordOutcome(ClassifiedFull)
	s.RecordOutcome(Unclassified)
	s.RecordHitCount(2)
	s.RecordHitCount(2)
	s.RecordHitCount(0)

	var buf strings.Builder
	require.NoError(t, s.WriteTSV(&buf))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Outcome\tClassifiedFull\t2", lines[0])
	assert.Equal(t, "Outcome\tUnclassified\t1", lines[1])
	assert.Equal(t, "HitCount\t2\t2", lines[2])
	assert.Equal(t, "HitCount\t0\t1", lines[3])
}

func TestMonotonic(t *testing.T) {
	s := New()
	s.RecordOutcome(ClassifiedFull)
	s.RecordOutcome(ClassifiedFull)
	assert.Equal(t, 2, s.outcome.n["ClassifiedFull"])
}

func TestAnomalies(t *testing.T) {
	cfg := segment.NewConfig()
	cfg.Set("SSP", "-VNP", segment.Forward)

	s := New()
	for i := 0; i < 98; i++ {
		s.RecordOutcome(ClassifiedFull)
		s.RecordPair("SSP", "-VNP")
	}
	for i := 0; i < 2; i++ {
		s.RecordOutcome(ClassifiedFull)
		s.RecordPair("SSP", "SSP")
	}
	out := s.Anomalies(cfg, 1.0)
	require.Len(t, out, 1)
	assert.Equal(t, "SSP", out[0].A)
	assert.Equal(t, "SSP", out[0].B)
	assert.Equal(t, 2, out[0].Count)
}

func TestAnomaliesBelowThresholdDropped(t *testing.T) {
	cfg := segment.NewConfig()
	s := New()
	for i := 0; i < 1000; i++ {
		s.RecordOutcome(ClassifiedFull)
	}
	s.RecordPair("A", "B")
	out := s.Anomalies(cfg, 1.0)
	assert.Empty(t, out)
}

func TestReportAccessors(t *testing.T) {
	s := New()
	s.RecordStrand('+')
	s.RecordStrand('+')
	s.RecordStrand('-')
	s.RecordSegmentCount(0)
	s.RecordSegmentCount(1)
	s.RecordSegmentCount(2)
	s.RecordSegmentCount(2)
	s.RecordHitScore(0.01)
	s.RecordHitScore(0.2)
	s.RecordPercentUsable(87.5)

	assert.Equal(t, map[string]int{"+": 2, "-": 1}, s.StrandCounts())
	assert.Equal(t, map[int]int{0: 1, 1: 1, 2: 2}, s.SegmentCounts())
	assert.Equal(t, map[int]int{2: 2}, s.RescuedSegmentCounts())
	assert.Equal(t, []float64{0.01, 0.2}, s.HitScores())
	assert.Equal(t, []float64{87.5}, s.PercentUsable())
}
