// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cli

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kortschak/chopper/driver"
)

func TestNewRootCmdFlags(t *testing.T) {
	cmd := NewRootCmd("test")
	for _, name := range []string{"b", "g", "c", "k", "x", "q", "Q", "z", "Y", "L", "m", "p", "t", "B", "r", "u", "l", "w", "S", "K", "A", "D"} {
		f := cmd.Flags().Lookup(name)
		require.NotNilf(t, f, "flag %q not registered", name)
	}
}

func TestNewBackendRejectsUnknown(t *testing.T) {
	_, _, _, err := newBackend(options{backendName: "bogus"}, "", "")
	assert.Error(t, err)
}

func TestNewBackendRequiresModelFile(t *testing.T) {
	_, _, _, err := newBackend(options{backendName: "phmm"}, "", "")
	assert.Error(t, err)
}

func TestNewBackendCandidateRanges(t *testing.T) {
	_, lo, hi, err := newBackend(options{backendName: "phmm"}, "", "model.hmm")
	require.NoError(t, err)
	assert.Equal(t, 1e-5, lo)
	assert.Equal(t, 5.0, hi)
}

func TestNewBackendEdlibScalesMaxEdWithCandidate(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/primers.fasta"
	require.NoError(t, os.WriteFile(path, []byte(">SSP\nACGTACGTACGT\n"), 0o644))

	build, lo, hi, err := newBackend(options{backendName: "edlib"}, path, "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)

	b0 := build(0).(*driver.EdlibBackend)
	b1 := build(0.5).(*driver.EdlibBackend)
	assert.Equal(t, 0.0, b0.MaxEd)
	assert.InDelta(t, 0.6, b1.MaxEd, 1e-9)
}

func TestCountRecordsFastq(t *testing.T) {
	data := []byte("@r1\nACGT\n+\nIIII\n@r2\nACGT\n+\nIIII\n")
	assert.Equal(t, 2, countRecords(data))
}

func TestCountRecordsFasta(t *testing.T) {
	data := []byte(">r1\nACGT\n>r2\nACGT\n")
	assert.Equal(t, 2, countRecords(data))
}

func TestBernoulliSampleScalesWithTargetSize(t *testing.T) {
	var buf strings.Builder
	for i := 0; i < 500; i++ {
		fmt.Fprintf(&buf, "@r%d\nACGTACGTAC\n+\nIIIIIIIIII\n", i)
	}
	sample, err := bernoulliSample([]byte(buf.String()), options{sampleSize: 50})
	require.NoError(t, err)
	// Bernoulli sampling is probabilistic; assert the order of
	// magnitude rather than an exact count.
	assert.InDelta(t, 50, len(sample), 35)
}
