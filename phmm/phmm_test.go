// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package phmm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTabular(t *testing.T) {
	// col: 0=query 1=acc 2=ref 3=acc 4=qstart 5=qend 6=refstart 7=refend 8=envfrom 9=envto 10=sqlen 11=strand 12=evalue
	const tbl = "# comment\nSSP -  read1 -  0 19 10 29 0 0 0 + 0.001\n"
	hits, err := ParseTabular(strings.NewReader(tbl))
	require.NoError(t, err)
	require.Len(t, hits, 1)
	h := hits[0]
	assert.Equal(t, "SSP", h.Query)
	assert.Equal(t, "read1", h.Ref)
	assert.Equal(t, 0, h.QueryStart)
	assert.Equal(t, 20, h.QueryEnd)
	assert.Equal(t, 10, h.RefStart)
	assert.Equal(t, 30, h.RefEnd)
	assert.Equal(t, 0.001, h.Score)
}

func TestParseTabularRejectsShortLine(t *testing.T) {
	_, err := ParseTabular(strings.NewReader("too few fields\n"))
	assert.Error(t, err)
}

func TestGroupByRefPreservesMissingReads(t *testing.T) {
	order := []string{"read1", "read2"}
	g := groupByRef(nil, order)
	assert.Nil(t, g.For("read1"))
	assert.Nil(t, g.For("read2"))
	assert.Equal(t, order, g.Order())
}
