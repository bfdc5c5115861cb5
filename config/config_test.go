// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"testing"

	"github.com/kortschak/chopper/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBasic(t *testing.T) {
	cfg, err := Parse("+:SSP,-VNP|-:VNP,-SSP")
	require.NoError(t, err)
	s, ok := cfg.Lookup("SSP", "-VNP")
	require.True(t, ok)
	assert.Equal(t, segment.Forward, s)
	s, ok = cfg.Lookup("VNP", "-SSP")
	require.True(t, ok)
	assert.Equal(t, segment.Reverse, s)
}

func TestParseInvalidDirection(t *testing.T) {
	_, err := Parse("x:A,B")
	assert.Error(t, err)
}

func TestParseMalformedToken(t *testing.T) {
	_, err := Parse("+:A")
	assert.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse("")
	assert.Error(t, err)
}

func TestParserIdempotence(t *testing.T) {
	const orig = "+:SSP,-VNP|-:VNP,-SSP"
	cfg1, err := Parse(orig)
	require.NoError(t, err)
	cfg2, err := Parse(String(cfg1))
	require.NoError(t, err)
	assert.Equal(t, String(cfg1), String(cfg2))
}
