// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBundled(t *testing.T) {
	table, err := Load()
	require.NoError(t, err)
	require.Contains(t, table, "DCS109")
	assert.Equal(t, "data/DCS109.hmm", table["DCS109"].HMM)
	assert.NotEmpty(t, table["DCS109"].Config)
}
