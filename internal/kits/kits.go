// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kits loads the bundled sequencing-kit preset table: the
// named (profile-HMM, primer FASTA, Config string) triples the -k and
// -x flags select by name, the same "named configuration bundle" role
// ins's blastnModes map plays for BLAST parameter sets, but sourced
// from an embedded YAML document via viper so new kits don't require
// a recompile.
package kits

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/spf13/viper"
)

//go:embed kits.yaml
var bundled []byte

// Preset is one named kit: the bundled HMM/primer file pair and/or
// the protocol's primer-pair Config grammar string.
type Preset struct {
	Name    string `mapstructure:"name"`
	HMM     string `mapstructure:"hmm"`
	Primers string `mapstructure:"primers"`
	Config  string `mapstructure:"config"`
}

// Load parses the embedded kit table.
func Load() (map[string]Preset, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(bundled)); err != nil {
		return nil, fmt.Errorf("kits: %w", err)
	}
	var table struct {
		Presets []Preset `mapstructure:"presets"`
	}
	if err := v.Unmarshal(&table); err != nil {
		return nil, fmt.Errorf("kits: %w", err)
	}
	out := make(map[string]Preset, len(table.Presets))
	for _, p := range table.Presets {
		out[p.Name] = p
	}
	return out, nil
}
