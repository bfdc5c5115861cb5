// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config parses and serialises the primer-pair configuration
// string grammar used by the -c and -x CLI flags.
package config

import (
	"fmt"
	"strings"

	"github.com/kortschak/chopper/segment"
)

// Parse decodes a configuration string of the form
// "direction:A,B|direction:C,D|…" into a segment.Config. direction is
// "+" or "-"; primer names may carry a leading "-" denoting reverse
// complement.
func Parse(s string) (*segment.Config, error) {
	cfg := segment.NewConfig()
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("config: empty configuration string")
	}
	for _, tok := range strings.Split(s, "|") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		dir, pair, ok := strings.Cut(tok, ":")
		if !ok {
			return nil, fmt.Errorf("config: malformed token %q: missing direction", tok)
		}
		var strand segment.Strand
		switch dir {
		case "+":
			strand = segment.Forward
		case "-":
			strand = segment.Reverse
		default:
			return nil, fmt.Errorf("config: invalid direction %q in token %q", dir, tok)
		}
		a, b, ok := strings.Cut(pair, ",")
		if !ok {
			return nil, fmt.Errorf("config: malformed token %q: expected A,B", tok)
		}
		a, b = strings.TrimSpace(a), strings.TrimSpace(b)
		if a == "" || b == "" {
			return nil, fmt.Errorf("config: malformed token %q: empty primer name", tok)
		}
		cfg.Set(a, b, strand)
	}
	if len(cfg.Pairs()) == 0 {
		return nil, fmt.Errorf("config: no valid pairs parsed from %q", s)
	}
	return cfg, nil
}

// String serialises cfg back to the grammar Parse accepts, in
// insertion order.
func String(cfg *segment.Config) string {
	var b strings.Builder
	for i, k := range cfg.Pairs() {
		if i > 0 {
			b.WriteByte('|')
		}
		strand, _ := cfg.Lookup(k[0], k[1])
		fmt.Fprintf(&b, "%c:%s,%s", byte(strand), k[0], k[1])
	}
	return b.String()
}
