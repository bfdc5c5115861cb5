// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package primer loads primer sequences and provides the reverse
// complement augmentation used by the hit-detection backends.
package primer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// Set is an insertion-ordered name to sequence mapping. It holds both
// the primers as read from the FASTA file and their reverse complements,
// keyed by "-name".
type Set struct {
	names []string
	seq   map[string]string
}

// Names returns the primer names in file order, including the
// synthesised "-name" reverse complement entries immediately after
// each forward entry.
func (s *Set) Names() []string {
	return s.names
}

// Seq returns the sequence for name, and whether it was found.
func (s *Set) Seq(name string) (string, bool) {
	q, ok := s.seq[name]
	return q, ok
}

// Load reads a FASTA file of primer sequences and returns a Set
// augmented with the reverse complement of every primer, named "-name".
//
// This is the only primer loading entry point; the historical
// load_primers variant is not implemented.
func Load(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("primer: %w", err)
	}
	defer f.Close()
	return load(f)
}

func load(r io.Reader) (*Set, error) {
	set := &Set{seq: make(map[string]string)}
	sc := seqio.NewScanner(fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNAredundant)))
	for sc.Next() {
		s := sc.Seq().(*linear.Seq)
		name := s.ID
		seq := string(s.Seq.Expand())
		set.add(name, seq)
		set.add("-"+name, RevComp(seq))
	}
	if err := sc.Error(); err != nil {
		return nil, fmt.Errorf("primer: %w", err)
	}
	if len(set.names) == 0 {
		return nil, fmt.Errorf("primer: no records in primer file")
	}
	set.warnNearDuplicates()
	return set, nil
}

func (s *Set) add(name, seq string) {
	if _, ok := s.seq[name]; !ok {
		s.names = append(s.names, name)
	}
	s.seq[name] = seq
}

// warnNearDuplicates flags forward primers that are within edit
// distance 2 of one another, a common sign of a misconfigured primer
// set; it does not fail the load.
func (s *Set) warnNearDuplicates() {
	var fwd []string
	for _, n := range s.names {
		if !strings.HasPrefix(n, "-") {
			fwd = append(fwd, n)
		}
	}
	for i := 0; i < len(fwd); i++ {
		for j := i + 1; j < len(fwd); j++ {
			d := matchr.Levenshtein(s.seq[fwd[i]], s.seq[fwd[j]])
			if d <= 2 {
				fmt.Fprintf(os.Stderr, "primer: warning: %s and %s differ by only %d edits\n", fwd[i], fwd[j], d)
			}
		}
	}
}

var complement = func() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = byte(i)
	}
	t['a'], t['A'] = 't', 'T'
	t['t'], t['T'] = 'a', 'A'
	t['c'], t['C'] = 'g', 'G'
	t['g'], t['G'] = 'c', 'C'
	t['n'], t['N'] = 'n', 'N'
	t['-'] = '-'
	return t
}()

// RevComp returns the reverse complement of s. Bases A/C/G/T are
// complemented in either case; N, X and - pass through unchanged;
// any other byte is passed through as-is.
func RevComp(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[len(s)-1-i]
		switch c {
		case 'a', 'A', 't', 'T', 'c', 'C', 'g', 'G', 'n', 'N', '-':
			b[i] = complement[c]
		default:
			b[i] = c
		}
	}
	return string(b)
}
