// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package phmm wraps the external nhmmscan profile-HMM search tool as
// a subprocess: one invocation per batch, FASTA on stdin, tabular hits
// on stdout. The command construction mirrors blast.Nucleic's
// buildarg-tagged struct.
package phmm

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"github.com/biogo/external"
	"github.com/kortschak/chopper/hit"
)

// Search builds the nhmmscan command line used to scan a batch of
// reads against a profile-HMM file.
type Search struct {
	Cmd string `buildarg:"{{if .}}{{.}}{{else}}nhmmscan{{end}}"` // nhmmscan

	EValue    float64 `buildarg:"{{if .}}-E{{split}}{{.}}{{end}}"`       // -E <f>
	CPU       int     `buildarg:"{{if .}}--cpu{{split}}{{.}}{{end}}"`    // --cpu <n>
	Watson    bool    `buildarg:"{{if .}}--watson{{end}}"`               // --watson
	NoTextW   bool    `buildarg:"{{if .}}--notextw{{end}}"`              // --notextw
	Max       bool    `buildarg:"{{if .}}--max{{end}}"`                  // --max
	TblOut    string  `buildarg:"{{if .}}--tblout{{split}}{{.}}{{end}}"` // --tblout <s>
	Output    string  `buildarg:"{{if .}}-o{{split}}{{.}}{{end}}"`       // -o <s>
	ModelFile string  `buildarg:"{{.}}"`                                 // <hmmfile>
	Input     string  `buildarg:"{{if .}}{{.}}{{else}}-{{end}}"`         // <seqfile> ("-" for stdin)
}

// BuildCommand constructs the exec.Cmd for s, matching blast.Nucleic's
// BuildCommand convention.
func (s Search) BuildCommand() (*exec.Cmd, error) {
	if s.ModelFile == "" {
		return nil, errors.New("phmm: missing model file")
	}
	cl := external.Must(external.Build(s))
	return exec.Command(cl[0], cl[1:]...), nil
}

// Scan runs nhmmscan over the batch FASTA in batchFasta (already
// formatted, one record per read) against modelFile, discards stdout
// to /dev/null for alignment text (--notextw/--tblout route the
// tabular output we parse to stdout instead), and returns the parsed
// hits grouped by read name in the order given by order, with reads
// absent from the tabular output yielded as an empty slice in Groups.
func Scan(batchFasta io.Reader, modelFile string, eValue float64, cpu int, order []string) (*Groups, error) {
	s := Search{
		EValue:    eValue,
		CPU:       cpu,
		Watson:    true,
		NoTextW:   true,
		Max:       true,
		TblOut:    "/dev/stdout",
		Output:    "/dev/null",
		ModelFile: modelFile,
		Input:     "-",
	}
	cmd, err := s.BuildCommand()
	if err != nil {
		return nil, err
	}
	cmd.Stdin = batchFasta
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("phmm: nhmmscan failed: %w: %s", err, stderr.String())
	}
	hits, err := ParseTabular(&stdout)
	if err != nil {
		return nil, fmt.Errorf("phmm: %w", err)
	}
	return groupByRef(hits, order), nil
}

// ParseTabular parses nhmmscan --tblout output into Hit records.
// Column mapping follows the tool's fixed-width tabular layout:
// Query=col[0], Ref=col[2], QueryStart=col[4], QueryEnd=col[5]+1,
// RefStart=col[6], RefEnd=col[7]+1, Score=col[12] (E-value).
func ParseTabular(r io.Reader) ([]hit.Hit, error) {
	const (
		colQuery = iota
		_
		colRef
		_
		colQueryStart
		colQueryEnd
		colRefStart
		colRefEnd
		_
		_
		_
		_
		colEValue
		minFields
	)

	var out []hit.Hit
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		f := bytes.Fields(line)
		if len(f) <= colEValue {
			return out, fmt.Errorf("phmm: unexpected number of fields: %q", line)
		}
		h := hit.Hit{
			Query: string(f[colQuery]),
			Ref:   string(f[colRef]),
		}
		var err error
		h.QueryStart, err = strconv.Atoi(string(f[colQueryStart]))
		if err != nil {
			return out, fmt.Errorf("phmm: error in line: %s: %w", line, err)
		}
		qend, err := strconv.Atoi(string(f[colQueryEnd]))
		if err != nil {
			return out, fmt.Errorf("phmm: error in line: %s: %w", line, err)
		}
		h.QueryEnd = qend + 1
		h.RefStart, err = strconv.Atoi(string(f[colRefStart]))
		if err != nil {
			return out, fmt.Errorf("phmm: error in line: %s: %w", line, err)
		}
		rend, err := strconv.Atoi(string(f[colRefEnd]))
		if err != nil {
			return out, fmt.Errorf("phmm: error in line: %s: %w", line, err)
		}
		h.RefEnd = rend + 1
		h.Score, err = strconv.ParseFloat(string(f[colEValue]), 64)
		if err != nil {
			return out, fmt.Errorf("phmm: error in line: %s: %w", line, err)
		}
		out = append(out, h)
	}
	return out, sc.Err()
}

// Groups is an insertion-ordered grouping of hits by read name, the
// OrderedDict-semantics the driver relies on so statistics and output
// stay in submission order.
type Groups struct {
	order []string
	by    map[string][]hit.Hit
}

// For returns the hits for ref, or nil if ref had no hits.
func (g *Groups) For(ref string) []hit.Hit {
	return g.by[ref]
}

// Order returns the read names in the order Scan was told to expect
// them.
func (g *Groups) Order() []string {
	return g.order
}

func groupByRef(hits []hit.Hit, order []string) *Groups {
	g := &Groups{order: order, by: make(map[string][]hit.Hit, len(order))}
	for _, name := range order {
		g.by[name] = nil
	}
	for _, h := range hits {
		g.by[h.Ref] = append(g.by[h.Ref], h)
	}
	return g
}
