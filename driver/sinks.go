// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/kortschak/chopper/fastx"
	"github.com/kortschak/chopper/hit"
	"github.com/kortschak/chopper/segment"
)

// bedWriter writes the alignment-hit BED sink:
// read_name\tRefStart\tRefEnd\tprimer\tq\tstrand.
type bedWriter struct {
	w io.Writer
}

// NewBEDWriter returns a bedWriter over w.
func NewBEDWriter(w io.Writer) *bedWriter {
	return &bedWriter{w: w}
}

func writeBED(w *bedWriter, read string, hits []hit.Hit) {
	if w == nil {
		return
	}
	for _, h := range hits {
		q := clampQual(-10 * math.Log10(maxFloat(h.Score, 1e-300)))
		strand := '+'
		if strings.HasPrefix(h.Query, "-") {
			strand = '-'
		}
		fmt.Fprintf(w.w, "%s\t%d\t%d\t%s\t%d\t%c\n", read, h.RefStart, h.RefEnd, h.Query, q, strand)
	}
}

func clampQual(q float64) int {
	n := int(math.Round(q))
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// perReadWriter writes the per-read TSV sink:
// Read\tLength\tStatus\tStart\tEnd\tStrand.
type perReadWriter struct {
	w io.Writer
}

// NewPerReadWriter returns a perReadWriter over w.
func NewPerReadWriter(w io.Writer) *perReadWriter {
	return &perReadWriter{w: w}
}

func writePerRead(w *perReadWriter, read fastx.Seq, segs []segment.Segment) {
	if w == nil {
		return
	}
	if len(segs) == 0 {
		fmt.Fprintf(w.w, "%s\t%d\tUnclassified\t-\t-\t-\n", read.Id, len(read.Seq))
		return
	}
	for _, s := range SortSegmentsByStart(segs) {
		status := "ClassifiedFull"
		if len(segs) > 1 {
			status = "Rescued"
		}
		fmt.Fprintf(w.w, "%s\t%d\t%s\t%d\t%d\t%c\n", read.Id, s.Len, status, s.Start, s.End, byte(s.Strand))
	}
}
