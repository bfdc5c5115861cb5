// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fastx streams FASTA/FASTQ records, applying an optional
// mean-quality filter and random subsampling. It is the sole sequence
// source for the driver; everything downstream operates on the
// resulting Seq values.
package fastx

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math/rand"
)

// Seq is a single read, with optional per-base quality.
type Seq struct {
	Id   string
	Name string
	Seq  string
	Qual string // empty when the source had no qualities
}

// HasQual reports whether s carries per-base qualities.
func (s Seq) HasQual() bool {
	return s.Qual != ""
}

// Support is the side-channel aggregator a Reader updates as it filters
// records; it mirrors the rfq_sup accumulator of the driver stats.
type Support struct {
	Total int
	Pass  int
}

// Options configures a Reader.
type Options struct {
	// Sample is the independent per-record emission probability. Zero
	// value 0 means "no subsampling" only when Rand is nil; set to 1 to
	// pass every record explicitly.
	Sample float64
	// MinQual is the minimum mean Phred quality for FASTQ records.
	// Records under this are dropped (but counted). Ignored for FASTA.
	MinQual float64
	// Rand supplies the subsampling random source; if nil, no
	// subsampling is done and Sample is ignored (treated as 1).
	Rand *rand.Rand
	// Support receives total/pass counts if non-nil.
	Support *Support
	// QualFailSink, if non-nil, receives every record dropped by the
	// MinQual filter, so the -S quality-failing output stays populated
	// instead of the records simply being counted and discarded.
	QualFailSink *Writer
}

// Reader streams Seq records from r, auto-detecting FASTA (records
// beginning '>') or FASTQ (records beginning '@') by the first byte of
// each header line.
type Reader struct {
	sc   *bufio.Scanner
	opt  Options
	line []byte
	eof  bool
}

// NewReader returns a Reader over r configured by opt.
func NewReader(r io.Reader, opt Options) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	rdr := &Reader{sc: sc, opt: opt}
	if rdr.sc.Scan() {
		rdr.line = append([]byte(nil), rdr.sc.Bytes()...)
	} else {
		rdr.eof = true
	}
	return rdr
}

// Next returns the next record passing the configured filters, or
// io.EOF when the stream is exhausted. Rejected records are still
// counted in opt.Support.
func (r *Reader) Next() (Seq, error) {
	for {
		s, err := r.next()
		if err != nil {
			return Seq{}, err
		}
		if r.opt.Support != nil {
			r.opt.Support.Total++
		}
		if s.HasQual() && r.opt.MinQual > 0 {
			if meanQual(s.Qual) < r.opt.MinQual {
				if r.opt.QualFailSink != nil {
					r.opt.QualFailSink.Write(s)
				}
				continue
			}
		}
		if r.opt.Rand != nil && r.opt.Sample < 1 {
			if r.opt.Rand.Float64() >= r.opt.Sample {
				continue
			}
		}
		if r.opt.Support != nil {
			r.opt.Support.Pass++
		}
		return s, nil
	}
}

func (r *Reader) next() (Seq, error) {
	for !r.eof && len(r.line) == 0 {
		r.advance()
	}
	if r.eof && len(r.line) == 0 {
		return Seq{}, io.EOF
	}
	switch r.line[0] {
	case '>':
		return r.readFasta()
	case '@':
		return r.readFastq()
	default:
		// Resynchronise on the next record start.
		r.advance()
		return r.next()
	}
}

func (r *Reader) advance() {
	if r.sc.Scan() {
		r.line = append(r.line[:0], r.sc.Bytes()...)
		return
	}
	r.eof = true
	r.line = r.line[:0]
}

func (r *Reader) readFasta() (Seq, error) {
	name := string(r.line[1:])
	var seq bytes.Buffer
	r.advance()
	for !r.eof && len(r.line) > 0 && r.line[0] != '>' && r.line[0] != '@' {
		seq.Write(r.line)
		r.advance()
	}
	return Seq{Id: id(name), Name: name, Seq: seq.String()}, nil
}

func (r *Reader) readFastq() (Seq, error) {
	name := string(r.line[1:])
	r.advance()
	var seq bytes.Buffer
	for !r.eof && len(r.line) > 0 && r.line[0] != '+' {
		seq.Write(r.line)
		r.advance()
	}
	if r.eof {
		// Truncated record: emit what we have as a FASTA-like record.
		return Seq{Id: id(name), Name: name, Seq: seq.String()}, nil
	}
	r.advance() // consume the '+' separator line
	var qual bytes.Buffer
	for qual.Len() < seq.Len() && !r.eof {
		qual.Write(r.line)
		r.advance()
	}
	if qual.Len() != seq.Len() {
		// Truncated quality line: fall back to FASTA semantics.
		return Seq{Id: id(name), Name: name, Seq: seq.String()}, nil
	}
	return Seq{Id: id(name), Name: name, Seq: seq.String(), Qual: qual.String()}, nil
}

func id(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == ' ' || name[i] == '\t' {
			return name[:i]
		}
	}
	return name
}

func meanQual(q string) float64 {
	if len(q) == 0 {
		return 0
	}
	var sum int
	for i := 0; i < len(q); i++ {
		sum += int(q[i]) - 33
	}
	return float64(sum) / float64(len(q))
}

// Writer writes Seq records as FASTA or FASTQ, chosen by whether the
// record carries qualities.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write emits s in FASTQ format if it has qualities, else FASTA.
func (w *Writer) Write(s Seq) error {
	var err error
	if s.HasQual() {
		_, err = fmt.Fprintf(w.w, "@%s\n%s\n+\n%s\n", s.Name, s.Seq, s.Qual)
	} else {
		_, err = fmt.Fprintf(w.w, ">%s\n%s\n", s.Name, s.Seq)
	}
	return err
}
