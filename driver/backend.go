// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"bytes"
	"fmt"

	"github.com/kortschak/chopper/edscan"
	"github.com/kortschak/chopper/fastx"
	"github.com/kortschak/chopper/hit"
	"github.com/kortschak/chopper/phmm"
	"github.com/kortschak/chopper/primer"
	"github.com/kortschak/chopper/swalign"
)

// Backend produces raw hits for a single read. Implementations must be
// safe to call concurrently from multiple worker goroutines once
// Prepare (if any) has returned for the read's batch.
type Backend interface {
	Hits(read fastx.Seq) ([]hit.Hit, error)
}

// BatchPreparer is implemented by backends that need to do batch-level
// work (profile-HMM's single subprocess invocation per batch) before
// Hits can be called for any read in that batch.
type BatchPreparer interface {
	Prepare(batch []fastx.Seq) error
}

// PhmmBackend wraps backend A: it scans a whole batch with one
// nhmmscan invocation and serves Hits from the parsed, per-read
// grouping.
type PhmmBackend struct {
	ModelFile string
	EValue    float64
	CPU       int

	groups *phmm.Groups
}

func (b *PhmmBackend) Prepare(batch []fastx.Seq) error {
	var buf bytes.Buffer
	order := make([]string, len(batch))
	for i, r := range batch {
		fmt.Fprintf(&buf, ">%s\n%s\n", r.Name, r.Seq)
		order[i] = r.Id
	}
	groups, err := phmm.Scan(&buf, b.ModelFile, b.EValue, b.CPU, order)
	if err != nil {
		return err
	}
	b.groups = groups
	return nil
}

func (b *PhmmBackend) Hits(read fastx.Seq) ([]hit.Hit, error) {
	return b.groups.For(read.Id), nil
}

// EdlibBackend wraps backend B: for each primer it runs the edscan
// prefilter then refines every candidate with swalign.
type EdlibBackend struct {
	Primers *primer.Set
	MaxEd   float64 // fraction of primer length
}

func (b *EdlibBackend) Hits(read fastx.Seq) ([]hit.Hit, error) {
	var out []hit.Hit
	for _, name := range b.Primers.Names() {
		seq, _ := b.Primers.Seq(name)
		for _, h := range edscan.Find(read.Id, read.Seq, name, seq, b.MaxEd) {
			out = append(out, swalign.Refine(h, read.Seq, seq))
		}
	}
	return out, nil
}
