// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package driver orchestrates the batched, parallel read pipeline:
// autotuning a detection cutoff on a sample, then running the full
// stream through a worker pool that preserves input order, with
// statistics accumulated only on the driver goroutine.
package driver

import (
	"fmt"
	"io"
	"log"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/kortschak/chopper/fastx"
	"github.com/kortschak/chopper/hit"
	"github.com/kortschak/chopper/segment"
	"github.com/kortschak/chopper/stats"
)

// Sinks bundles the optional output writers the spec names. Any may be
// nil, meaning that output is discarded.
type Sinks struct {
	Main         *fastx.Writer // trimmed, oriented fragments
	Unclassified *fastx.Writer
	LenFail      *fastx.Writer
	Rescued      *fastx.Writer
	BED          *bedWriter
	PerRead      *perReadWriter
}

// Source produces Seq records, the contract *fastx.Reader satisfies.
// Run accepts this interface rather than the concrete type so a caller
// can replay an already-consumed autotune sample ahead of the rest of
// the stream.
type Source interface {
	Next() (fastx.Seq, error)
}

// Options configures Run.
type Options struct {
	Backend     Backend
	Config      *segment.Config
	MaxScore    float64
	MinSegLen   int
	KeepPrimers bool
	Workers     int
	BatchSize   int
	// Audit, if non-nil, receives every raw hit surviving Reduce, for
	// post-run inspection of classification decisions. A nil Audit is
	// the common case and costs nothing.
	Audit HitAuditor
}

// HitAuditor receives each read's hits after hit.Reduce, the contract
// *auditstore.Store satisfies. It lets the driver stay independent of
// the audit store's on-disk representation.
type HitAuditor interface {
	Put(hit.Hit) error
}

// result is the pure per-read work unit's output, tagged with its
// submission index so the pool can reassemble it in order.
type result struct {
	idx   int
	read  fastx.Seq
	hits  []hit.Hit
	segs  []segment.Segment
	total int
	err   error
}

// process is the pure per-read work unit: (read) -> (segments, hits,
// usable_len). It shares no mutable state with other calls.
func process(read fastx.Seq, opt Options) result {
	raw, err := opt.Backend.Hits(read)
	if err != nil {
		return result{read: read, err: err}
	}
	reduced := hit.Reduce(raw, opt.MaxScore)
	segs, total := segment.Analyse(reduced, opt.Config)
	return result{read: read, hits: reduced, segs: segs, total: total}
}

// runBatch splits batch into at most opt.Workers contiguous chunks,
// processes each chunk's reads concurrently, and returns results
// ordered exactly as batch was.
func runBatch(batch []fastx.Seq, opt Options) ([]result, error) {
	if prep, ok := opt.Backend.(BatchPreparer); ok {
		if err := prep.Prepare(batch); err != nil {
			return nil, fmt.Errorf("driver: batch preparation failed: %w", err)
		}
	}

	n := len(batch)
	if n == 0 {
		return nil, nil
	}
	workers := opt.Workers
	if workers < 1 {
		workers = 1
	}
	chunk := (n + workers - 1) / workers
	if chunk < 1 {
		chunk = 1
	}

	out := make([]result, n)
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				r := process(batch[i], opt)
				r.idx = i
				out[i] = r
			}
		}(start, end)
	}
	wg.Wait()
	return out, nil
}

// Run drains every record from r through opt's backend and DP
// pipeline, routing output to sinks and accumulating st. It returns
// after the reader is exhausted.
func Run(r Source, opt Options, sinks Sinks, st *stats.Stats) error {
	batchSize := opt.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}
	for {
		batch, err := nextBatch(r, batchSize)
		if err == io.EOF {
			err = nil
		}
		if len(batch) == 0 {
			return err
		}
		results, rerr := runBatch(batch, opt)
		if rerr != nil {
			return rerr
		}
		for _, res := range results {
			if res.err != nil {
				return fmt.Errorf("driver: worker failed on read %q: %w", res.read.Id, res.err)
			}
			emit(res, opt, sinks, st)
		}
		if err != nil {
			return err
		}
	}
}

func nextBatch(r Source, n int) ([]fastx.Seq, error) {
	batch := make([]fastx.Seq, 0, n)
	for i := 0; i < n; i++ {
		s, err := r.Next()
		if err != nil {
			return batch, err
		}
		batch = append(batch, s)
	}
	return batch, nil
}

func emit(res result, opt Options, sinks Sinks, st *stats.Stats) {
	st.RecordHitCount(len(res.hits))
	st.RecordSegmentCount(len(res.segs))
	for i := 0; i+1 < len(res.hits); i++ {
		st.RecordPair(res.hits[i].Query, res.hits[i+1].Query)
	}
	writeBED(sinks.BED, res.read.Id, res.hits)
	for _, h := range res.hits {
		st.RecordHitScore(h.Score)
	}
	if opt.Audit != nil {
		for _, h := range res.hits {
			if err := opt.Audit.Put(h); err != nil {
				log.Printf("driver: audit store: %v", err)
			}
		}
	}

	if len(res.segs) == 0 {
		st.RecordOutcome(stats.Unclassified)
		if sinks.Unclassified != nil {
			sinks.Unclassified.Write(res.read)
		}
		writePerRead(sinks.PerRead, res.read, nil)
		return
	}

	reads := segment.ToReads(res.read, res.segs, opt.KeepPrimers)
	rescued := len(reads) > 1
	if n := len(res.read.Seq); n > 0 {
		st.RecordPercentUsable(100 * float64(res.total) / float64(n))
	}
	for i, frag := range reads {
		seg := res.segs[i]
		st.RecordStrand(seg.Strand)
		st.RecordUsableLength(seg.Len)
		if seg.Len < opt.MinSegLen {
			st.RecordOutcome(stats.LenFail)
			if sinks.LenFail != nil {
				sinks.LenFail.Write(frag)
			}
			continue
		}
		if rescued {
			st.RecordOutcome(stats.Rescued)
			if sinks.Rescued != nil {
				sinks.Rescued.Write(frag)
			}
		} else {
			st.RecordOutcome(stats.ClassifiedFull)
		}
		if sinks.Main != nil {
			sinks.Main.Write(frag)
		}
	}
	writePerRead(sinks.PerRead, res.read, res.segs)
}

// AutotuneResult is the winning cutoff and whether the search range
// was saturated (an unsafe, boundary-pinned optimum).
type AutotuneResult struct {
	Cutoff    float64
	Saturated bool
}

// Autotune runs the full pipeline over sample for each of candidates
// and returns the cutoff maximising total classified bases (reads
// yielding exactly one usable segment). newBackend builds the Backend
// to use for candidate q; a backend whose only q-dependent behaviour
// is the post-hoc score reducer (phmm, via Options.MaxScore) may
// return the same instance every call, but a backend whose internal
// search width itself depends on q (edlib's max_ed = 1.2·q) must
// rebuild itself for each call.
func Autotune(sample []fastx.Seq, newBackend func(q float64) Backend, cfg *segment.Config, candidates []float64, minSegLen int) AutotuneResult {
	best := -1
	bestLen := -1
	for ci, q := range candidates {
		backend := newBackend(q)
		if prep, ok := backend.(BatchPreparer); ok {
			if err := prep.Prepare(sample); err != nil {
				continue
			}
		}
		var clsLen int
		for _, read := range sample {
			opt := Options{Backend: backend, Config: cfg, MaxScore: q, MinSegLen: minSegLen}
			res := process(read, opt)
			if res.err != nil {
				continue
			}
			usable := 0
			n := 0
			for _, s := range res.segs {
				if s.Len > 0 {
					n++
					usable = s.Len
				}
			}
			if n == 1 {
				clsLen += usable
			}
		}
		if clsLen > bestLen {
			bestLen = clsLen
			best = ci
		}
	}
	if best < 0 {
		best = 0
	}
	return AutotuneResult{Cutoff: candidates[best], Saturated: best == len(candidates)-1}
}

// Candidates returns L evenly spaced cutoffs in [lo, hi], the
// "linspace" construction used for both backend's candidate sweeps.
func Candidates(lo, hi float64, l int) []float64 {
	if l < 1 {
		return nil
	}
	if l == 1 {
		return []float64{lo}
	}
	dst := make([]float64, l)
	return floats.Span(dst, lo, hi)
}

// SortSegmentsByStart orders chosen segments by Start position; the
// segmenter itself returns them in traceback (reverse) order, which
// the per-read TSV output needs sorted for readability.
func SortSegmentsByStart(segs []segment.Segment) []segment.Segment {
	out := append([]segment.Segment(nil), segs...)
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
