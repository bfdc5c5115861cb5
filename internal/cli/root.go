// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cli wires chopper's cobra command surface to the primer
// store, the two detection backends, the segmenter, and the parallel
// driver.
package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	kgzip "github.com/klauspost/compress/gzip"
	"github.com/klauspost/pgzip"
	"github.com/spf13/cobra"

	"github.com/kortschak/chopper/config"
	"github.com/kortschak/chopper/driver"
	"github.com/kortschak/chopper/fastx"
	"github.com/kortschak/chopper/internal/auditstore"
	"github.com/kortschak/chopper/internal/kits"
	"github.com/kortschak/chopper/primer"
	"github.com/kortschak/chopper/report"
	"github.com/kortschak/chopper/stats"
)

// options holds every bound CLI flag, named after the spec.md §6
// letters they implement.
type options struct {
	input  string
	output string

	primerPath string
	hmmPath    string
	cfgString  string
	kit        string
	preset     string

	cutoff      float64
	hasCutoff   bool
	minQual     float64
	minSegLen   int
	sampleSize  float64
	numCandid   int
	backendName string
	keepPrimers bool

	workers   int
	batchSize int

	unclassifiedPath string
	lenFailPath      string
	rescuedPath      string
	qualFailPath     string
	bedPath          string
	perReadPath      string
	statsPath        string
	reportPath       string
	auditPath        string

	verbose bool
}

// Execute builds and runs the chopper root command.
func Execute(version string) error {
	return NewRootCmd(version).Execute()
}

// NewRootCmd returns the chopper cdna_classifier root command.
func NewRootCmd(version string) *cobra.Command {
	var opt options

	cmd := &cobra.Command{
		Use:     "chopper",
		Short:   "Identify, orient and trim cDNA sequencing reads by primer content",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			opt.hasCutoff = cmd.Flags().Changed("q")
			return run(opt)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opt.input, "input", "i", "-", "input FASTA/FASTQ path, \"-\" for stdin")
	f.StringVarP(&opt.output, "output", "o", "-", "trimmed, oriented output path, \"-\" for stdout")

	f.StringVarP(&opt.primerPath, "b", "b", "", "primer FASTA")
	f.StringVarP(&opt.hmmPath, "g", "g", "", "profile-HMM file")
	f.StringVarP(&opt.cfgString, "c", "c", "", "primer-pair config string")
	f.StringVarP(&opt.kit, "k", "k", "", "bundled kit name selecting (HMM, primer FASTA) when -b/-g unset")
	f.StringVarP(&opt.preset, "x", "x", "", "protocol preset overriding -c")

	f.Float64VarP(&opt.cutoff, "q", "q", 0, "score cutoff (autotuned when absent)")
	f.Float64VarP(&opt.minQual, "Q", "Q", 7.0, "minimum mean read quality")
	f.IntVarP(&opt.minSegLen, "z", "z", 50, "minimum usable segment length")
	f.Float64VarP(&opt.sampleSize, "Y", "Y", 1000, "target autotune sample size (records); sampling probability is min(1, Y/N)")
	f.IntVarP(&opt.numCandid, "L", "L", 20, "number of autotune candidate cutoffs")
	f.StringVarP(&opt.backendName, "m", "m", "phmm", "detection backend: phmm or edlib")
	f.BoolVarP(&opt.keepPrimers, "p", "p", false, "keep flanking primers in emitted fragments")

	f.IntVarP(&opt.workers, "t", "t", runtime.NumCPU(), "worker goroutines")
	f.IntVarP(&opt.batchSize, "B", "B", 1000, "reads per batch")

	f.StringVarP(&opt.reportPath, "r", "r", "", "PDF report path")
	f.StringVarP(&opt.unclassifiedPath, "u", "u", "", "unclassified reads path")
	f.StringVarP(&opt.lenFailPath, "l", "l", "", "length-failing fragments path")
	f.StringVarP(&opt.rescuedPath, "w", "w", "", "rescued fragments path")
	f.StringVarP(&opt.qualFailPath, "S", "S", "", "quality-failing reads path")
	f.StringVarP(&opt.bedPath, "K", "K", "", "alignment-hit BED path")
	f.StringVarP(&opt.perReadPath, "A", "A", "", "per-read TSV path")
	f.StringVarP(&opt.statsPath, "D", "D", "", "statistics TSV path")

	f.StringVar(&opt.auditPath, "audit", "", "optional on-disk store of every raw hit, for post-run inspection")
	f.BoolVarP(&opt.verbose, "verbose", "v", false, "write log messages (autotune range warning, anomalies) to stderr")

	cmd.MarkFlagsMutuallyExclusive("x", "c")

	return cmd
}

func run(opt options) error {
	if !opt.verbose {
		log.SetOutput(io.Discard)
	}

	cfgString := opt.cfgString
	primerPath := opt.primerPath
	hmmPath := opt.hmmPath

	if opt.kit != "" || opt.preset != "" {
		table, err := kits.Load()
		if err != nil {
			return err
		}
		name := opt.kit
		if opt.preset != "" {
			name = opt.preset
		}
		p, ok := table[name]
		if !ok {
			return fmt.Errorf("chopper: unknown kit/preset %q", name)
		}
		if primerPath == "" {
			primerPath = p.Primers
		}
		if hmmPath == "" {
			hmmPath = p.HMM
		}
		if opt.preset != "" || cfgString == "" {
			cfgString = p.Config
		}
	}
	if cfgString == "" {
		return fmt.Errorf("chopper: no config: pass -c, -x, or -k")
	}

	cfg, err := config.Parse(cfgString)
	if err != nil {
		return err
	}

	buildBackend, candLo, candHi, err := newBackend(opt, primerPath, hmmPath)
	if err != nil {
		return err
	}

	in, closeIn, err := openInput(opt.input)
	if err != nil {
		return err
	}
	defer closeIn()

	out, closeOut, err := openOutput(opt.output)
	if err != nil {
		return err
	}
	defer closeOut()

	sinks, closeSinks, err := openSinks(opt, out)
	if err != nil {
		return err
	}
	defer closeSinks()

	var audit *auditstore.Store
	if opt.auditPath != "" {
		audit, err = auditstore.Open(opt.auditPath)
		if err != nil {
			return err
		}
		defer audit.Close()
	}

	st := stats.New()
	support := &fastx.Support{}

	fxOpt := fastx.Options{
		MinQual:      opt.minQual,
		Support:      support,
		QualFailSink: sinks.qualFail,
	}

	// The whole stream is buffered so it can be read twice: once to
	// count records for the autotune sampling probability and draw an
	// independent Bernoulli sample, once more for the real run. This
	// is also what lets a non-seekable stdin pipe support autotuning.
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("chopper: %w", err)
	}

	driverOpt := driver.Options{
		Config:      cfg,
		MinSegLen:   opt.minSegLen,
		KeepPrimers: opt.keepPrimers,
		Workers:     opt.workers,
		BatchSize:   opt.batchSize,
	}
	if audit != nil {
		driverOpt.Audit = audit
	}

	if !opt.hasCutoff {
		sample, err := bernoulliSample(data, opt)
		if err != nil {
			return err
		}
		candidates := driver.Candidates(candLo, candHi, opt.numCandid)
		at := driver.Autotune(sample, buildBackend, cfg, candidates, opt.minSegLen)
		if at.Saturated {
			log.Printf("chopper: autotune cutoff %.4f is at the edge of the search range", at.Cutoff)
		}
		driverOpt.MaxScore = at.Cutoff
	} else {
		driverOpt.MaxScore = opt.cutoff
	}
	driverOpt.Backend = buildBackend(driverOpt.MaxScore)

	reader := fastx.NewReader(bytes.NewReader(data), fxOpt)
	if err := driver.Run(reader, driverOpt, sinks.Sinks, st); err != nil {
		return err
	}

	if sinks.stats != nil {
		if err := st.WriteTSV(sinks.stats); err != nil {
			return err
		}
	}
	for _, a := range st.Anomalies(cfg, 1.0) {
		log.Printf("chopper: anomaly: %s+%s observed in %.2f%% of reads, not in config", a.A, a.B, a.Percent)
	}
	if sinks.report != nil {
		lens := make([]float64, len(st.UsableLengths()))
		for i, n := range st.UsableLengths() {
			lens[i] = float64(n)
		}
		tables := report.Tables{
			UsableLengths:  lens,
			PercentUsable:  st.PercentUsable(),
			HitScores:      st.HitScores(),
			StrandCounts:   st.StrandCounts(),
			SegmentCounts:  st.SegmentCounts(),
			RescuedHistory: st.RescuedSegmentCounts(),
		}
		if err := report.Write(sinks.report, tables); err != nil {
			return err
		}
	}

	printSummary(support)
	return nil
}

// bernoulliSample draws the independent, whole-file sample spec.md
// §4.8 requires: N is the total record count (FASTQ records counted by
// scanning for "\n+\n" separator lines), sampling probability
// p = min(1, Y/N), and every record is included independently with
// probability p.
func bernoulliSample(data []byte, opt options) ([]fastx.Seq, error) {
	n := countRecords(data)
	p := 1.0
	if n > 0 {
		p = opt.sampleSize / float64(n)
		if p > 1 {
			p = 1
		}
	}
	r := fastx.NewReader(bytes.NewReader(data), fastx.Options{
		Sample:  p,
		Rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
		MinQual: opt.minQual,
	})
	var sample []fastx.Seq
	for {
		s, err := r.Next()
		if err != nil {
			break
		}
		sample = append(sample, s)
	}
	return sample, nil
}

// countRecords estimates the total record count N that spec.md §4.8's
// sampling probability p = min(1, Y/N) is computed against. FASTQ
// records are counted by scanning for "\n+\n" separator lines; FASTA
// input, which has no separator line, falls back to counting '>'
// header lines.
func countRecords(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	if data[0] == '@' {
		return bytes.Count(data, []byte("\n+\n"))
	}
	n := bytes.Count(data, []byte("\n>"))
	if data[0] == '>' {
		n++
	}
	return n
}

// backendFactory builds the Backend to use for a given candidate
// cutoff q. Most implementations ignore q and return a single shared
// instance, but a backend whose internal search width depends on q
// must rebuild itself on every call; see driver.Autotune.
type backendFactory func(q float64) driver.Backend

// newBackend returns backendFactory for opt, along with the
// [lo, hi] candidate cutoff range spec.md §4.8 assigns that backend:
// linspace(1e-5, 5.0) for phmm's E-value scale, linspace(0, 1) for
// edlib's normalised edit-distance fraction.
func newBackend(opt options, primerPath, hmmPath string) (factory backendFactory, lo, hi float64, err error) {
	switch opt.backendName {
	case "phmm":
		if hmmPath == "" {
			return nil, 0, 0, fmt.Errorf("chopper: -m phmm requires -g or a kit providing an HMM file")
		}
		// -E stays a loose, fixed upper bound: the actual candidate
		// cutoff is applied downstream by hit.Reduce on each run.
		b := &driver.PhmmBackend{ModelFile: hmmPath, EValue: 5.0, CPU: opt.workers}
		return func(float64) driver.Backend { return b }, 1e-5, 5.0, nil
	case "edlib":
		if primerPath == "" {
			return nil, 0, 0, fmt.Errorf("chopper: -m edlib requires -b or a kit providing a primer FASTA")
		}
		set, err := primer.Load(primerPath)
		if err != nil {
			return nil, 0, 0, err
		}
		return func(q float64) driver.Backend {
			return &driver.EdlibBackend{Primers: set, MaxEd: 1.2 * q}
		}, 0, 1, nil
	default:
		return nil, 0, 0, fmt.Errorf("chopper: unknown backend %q: want phmm or edlib", opt.backendName)
	}
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return maybeGunzip(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("chopper: %w", err)
	}
	r, closeR, err := maybeGunzip(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return r, func() { closeR(); f.Close() }, nil
}

// maybeGunzip peeks the gzip magic (0x1f 0x8b) and transparently wraps
// r in a decompressing reader when present.
func maybeGunzip(r io.Reader) (io.Reader, func(), error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, nil, fmt.Errorf("chopper: %w", err)
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gr, err := kgzip.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("chopper: %w", err)
		}
		return gr, func() { gr.Close() }, nil
	}
	return br, func() {}, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("chopper: %w", err)
	}
	if strings.HasSuffix(path, ".gz") {
		gw := pgzip.NewWriter(f)
		return gw, func() { gw.Close(); f.Close() }, nil
	}
	return f, func() { f.Close() }, nil
}

// openSinksResult bundles every optional output writer plus the
// underlying files so run can close them in one deferred call.
type openSinksResult struct {
	driver.Sinks
	qualFail *fastx.Writer
	stats    io.Writer
	report   io.Writer
}

func openSinks(opt options, main io.Writer) (openSinksResult, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	open := func(path string) (io.Writer, error) {
		if path == "" {
			return nil, nil
		}
		w, closeW, err := openOutput(path)
		if err != nil {
			return nil, err
		}
		closers = append(closers, closeW)
		return w, nil
	}

	res := openSinksResult{Sinks: driver.Sinks{Main: fastx.NewWriter(main)}}

	if w, err := open(opt.unclassifiedPath); err != nil {
		closeAll()
		return res, nil, err
	} else if w != nil {
		res.Sinks.Unclassified = fastx.NewWriter(w)
	}
	if w, err := open(opt.lenFailPath); err != nil {
		closeAll()
		return res, nil, err
	} else if w != nil {
		res.Sinks.LenFail = fastx.NewWriter(w)
	}
	if w, err := open(opt.rescuedPath); err != nil {
		closeAll()
		return res, nil, err
	} else if w != nil {
		res.Sinks.Rescued = fastx.NewWriter(w)
	}
	if w, err := open(opt.qualFailPath); err != nil {
		closeAll()
		return res, nil, err
	} else if w != nil {
		res.qualFail = fastx.NewWriter(w)
	}
	if w, err := open(opt.bedPath); err != nil {
		closeAll()
		return res, nil, err
	} else if w != nil {
		res.Sinks.BED = driver.NewBEDWriter(w)
	}
	if w, err := open(opt.perReadPath); err != nil {
		closeAll()
		return res, nil, err
	} else if w != nil {
		res.Sinks.PerRead = driver.NewPerReadWriter(w)
	}
	if w, err := open(opt.statsPath); err != nil {
		closeAll()
		return res, nil, err
	} else if w != nil {
		res.stats = w
	}
	if w, err := open(opt.reportPath); err != nil {
		closeAll()
		return res, nil, err
	} else if w != nil {
		res.report = w
	}

	return res, closeAll, nil
}

func printSummary(s *fastx.Support) {
	c := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(os.Stderr, "%s %d/%d reads passed quality filtering\n", c("chopper:"), s.Pass, s.Total)
}
