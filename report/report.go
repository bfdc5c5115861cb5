// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report renders the driver's aggregated tables to a
// multi-page PDF. It is a passive sink: every input is a pre-aggregated
// slice, never a live reader.
package report

import (
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"
)

// Tables bundles the pre-aggregated values the report draws. Every
// field is optional; an empty slice simply skips that page.
type Tables struct {
	UsableLengths  []float64
	PercentUsable  []float64
	HitScores      []float64
	StrandCounts   map[string]int // "+"/"-" -> count
	SegmentCounts  map[int]int    // segments-per-read -> reads
	RescuedHistory map[int]int    // rescued segment count -> reads
}

const (
	pageWidth  = 8 * vg.Inch
	pageHeight = 6 * vg.Inch
)

// Write renders t as a sequence of PDF pages to w.
func Write(w io.Writer, t Tables) error {
	var pages []*plot.Plot

	if p, err := histogramPage("Usable fragment length", "Length (bp)", t.UsableLengths); err != nil {
		return err
	} else if p != nil {
		pages = append(pages, p)
	}
	if p, err := histogramPage("Percent of read usable", "Percent", t.PercentUsable); err != nil {
		return err
	} else if p != nil {
		pages = append(pages, p)
	}
	if p, err := histogramPage("Primer hit score", "Normalised score", t.HitScores); err != nil {
		return err
	} else if p != nil {
		pages = append(pages, p)
	}
	if p, err := barPage("Strand", t.StrandCounts); err != nil {
		return err
	} else if p != nil {
		pages = append(pages, p)
	}
	if p, err := intHistPage("Segments per read", t.SegmentCounts); err != nil {
		return err
	} else if p != nil {
		pages = append(pages, p)
	}
	if p, err := intHistPage("Rescued segment count", t.RescuedHistory); err != nil {
		return err
	} else if p != nil {
		pages = append(pages, p)
	}

	if len(pages) == 0 {
		return nil
	}

	c := vgpdf.New(pageWidth, pageHeight)
	for i, p := range pages {
		if i > 0 {
			c.NextPage()
		}
		p.Draw(draw.New(c))
	}
	_, err := c.WriteTo(w)
	return err
}

func histogramPage(title, xlabel string, values []float64) (*plot.Plot, error) {
	if len(values) == 0 {
		return nil, nil
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = "Count"

	h, err := plotter.NewHist(plotter.Values(values), 50)
	if err != nil {
		return nil, err
	}
	p.Add(h)
	return p, nil
}

func intHistPage(title string, counts map[int]int) (*plot.Plot, error) {
	if len(counts) == 0 {
		return nil, nil
	}
	var values plotter.Values
	for k, n := range counts {
		for i := 0; i < n; i++ {
			values = append(values, float64(k))
		}
	}
	return histogramPage(title, "Count per read", []float64(values))
}

func barPage(title string, counts map[string]int) (*plot.Plot, error) {
	if len(counts) == 0 {
		return nil, nil
	}
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Count"

	names := []string{"+", "-"}
	values := make(plotter.Values, len(names))
	for i, n := range names {
		values[i] = float64(counts[n])
	}
	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return nil, err
	}
	p.Add(bars)
	p.NominalX(names...)
	return p, nil
}
