// Copyright © 2016-2024 Flye authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// plotSpectrum draws the k-mer frequency spectrum
// (frequency -> number of distinct k-mers).
func plotSpectrum(file string, spectrum map[int]int) error {
	freqs := make([]int, 0, len(spectrum))
	for f := range spectrum {
		freqs = append(freqs, f)
	}
	sort.Ints(freqs)

	xy := make(plotter.XYs, len(freqs))
	for i, f := range freqs {
		xy[i].X = float64(f)
		xy[i].Y = float64(spectrum[f])
	}

	p := plot.New()
	p.Title.Text = "k-mer frequency spectrum"
	p.X.Label.Text = "frequency"
	p.Y.Label.Text = "distinct k-mers"

	if err := plotutil.AddLines(p, xy); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, file)
}
