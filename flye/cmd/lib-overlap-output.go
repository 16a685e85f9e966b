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
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/pkg/errors"

	"github.com/lebovic/Flye/flye/overlap"
	"github.com/lebovic/Flye/flye/sequence"
)

// writeOverlaps dumps the overlap index as a TSV file, reads in the
// container's order, and returns the number of written records.
func writeOverlaps(file string, seqs *sequence.Container, detector *overlap.Detector, threads int) (int, error) {
	var w io.Writer = os.Stdout
	if !isStdin(file) {
		checkOutputDir(file)
		fh, err := os.Create(file)
		if err != nil {
			return 0, errors.Wrap(err, file)
		}
		defer fh.Close()

		if strings.HasSuffix(file, ".gz") {
			gz, err := pgzip.NewWriterLevel(fh, pgzip.DefaultCompression)
			if err != nil {
				return 0, errors.Wrap(err, file)
			}
			gz.SetConcurrency(1<<20, threads)
			defer gz.Close()
			w = gz
		} else {
			w = fh
		}
	}

	bw := bufio.NewWriterSize(w, 1<<20)
	defer bw.Flush()

	var n int
	for _, id := range seqs.IterIDs() {
		for _, ovlp := range detector.Overlaps(id) {
			_, err := fmt.Fprintf(bw, "%s\t%c\t%d\t%d\t%d\t%s\t%c\t%d\t%d\t%d\t%d\t%d\n",
				seqs.Name(ovlp.CurId), ovlp.CurId.Strand(),
				ovlp.CurBegin, ovlp.CurEnd, seqs.SeqLen(ovlp.CurId),
				seqs.Name(ovlp.ExtId), ovlp.ExtId.Strand(),
				ovlp.ExtBegin, ovlp.ExtEnd, seqs.SeqLen(ovlp.ExtId),
				ovlp.LeftShift, ovlp.RightShift)
			if err != nil {
				return n, errors.Wrap(err, file)
			}
			n++
		}
	}
	return n, nil
}
