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
	"io"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/lebovic/Flye/flye/index"
	"github.com/lebovic/Flye/flye/overlap"
	"github.com/lebovic/Flye/flye/sequence"
)

var overlapCmd = &cobra.Command{
	Use:   "overlap",
	Short: "Detect all-pairs overlaps between long reads",
	Long: `Detect all-pairs overlaps between long reads

The detector indexes the solid k-mers of all reads (both strands), then
chains shared k-mer hits between every read pair into approximately
collinear paths and reports, per pair, the longest chain passing the
overlap criteria, together with the overlap coordinates on both reads
and the estimated shifts.

Attention:
  1. Input should be (gzipped) FASTA or FASTQ files or directories with them.
  2. Both strands of every read are reported; the output is symmetric.

Tolerance parameters can also be loaded from a TOML file (--params):

    minimum_overlap  = 5000
    maximum_jump     = 1500
    maximum_overhang = 1500

Flags given explicitly win over values from the file.

Output format:
  Tab-delimited with 12 columns, 0-based positions:
    1.  qname,    query read name
    2.  qstrand,  query strand (+/-)
    3.  qstart    4. qend    5. qlen
    6.  tname,    matched read name
    7.  tstrand   8. tstart  9. tend  10. tlen
    11. lshift,   median offset of shared k-mers (query minus target)
    12. rshift,   the same offset measured from the right read ends

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		timeStart := time.Now()
		defer func() {
			if opt.Verbose {
				log.Info()
				log.Infof("elapsed time: %s", time.Since(timeStart))
			}
		}()

		outFile := expandPath(getFlagString(cmd, "out-file"))
		plotFile := getFlagString(cmd, "kmer-plot")

		bOpt := index.DefaultBuildOptions
		bOpt.K = getFlagPositiveInt(cmd, "kmer-size")
		bOpt.MinCoverage = getFlagPositiveInt(cmd, "min-kmer-cov")
		bOpt.MaxCoverage = getFlagPositiveInt(cmd, "max-kmer-cov")
		bOpt.NumCPUs = opt.NumCPUs

		dOpt := getOverlapOptions(cmd)

		if len(args) == 0 {
			checkError(errors.New("no input files given"))
		}
		files := getFileListFromArgs(args, opt.NumCPUs)

		// ---------------------------------------------------------------
		// loading reads

		seqs := sequence.NewContainer()
		for _, file := range files {
			if opt.Verbose {
				log.Infof("loading reads: %s", file)
			}
			checkError(seqs.LoadFile(file))
		}
		if seqs.NumSeqs() == 0 {
			checkError(errors.New("no reads in the input files"))
		}
		if opt.Verbose {
			log.Infof("  %d reads loaded", seqs.NumSeqs()/2)
		}

		// ---------------------------------------------------------------
		// k-mer indexing

		if opt.Verbose {
			log.Info()
			log.Infof("counting %d-mers with %d threads...", bOpt.K, opt.NumCPUs)
		}
		vindex, err := index.Build(seqs, &bOpt)
		checkError(err)
		if opt.Verbose {
			mean, stdev := vindex.CoverageStats()
			log.Infof("  solid k-mers: %d (coverage %d-%d), frequency mean: %.1f, stdev: %.1f",
				vindex.NumSolidKmers(), bOpt.MinCoverage, bOpt.MaxCoverage, mean, stdev)
		}
		if plotFile != "" {
			checkError(plotSpectrum(expandPath(plotFile), vindex.Spectrum()))
			if opt.Verbose {
				log.Infof("  k-mer frequency spectrum saved to: %s", plotFile)
			}
		}

		// ---------------------------------------------------------------
		// overlap detection

		detector, err := overlap.NewDetector(seqs, vindex, &dOpt)
		checkError(err)

		var pbs *mpb.Progress
		var bar *mpb.Bar
		if opt.Verbose {
			log.Info()
			pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
			bar = pbs.AddBar(int64(len(seqs.IterIDs())),
				mpb.PrependDecorators(
					decor.Name("processed reads: ", decor.WC{W: len("processed reads: "), C: decor.DindentRight}),
					decor.Name("", decor.WCSyncSpaceR),
					decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
				),
				mpb.AppendDecorators(
					decor.Percentage(decor.WC{W: 5}),
					decor.OnComplete(decor.Name(""), ". done"),
				),
			)
			detector.SetProgress(barProgress{bar})
		}

		detector.FindAllOverlaps(opt.NumCPUs)

		if opt.Verbose {
			pbs.Wait()
		}

		// ---------------------------------------------------------------
		// output

		n, err := writeOverlaps(outFile, seqs, detector, opt.NumCPUs)
		checkError(err)
		if opt.Verbose {
			log.Infof("%d overlaps saved to: %s", n, outFile)
		}
	},
}

type barProgress struct {
	bar *mpb.Bar
}

func (p barProgress) Advance() { p.bar.Increment() }

// getOverlapOptions merges the defaults, the optional TOML parameter
// file and the explicitly given flags, in that order.
func getOverlapOptions(cmd *cobra.Command) overlap.Options {
	dOpt := overlap.DefaultOptions

	if file := getFlagString(cmd, "params"); file != "" {
		fh, err := xopen.Ropen(expandPath(file))
		checkError(errors.Wrap(err, file))
		data, err := io.ReadAll(fh)
		checkError(errors.Wrap(err, file))
		checkError(fh.Close())
		checkError(errors.Wrap(toml.Unmarshal(data, &dOpt), file))
	}

	if cmd.Flags().Changed("min-overlap") {
		dOpt.MinOverlap = int32(getFlagPositiveInt(cmd, "min-overlap"))
	}
	if cmd.Flags().Changed("max-jump") {
		dOpt.MaxJump = int32(getFlagPositiveInt(cmd, "max-jump"))
	}
	if cmd.Flags().Changed("max-overhang") {
		dOpt.MaxOverhang = int32(getFlagNonNegativeInt(cmd, "max-overhang"))
	}

	return dOpt
}

func init() {
	RootCmd.AddCommand(overlapCmd)

	overlapCmd.Flags().StringP("out-file", "o", "overlaps.tsv.gz",
		`out file, supports .gz, use "-" for stdout`)
	overlapCmd.Flags().IntP("kmer-size", "k", index.DefaultBuildOptions.K,
		"k-mer size of the index")
	overlapCmd.Flags().IntP("min-kmer-cov", "", index.DefaultBuildOptions.MinCoverage,
		"keep k-mers with at least this many occurrences over all read strands")
	overlapCmd.Flags().IntP("max-kmer-cov", "", index.DefaultBuildOptions.MaxCoverage,
		"keep k-mers with at most this many occurrences over all read strands")
	overlapCmd.Flags().IntP("min-overlap", "m", int(overlap.DefaultOptions.MinOverlap),
		"minimum length of an accepted overlap")
	overlapCmd.Flags().IntP("max-jump", "", int(overlap.DefaultOptions.MaxJump),
		"maximum distance of one chain extension step")
	overlapCmd.Flags().IntP("max-overhang", "", int(overlap.DefaultOptions.MaxOverhang),
		"maximum unaligned flank at each end of an overlap")
	overlapCmd.Flags().StringP("params", "p", "",
		"TOML file with tolerance parameters, flags win over file values")
	overlapCmd.Flags().StringP("kmer-plot", "", "",
		"save the k-mer frequency spectrum plot to this file (.png, .pdf, .svg)")
}
