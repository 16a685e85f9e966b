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

package index

import (
	"fmt"
	"sort"

	"github.com/pbenner/threadpool"
	"github.com/shenwei356/kmers"
	"github.com/twotwotwo/sorts"
	"gonum.org/v1/gonum/stat"

	"github.com/lebovic/Flye/flye/sequence"
)

// Kmer is a 2-bit-packed k-mer code (see github.com/shenwei356/kmers).
type Kmer uint64

// KmerPosition is one k-mer occurrence inside a known read,
// position is the 0-based offset of the k-mer's first base.
type KmerPosition struct {
	Kmer     Kmer
	Position int32
}

// ReadPosition is one k-mer occurrence across all reads.
type ReadPosition struct {
	ReadId   sequence.ReadId
	Position int32
}

// BuildOptions contains all options of index building.
type BuildOptions struct {
	K int // k-mer size

	// frequency filtering: only k-mers with [MinCoverage, MaxCoverage]
	// occurrences over all read strands are kept
	MinCoverage int
	MaxCoverage int

	NumCPUs int
}

// DefaultBuildOptions is the default value of BuildOptions.
var DefaultBuildOptions = BuildOptions{
	K:           15,
	MinCoverage: 2,
	MaxCoverage: 1000,
	NumCPUs:     4,
}

// CheckBuildOptions checks the options.
func CheckBuildOptions(opt *BuildOptions) error {
	if opt.K < 5 || opt.K > 31 {
		return fmt.Errorf("invalid k value: %d, valid range: [5, 31]", opt.K)
	}
	if opt.MinCoverage < 1 {
		return fmt.Errorf("invalid minimum k-mer coverage: %d, should be >= 1", opt.MinCoverage)
	}
	if opt.MaxCoverage < opt.MinCoverage {
		return fmt.Errorf("invalid maximum k-mer coverage: %d, should be >= %d",
			opt.MaxCoverage, opt.MinCoverage)
	}
	if opt.NumCPUs < 1 {
		return fmt.Errorf("invalid number of CPUs: %d, should be >= 1", opt.NumCPUs)
	}
	return nil
}

// VertexIndex stores all occurrences of the solid (frequency-filtered)
// k-mers of a read set, as two views over the same data:
// per read ordered by position, and per k-mer across all reads.
// Both views are frozen after Build and are safe for concurrent readers.
type VertexIndex struct {
	k      int
	byRead map[sequence.ReadId][]KmerPosition
	byKmer map[Kmer][]ReadPosition

	spectrum map[int]int // k-mer frequency -> number of distinct k-mers
}

// K returns the k-mer size of the index.
func (vi *VertexIndex) K() int { return vi.k }

// ByRead returns the solid k-mers of one read strand, ordered by
// ascending position. Returns nil for reads without solid k-mers.
func (vi *VertexIndex) ByRead(id sequence.ReadId) []KmerPosition {
	return vi.byRead[id]
}

// ByKmer returns all occurrences of a k-mer, ordered by (read id, position).
func (vi *VertexIndex) ByKmer(kmer Kmer) []ReadPosition {
	return vi.byKmer[kmer]
}

// NumSolidKmers returns the number of distinct k-mers kept by the
// frequency filter.
func (vi *VertexIndex) NumSolidKmers() int { return len(vi.byKmer) }

// Spectrum returns the k-mer frequency spectrum of the whole read set,
// computed before filtering: frequency -> number of distinct k-mers.
func (vi *VertexIndex) Spectrum() map[int]int { return vi.spectrum }

// CoverageStats returns mean and standard deviation of the solid k-mer
// frequencies.
func (vi *VertexIndex) CoverageStats() (float64, float64) {
	covs := make([]float64, 0, len(vi.byKmer))
	for _, hits := range vi.byKmer {
		covs = append(covs, float64(len(hits)))
	}
	return stat.Mean(covs, nil), stat.StdDev(covs, nil)
}

type readPositions []ReadPosition

func (s readPositions) Len() int { return len(s) }
func (s readPositions) Less(i, j int) bool {
	if s[i].ReadId != s[j].ReadId {
		return s[i].ReadId < s[j].ReadId
	}
	return s[i].Position < s[j].Position
}
func (s readPositions) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

// Build indexes the k-mers of all read strands in the container and
// keeps those passing the frequency filter.
func Build(seqs *sequence.Container, opt *BuildOptions) (*VertexIndex, error) {
	if err := CheckBuildOptions(opt); err != nil {
		return nil, err
	}

	ids := seqs.IterIDs()

	// k-mers of each strand, extracted in parallel
	perRead := make([][]KmerPosition, len(ids))
	pool := threadpool.New(opt.NumCPUs, 100*opt.NumCPUs)
	pool.RangeJob(0, len(ids), func(i int, pool threadpool.ThreadPool, erf func() error) error {
		perRead[i] = extractKmers(seqs.RecordById(ids[i]).Seq, opt.K)
		return nil
	})

	// global k-mer frequencies
	counts := make(map[Kmer]int32, mapInitSize)
	for _, kps := range perRead {
		for _, kp := range kps {
			counts[kp.Kmer]++
		}
	}

	spectrum := make(map[int]int, 128)
	for _, n := range counts {
		spectrum[int(n)]++
	}

	vi := &VertexIndex{
		k:        opt.K,
		byRead:   make(map[sequence.ReadId][]KmerPosition, len(ids)),
		byKmer:   make(map[Kmer][]ReadPosition, len(counts)),
		spectrum: spectrum,
	}

	minCov, maxCov := int32(opt.MinCoverage), int32(opt.MaxCoverage)
	for i, id := range ids {
		solid := perRead[i][:0]
		for _, kp := range perRead[i] {
			n := counts[kp.Kmer]
			if n < minCov || n > maxCov {
				continue
			}
			solid = append(solid, kp)
			vi.byKmer[kp.Kmer] = append(vi.byKmer[kp.Kmer], ReadPosition{
				ReadId:   id,
				Position: kp.Position,
			})
		}
		if len(solid) > 0 {
			vi.byRead[id] = solid
		}
	}

	// insertion above already walks the reads in id order, the sort just
	// pins the (read id, position) order independently of how the lists
	// were filled
	sorts.MaxProcs = opt.NumCPUs
	for _, hits := range vi.byKmer {
		if !sort.IsSorted(readPositions(hits)) {
			sorts.Quicksort(readPositions(hits))
		}
	}

	return vi, nil
}

var mapInitSize = 1 << 20 // 1M

// extractKmers collects all k-mer codes of a sequence with their
// positions. Windows with non-ACGT bases are skipped.
func extractKmers(s []byte, k int) []KmerPosition {
	if len(s) < k {
		return nil
	}
	kps := make([]KmerPosition, 0, len(s)-k+1)
	var code uint64
	var err error
	for i := 0; i <= len(s)-k; i++ {
		ambiguous := false
		for _, b := range s[i : i+k] {
			switch b {
			case 'A', 'C', 'G', 'T', 'a', 'c', 'g', 't':
			default:
				ambiguous = true
			}
		}
		if ambiguous { // kmers.Encode would map N and other codes to a base
			continue
		}
		code, err = kmers.Encode(s[i : i+k])
		if err != nil {
			continue
		}
		kps = append(kps, KmerPosition{Kmer: Kmer(code), Position: int32(i)})
	}
	return kps
}
