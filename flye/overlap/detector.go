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

package overlap

import (
	"fmt"
	"sort"
	"sync"

	logging "github.com/shenwei356/go-logging"
	"github.com/twotwotwo/sorts/sortutil"

	"github.com/lebovic/Flye/flye/index"
	"github.com/lebovic/Flye/flye/sequence"
)

var log = logging.MustGetLogger("flye")

// Options contains the tolerance constants of overlap detection.
// All values are in bases and immutable for one run.
type Options struct {
	MinOverlap  int32 `toml:"minimum_overlap"` // lower bound on accepted overlap length
	MaxJump     int32 `toml:"maximum_jump"`    // bound on one-step chain extension distance
	MaxOverhang int32 `toml:"maximum_overhang"`
}

// DefaultOptions is the default value of Options.
var DefaultOptions = Options{
	MinOverlap:  5000,
	MaxJump:     1500,
	MaxOverhang: 1500,
}

// CheckOptions checks the options.
func CheckOptions(opt *Options) error {
	if opt.MinOverlap < 1 {
		return fmt.Errorf("invalid minimum overlap: %d, should be >= 1", opt.MinOverlap)
	}
	if opt.MaxJump < 1 {
		return fmt.Errorf("invalid maximum jump: %d, should be >= 1", opt.MaxJump)
	}
	if opt.MaxOverhang < 0 {
		return fmt.Errorf("invalid maximum overhang: %d, should be >= 0", opt.MaxOverhang)
	}
	return nil
}

// keep at most this many active paths per extension read
const maxPaths = 100

// overlaps longer than this are reported to the debug log even when
// they fail the final acceptance test
const debugOvlpThreshold = 1000

// SequenceProvider is the read-set surface the detector consumes.
type SequenceProvider interface {
	IterIDs() []sequence.ReadId
	SeqLen(id sequence.ReadId) int32
	Name(id sequence.ReadId) string
}

// KmerProvider is the k-mer index surface the detector consumes.
// Both views must be frozen before detection starts.
type KmerProvider interface {
	ByRead(id sequence.ReadId) []index.KmerPosition
	ByKmer(kmer index.Kmer) []index.ReadPosition
}

// ProgressReporter receives one Advance call per scheduled read.
// Advance may be called with the detector's fetch mutex held.
type ProgressReporter interface {
	Advance()
}

type noProgress struct{}

func (noProgress) Advance() {}

// Detector finds all pairs of reads sharing a consistent chain of
// k-mer matches.
type Detector struct {
	opt    *Options
	seqs   SequenceProvider
	vindex KmerProvider

	ovlpMatrix map[[2]sequence.ReadId]struct{}
	ovlpIndex  map[sequence.ReadId][]OverlapRange
	jobQueue   []sequence.ReadId
	nextJob    int
	progress   ProgressReporter

	fetchMutex sync.Mutex
	logMutex   sync.Mutex
}

// NewDetector creates a detector over frozen sequence and k-mer indexes.
func NewDetector(seqs SequenceProvider, vindex KmerProvider, opt *Options) (*Detector, error) {
	if err := CheckOptions(opt); err != nil {
		return nil, err
	}
	return &Detector{
		opt:      opt,
		seqs:     seqs,
		vindex:   vindex,
		progress: noProgress{},
	}, nil
}

// SetProgress sets the progress reporter, call before FindAllOverlaps.
func (d *Detector) SetProgress(p ProgressReporter) { d.progress = p }

// Index returns the detected overlaps per read. Every read of the
// container has an entry, possibly empty. Only valid after
// FindAllOverlaps returned.
func (d *Detector) Index() map[sequence.ReadId][]OverlapRange { return d.ovlpIndex }

// Overlaps returns the detected overlaps of one read.
func (d *Detector) Overlaps(id sequence.ReadId) []OverlapRange { return d.ovlpIndex[id] }

// FindAllOverlaps runs overlap detection over all reads with the given
// number of worker threads.
func (d *Detector) FindAllOverlaps(numThreads int) {
	log.Info("finding overlaps")
	if numThreads < 1 {
		numThreads = 1
	}

	d.ovlpMatrix = make(map[[2]sequence.ReadId]struct{}, 1024)
	d.ovlpIndex = make(map[sequence.ReadId][]OverlapRange, 1024)
	d.jobQueue = d.seqs.IterIDs()
	d.nextJob = 0

	var wg sync.WaitGroup
	for i := 0; i < numThreads; i++ {
		wg.Add(1)
		go func() {
			d.parallelWorker()
			wg.Done()
		}()
	}
	wg.Wait()

	// only the overlap index survives
	d.ovlpMatrix = nil
}

// parallelWorker keeps the fetch mutex across job fetch and result
// commit, releasing it only around the pure chaining computation.
func (d *Detector) parallelWorker() {
	d.fetchMutex.Lock()
	for {
		if d.nextJob == len(d.jobQueue) {
			d.fetchMutex.Unlock()
			return
		}
		d.progress.Advance()
		readId := d.jobQueue[d.nextJob]
		d.nextJob++
		// every read gets an entry, even those skipped below
		if _, ok := d.ovlpIndex[readId]; !ok {
			d.ovlpIndex[readId] = []OverlapRange{}
		}
		if d.seqs.SeqLen(readId) < d.opt.MinOverlap {
			continue
		}

		d.fetchMutex.Unlock()
		detected := d.getReadOverlaps(readId)
		d.fetchMutex.Lock()

		for _, ovlp := range detected {
			// detected overlap
			d.commit(ovlp)

			// in opposite direction
			ovlp.Reverse()
			d.commit(ovlp)

			// on reverse strands
			curLen := d.seqs.SeqLen(ovlp.CurId)
			extLen := d.seqs.SeqLen(ovlp.ExtId)
			ovlp.Complement(curLen, extLen)
			d.commit(ovlp)

			// opposite again
			ovlp.Reverse()
			d.commit(ovlp)
		}
	}
}

// commit records one directed overlap unless the pair is already known.
// Two workers may find the same overlap from opposite directions, the
// matrix serializes the winner. Caller holds the fetch mutex.
func (d *Detector) commit(ovlp OverlapRange) {
	key := [2]sequence.ReadId{ovlp.CurId, ovlp.ExtId}
	if _, ok := d.ovlpMatrix[key]; ok {
		return
	}
	d.ovlpMatrix[key] = struct{}{}
	d.ovlpIndex[ovlp.CurId] = append(d.ovlpIndex[ovlp.CurId], ovlp)
}

type jumpRes int8

const (
	jEnd jumpRes = iota
	jIncons
	jClose
	jFar
)

// goodStart permits starting a new chain: the closer read end must be
// within the overhang of position 0 and both reads must keep at least
// a minimum overlap to the right.
func (d *Detector) goodStart(curPos, extPos, curLen, extLen int32) bool {
	return min(curPos, extPos) <= d.opt.MaxOverhang &&
		extPos < extLen-d.opt.MinOverlap &&
		curPos < curLen-d.opt.MinOverlap
}

// jumpTest classifies extending an existing chain by one new k-mer hit.
func (d *Detector) jumpTest(curPrev, curNext, extPrev, extNext int32) jumpRes {
	const closeFrac = 8
	const farFrac = 2
	if curNext-curPrev > d.opt.MaxJump {
		return jEnd
	}

	if 0 < curNext-curPrev && curNext-curPrev < d.opt.MaxJump &&
		0 < extNext-extPrev && extNext-extPrev < d.opt.MaxJump {
		if abs32((curNext-curPrev)-(extNext-extPrev)) < d.opt.MaxJump/closeFrac {
			return jClose
		}
		if abs32((curNext-curPrev)-(extNext-extPrev)) < d.opt.MaxJump/farFrac {
			return jFar
		}
	}
	return jIncons
}

// overlapTest checks if it is a proper overlap.
func (d *Detector) overlapTest(ovlp *OverlapRange, curLen, extLen int32) bool {
	if ovlp.CurRange() < d.opt.MinOverlap || ovlp.ExtRange() < d.opt.MinOverlap {
		return false
	}
	if abs32(ovlp.CurRange()-ovlp.ExtRange()) > d.opt.MaxJump {
		return false
	}
	if min(ovlp.CurBegin, ovlp.ExtBegin) > d.opt.MaxOverhang {
		return false
	}
	if min(curLen-ovlp.CurEnd, extLen-ovlp.ExtEnd) > d.opt.MaxOverhang {
		return false
	}
	return true
}

// getReadOverlaps finds all overlap candidates of one read based on the
// shared k-mers (common jump-paths). Pure over the immutable indexes,
// safe to run without locks.
func (d *Detector) getReadOverlaps(currentReadId sequence.ReadId) []OverlapRange {
	curKmers := d.vindex.ByRead(currentReadId)
	if len(curKmers) == 0 {
		return nil
	}

	activePaths := make(map[sequence.ReadId][]OverlapRange, 128)
	// map iteration order is randomized, the reduction below must not be
	extOrder := make([]sequence.ReadId, 0, 128)

	curLen := d.seqs.SeqLen(currentReadId)
	eraseMarks := make([]int, 0, maxPaths+1)

	// for all kmers in this read
	for _, curKmerPos := range curKmers {
		curPos := curKmerPos.Position
		// for all other occurences of this kmer (extension candidates)
		for _, extReadPos := range d.vindex.ByKmer(curKmerPos.Kmer) {
			// don't want self-overlaps
			if extReadPos.ReadId == currentReadId {
				continue
			}
			extLen := d.seqs.SeqLen(extReadPos.ReadId)
			if extLen < d.opt.MinOverlap {
				continue
			}
			extPos := extReadPos.Position
			extPaths, touched := activePaths[extReadPos.ReadId]
			if !touched {
				extOrder = append(extOrder, extReadPos.ReadId)
			}

			// searching for longest possible extension
			var maxCloseId, maxFarId int
			var maxCloseLen, maxFarLen int32
			extendsClose := false
			extendsFar := false
			eraseMarks = eraseMarks[:0]
			for pathId := range extPaths {
				jumpLength := curPos - extPaths[pathId].CurEnd
				jumpResult := d.jumpTest(extPaths[pathId].CurEnd, curPos,
					extPaths[pathId].ExtEnd, extPos)

				switch jumpResult {
				case jEnd, jIncons:
				case jClose:
					eraseMarks = insertMark(eraseMarks, pathId)
					if jumpLength > maxCloseLen {
						extendsClose = true
						maxCloseId = pathId
						maxCloseLen = curPos - extPaths[maxCloseId].CurEnd
					}
				case jFar:
					if jumpLength > maxFarLen {
						extendsFar = true
						maxFarId = pathId
						maxFarLen = curPos - extPaths[maxFarId].CurEnd
					}
				}
			}
			// update the best close extension
			if extendsClose {
				eraseMarks = removeMark(eraseMarks, maxCloseId)
				extPaths[maxCloseId].CurEnd = curPos
				extPaths[maxCloseId].ExtEnd = extPos
			}
			// update the best far extension, keep the old path as a copy
			if extendsFar {
				forked := extPaths[maxFarId]
				forked.CurEnd = curPos
				forked.ExtEnd = extPos
				extPaths = append(extPaths, forked)
			}
			// if no extensions possible (or there are no active paths), start a new path
			if !extendsClose && !extendsFar &&
				d.goodStart(curPos, extPos, curLen, extLen) {
				extPaths = append(extPaths,
					NewOverlapRange(currentReadId, extReadPos.ReadId, curPos, extPos))
			}
			// keep at most maxPaths paths
			if len(extPaths) > maxPaths {
				shortestId := 0
				shortestLength := extPaths[shortestId].CurRange()
				for i := range extPaths {
					if extPaths[i].CurRange() < shortestLength {
						shortestLength = extPaths[i].CurRange()
						shortestId = i
					}
				}
				eraseMarks = insertMark(eraseMarks, shortestId)
			}
			// cleaning up, from the highest marked index down so the
			// remaining indexes stay valid
			for i := len(eraseMarks) - 1; i >= 0; i-- {
				id := eraseMarks[i]
				extPaths[id] = extPaths[len(extPaths)-1]
				extPaths = extPaths[:len(extPaths)-1]
			}

			activePaths[extReadPos.ReadId] = extPaths
		} // end loop over kmer occurences in other reads
	} // end loop over kmers in the current read

	detectedOverlaps := make([]OverlapRange, 0, len(extOrder))
	var debugOverlaps []OverlapRange
	for _, extId := range extOrder {
		extLen := d.seqs.SeqLen(extId)
		var maxOverlap OverlapRange
		var outputOverlap OverlapRange
		passedTest := false
		for _, ovlp := range activePaths[extId] {
			if d.overlapTest(&ovlp, curLen, extLen) {
				passedTest = true
				if maxOverlap.CurRange() < ovlp.CurRange() {
					maxOverlap = ovlp
				}
			}
			if outputOverlap.CurRange() < ovlp.CurRange() {
				outputOverlap = ovlp
			}
		}

		if outputOverlap.CurRange() > debugOvlpThreshold {
			debugOverlaps = append(debugOverlaps, outputOverlap)
		}

		if passedTest {
			d.addOverlapShifts(&maxOverlap)
			detectedOverlaps = append(detectedOverlaps, maxOverlap)
		}
	}

	if len(debugOverlaps) > 0 {
		d.logMutex.Lock()
		log.Debugf("ovlps for %s %d",
			d.seqs.Name(currentReadId), len(curKmers))
		for _, ovlp := range debugOverlaps {
			log.Debugf("\t%s\tcs:%d\tcl:%d\tes:%d\tel:%d",
				d.seqs.Name(ovlp.ExtId),
				ovlp.CurBegin, ovlp.CurRange(), ovlp.ExtBegin, ovlp.ExtRange())
		}
		d.logMutex.Unlock()
	}

	return detectedOverlaps
}

// addOverlapShifts estimates the shifts of an accepted overlap as the
// median offset of the shared k-mers inside it.
func (d *Detector) addOverlapShifts(ovlp *OverlapRange) {
	ovlpShifts := make([]int32, 0, 128)
	for _, curKmer := range d.vindex.ByRead(ovlp.CurId) {
		if ovlp.CurBegin <= curKmer.Position && curKmer.Position <= ovlp.CurEnd {
			for _, extKmer := range d.vindex.ByKmer(curKmer.Kmer) {
				if extKmer.ReadId == ovlp.ExtId &&
					ovlp.ExtBegin <= extKmer.Position &&
					extKmer.Position <= ovlp.ExtEnd {
					ovlpShifts = append(ovlpShifts, curKmer.Position-extKmer.Position)
				}
			}
		}
	}

	ovlp.LeftShift = median(ovlpShifts)
	ovlp.RightShift = d.seqs.SeqLen(ovlp.ExtId) -
		d.seqs.SeqLen(ovlp.CurId) + ovlp.LeftShift
}

// median sorts the whole slice and takes the element at n/2,
// the upper middle for even n. Selection algorithms are off the table
// here, the sorted convention is part of the output contract.
func median(vec []int32) int32 {
	sortutil.Int32s(vec)
	return vec[len(vec)/2]
}

// insertMark adds an index to an ascending unique mark list.
func insertMark(marks []int, id int) []int {
	i := sort.SearchInts(marks, id)
	if i < len(marks) && marks[i] == id {
		return marks
	}
	marks = append(marks, 0)
	copy(marks[i+1:], marks[i:])
	marks[i] = id
	return marks
}

// removeMark drops an index from an ascending mark list.
func removeMark(marks []int, id int) []int {
	i := sort.SearchInts(marks, id)
	if i == len(marks) || marks[i] != id {
		return marks
	}
	return append(marks[:i], marks[i+1:]...)
}

func abs32(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}
