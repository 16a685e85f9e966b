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
	"math/rand"
	"testing"

	"github.com/lebovic/Flye/flye/index"
	"github.com/lebovic/Flye/flye/sequence"
)

// the end of one read is the start of the other: here b is a suffix of
// a, so both reads end together; driven through the real container and
// k-mer index
func TestDovetailOverlap(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	bases := []byte("ACGT")
	a := make([]byte, 400)
	for i := range a {
		a[i] = bases[rng.Intn(4)]
	}
	b := append([]byte{}, a[150:]...) // 250-base suffix of a

	seqs := sequence.NewContainer()
	if _, err := seqs.AddSequence("a", a); err != nil {
		t.Fatal(err)
	}
	if _, err := seqs.AddSequence("b", b); err != nil {
		t.Fatal(err)
	}

	bOpt := index.DefaultBuildOptions
	bOpt.K = 15
	bOpt.MinCoverage = 2
	bOpt.NumCPUs = 2
	vindex, err := index.Build(seqs, &bOpt)
	if err != nil {
		t.Fatal(err)
	}

	opt := Options{MinOverlap: 100, MaxJump: 30, MaxOverhang: 50}
	d, err := NewDetector(seqs, vindex, &opt)
	if err != nil {
		t.Fatal(err)
	}
	d.FindAllOverlaps(2)

	for _, id := range seqs.IterIDs() {
		got, ok := d.Index()[id]
		if !ok {
			t.Fatalf("missing entry for read %d", id)
		}
		if len(got) != 1 {
			t.Fatalf("expected one overlap for read %d, got %d", id, len(got))
		}
		o := got[0]
		if o.CurId != id || o.CurId == o.ExtId {
			t.Errorf("bad pair in entry of read %d: %s", id, o)
		}
		if o.CurBegin > o.CurEnd || o.ExtBegin > o.ExtEnd {
			t.Errorf("coordinates out of order: %s", o)
		}
	}

	// the forward-strand view: a[150:385] matches b[0:235]
	o := d.Overlaps(0)[0]
	if o.ExtId != 2 {
		t.Fatalf("read a should overlap read b: %s", o)
	}
	if o.CurBegin != 150 || o.ExtBegin != 0 {
		t.Errorf("wrong overlap start: %s", o)
	}
	if o.CurEnd != 385 || o.ExtEnd != 235 {
		t.Errorf("wrong overlap end: %s", o)
	}
	if o.LeftShift != 150 {
		t.Errorf("wrong left shift: %s", o)
	}
	if o.RightShift != 0 { // 250 - 400 + 150
		t.Errorf("wrong right shift: %s", o)
	}

	// symmetry with the reverse-complement strands
	want := o
	want.Reverse()
	want.Complement(seqs.SeqLen(want.CurId), seqs.SeqLen(want.ExtId))
	if got := d.Overlaps(want.CurId)[0]; got != want {
		t.Errorf("complement view differs: %s != %s", got, want)
	}
}
