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

	"github.com/lebovic/Flye/flye/sequence"
)

// OverlapRange is a matching region between two reads:
// cur[CurBegin, CurEnd] corresponds to ext[ExtBegin, ExtEnd].
// LeftShift is the median offset between corresponding positions
// (cur minus ext), RightShift is the same offset measured from the
// right ends of the reads.
type OverlapRange struct {
	CurId sequence.ReadId
	ExtId sequence.ReadId

	CurBegin int32
	CurEnd   int32
	ExtBegin int32
	ExtEnd   int32

	LeftShift  int32
	RightShift int32
}

// NewOverlapRange starts a single-point overlap at the given positions.
func NewOverlapRange(curId, extId sequence.ReadId, curInit, extInit int32) OverlapRange {
	return OverlapRange{
		CurId:    curId,
		ExtId:    extId,
		CurBegin: curInit,
		CurEnd:   curInit,
		ExtBegin: extInit,
		ExtEnd:   extInit,
	}
}

// CurRange returns the overlap length on the current read.
func (o *OverlapRange) CurRange() int32 { return o.CurEnd - o.CurBegin }

// ExtRange returns the overlap length on the extension read.
func (o *OverlapRange) ExtRange() int32 { return o.ExtEnd - o.ExtBegin }

// Reverse swaps the roles of the two reads, so the range describes the
// same match viewed from the extension read.
func (o *OverlapRange) Reverse() {
	o.CurId, o.ExtId = o.ExtId, o.CurId
	o.CurBegin, o.ExtBegin = o.ExtBegin, o.CurBegin
	o.CurEnd, o.ExtEnd = o.ExtEnd, o.CurEnd
	o.LeftShift = -o.LeftShift
	o.RightShift = -o.RightShift
}

// Complement maps the match onto the reverse-complement strands of both
// reads: every coordinate p on a read of length L becomes L-p, with
// begin/end swapped to keep the ordering.
func (o *OverlapRange) Complement(curLen, extLen int32) {
	o.CurBegin, o.CurEnd = curLen-o.CurEnd, curLen-o.CurBegin
	o.ExtBegin, o.ExtEnd = extLen-o.ExtEnd, extLen-o.ExtBegin
	// the left shift of the complemented match is the negated right
	// shift of the original one, and vice versa
	o.LeftShift, o.RightShift = -o.RightShift, -o.LeftShift
	o.CurId = o.CurId.Rc()
	o.ExtId = o.ExtId.Rc()
}

func (o OverlapRange) String() string {
	return fmt.Sprintf("%d[%d:%d] -> %d[%d:%d] shifts %d/%d",
		o.CurId, o.CurBegin, o.CurEnd, o.ExtId, o.ExtBegin, o.ExtEnd,
		o.LeftShift, o.RightShift)
}
