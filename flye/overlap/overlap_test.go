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
	"testing"
)

func TestReverseRoundTrip(t *testing.T) {
	o := OverlapRange{
		CurId: 0, ExtId: 2,
		CurBegin: 10, CurEnd: 90,
		ExtBegin: 5, ExtEnd: 85,
		LeftShift: 5, RightShift: -5,
	}
	orig := o

	o.Reverse()
	if o.CurId != 2 || o.ExtId != 0 {
		t.Errorf("reverse did not swap ids: %s", o)
	}
	if o.CurBegin != 5 || o.CurEnd != 85 || o.ExtBegin != 10 || o.ExtEnd != 90 {
		t.Errorf("reverse did not swap coordinates: %s", o)
	}
	if o.LeftShift != -5 || o.RightShift != 5 {
		t.Errorf("reverse did not negate shifts: %s", o)
	}

	o.Reverse()
	if o != orig {
		t.Errorf("reverse is not an involution: %s != %s", o, orig)
	}
}

func TestComplement(t *testing.T) {
	o := OverlapRange{
		CurId: 0, ExtId: 2,
		CurBegin: 10, CurEnd: 90,
		ExtBegin: 5, ExtEnd: 85,
		LeftShift: 5, RightShift: 0,
	}
	orig := o
	curLen, extLen := int32(100), int32(95)

	o.Complement(curLen, extLen)
	if o.CurId != 1 || o.ExtId != 3 {
		t.Errorf("complement did not flip strands: %s", o)
	}
	if o.CurBegin != 10 || o.CurEnd != 90 { // 100-90, 100-10
		t.Errorf("wrong cur coordinates after complement: %s", o)
	}
	if o.ExtBegin != 10 || o.ExtEnd != 90 { // 95-85, 95-5
		t.Errorf("wrong ext coordinates after complement: %s", o)
	}
	if o.CurBegin > o.CurEnd || o.ExtBegin > o.ExtEnd {
		t.Errorf("complement broke coordinate ordering: %s", o)
	}
	if o.LeftShift != 0 || o.RightShift != -5 {
		t.Errorf("wrong shifts after complement: %s", o)
	}

	o.Complement(curLen, extLen)
	if o != orig {
		t.Errorf("complement is not an involution: %s != %s", o, orig)
	}
}

func TestNewOverlapRange(t *testing.T) {
	o := NewOverlapRange(4, 6, 17, 42)
	if o.CurRange() != 0 || o.ExtRange() != 0 {
		t.Errorf("a fresh path should be a single point: %s", o)
	}
	if o.CurBegin != 17 || o.ExtBegin != 42 {
		t.Errorf("wrong start positions: %s", o)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		vec  []int32
		want int32
	}{
		{[]int32{5}, 5},
		{[]int32{3, 1, 2}, 2},
		{[]int32{4, 1, 3, 2}, 3}, // element at index n/2 of the sorted slice
		{[]int32{-7, 0, -7, 3, 12}, 0},
	}
	for _, tt := range tests {
		if got := median(tt.vec); got != tt.want {
			t.Errorf("median(%v) = %d, want %d", tt.vec, got, tt.want)
		}
	}
}

func TestEraseMarks(t *testing.T) {
	marks := make([]int, 0, 8)
	marks = insertMark(marks, 3)
	marks = insertMark(marks, 7)
	marks = insertMark(marks, 3)
	marks = insertMark(marks, 1)
	if len(marks) != 3 || marks[0] != 1 || marks[1] != 3 || marks[2] != 7 {
		t.Errorf("unexpected marks: %v", marks)
	}
	marks = removeMark(marks, 3)
	if len(marks) != 2 || marks[0] != 1 || marks[1] != 7 {
		t.Errorf("unexpected marks after removal: %v", marks)
	}
	marks = removeMark(marks, 5)
	if len(marks) != 2 {
		t.Errorf("removing an unknown mark changed the list: %v", marks)
	}
}
