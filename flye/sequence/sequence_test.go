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

package sequence

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestReadIdStrands(t *testing.T) {
	var id ReadId = 4
	if id.Rc() != 5 || id.Rc().Rc() != id {
		t.Errorf("reverse complement ids broken for %d", id)
	}
	if id.Strand() != '+' || id.Rc().Strand() != '-' {
		t.Errorf("wrong strand chars for %d", id)
	}
}

func TestAddSequence(t *testing.T) {
	c := NewContainer()
	id, err := c.AddSequence("read1", []byte("AACGT"))
	if err != nil {
		t.Fatal(err)
	}
	if id != 0 {
		t.Errorf("first read should get id 0, got %d", id)
	}
	if c.NumSeqs() != 2 {
		t.Errorf("expected both strands registered, got %d", c.NumSeqs())
	}
	if c.SeqLen(id) != 5 || c.SeqLen(id.Rc()) != 5 {
		t.Errorf("wrong lengths: %d / %d", c.SeqLen(id), c.SeqLen(id.Rc()))
	}
	if !bytes.Equal(c.RecordById(id).Seq, []byte("AACGT")) {
		t.Errorf("forward strand mangled: %s", c.RecordById(id).Seq)
	}
	if !bytes.Equal(c.RecordById(id.Rc()).Seq, []byte("ACGTT")) {
		t.Errorf("wrong reverse complement: %s", c.RecordById(id.Rc()).Seq)
	}
	if c.Name(id) != "read1" || c.Name(id.Rc()) != "read1" {
		t.Errorf("both strands should share the name")
	}

	if _, err = c.AddSequence("empty", nil); err == nil {
		t.Error("expected an error for an empty sequence")
	}
}

func TestIterIDsOrder(t *testing.T) {
	c := NewContainer()
	for _, name := range []string{"a", "b", "c"} {
		if _, err := c.AddSequence(name, []byte("ACGTACGT")); err != nil {
			t.Fatal(err)
		}
	}
	want := []ReadId{0, 1, 2, 3, 4, 5}
	got := c.IterIDs()
	if len(got) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("id %d out of order: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestLoadFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "reads.fasta")
	data := ">read1 some description\nACGTACGTAC\n>read2\nTTTTGGGGCC\n"
	if err := os.WriteFile(file, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewContainer()
	if err := c.LoadFile(file); err != nil {
		t.Fatal(err)
	}
	if c.NumSeqs() != 4 {
		t.Fatalf("expected 2 reads on 2 strands, got %d records", c.NumSeqs())
	}
	if c.Name(0) != "read1" || c.Name(2) != "read2" {
		t.Errorf("wrong names: %s, %s", c.Name(0), c.Name(2))
	}
	if !bytes.Equal(c.RecordById(0).Seq, []byte("ACGTACGTAC")) {
		t.Errorf("wrong sequence for read1: %s", c.RecordById(0).Seq)
	}
	if !bytes.Equal(c.RecordById(3).Seq, []byte("GGCCCCAAAA")) {
		t.Errorf("wrong reverse complement for read2: %s", c.RecordById(3).Seq)
	}
}
