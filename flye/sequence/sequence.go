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
	"io"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
)

// Strands could be used to output the strand of a read id.
var Strands = [2]byte{'+', '-'}

// ReadId identifies one strand of one read.
// Every read is registered twice: the forward strand gets an even id and
// the reverse-complement strand gets the next odd id, so the two strands
// of a read always differ only in the lowest bit.
type ReadId int32

// NilReadId is the id of no read.
const NilReadId ReadId = -1

// Rc returns the id of the same read on the other strand.
func (id ReadId) Rc() ReadId { return id ^ 1 }

// Strand returns '+' for forward-strand ids and '-' for reverse-complement ids.
func (id ReadId) Strand() byte { return Strands[id&1] }

// Record is one strand of one read.
type Record struct {
	Id   ReadId
	Name string // sequence ID from the input file, shared by both strands
	Seq  []byte
}

// Container owns all reads of one run, both strands of each.
// After loading it is read-only, methods may be called from multiple
// goroutines without synchronization.
type Container struct {
	records []*Record // indexed by ReadId
	ids     []ReadId  // insertion order, defines the job order downstream
}

// NewContainer creates an empty read container.
func NewContainer() *Container {
	return &Container{
		records: make([]*Record, 0, 1024),
		ids:     make([]ReadId, 0, 1024),
	}
}

// AddSequence registers a read and its reverse complement,
// returning the forward-strand id.
func (c *Container) AddSequence(name string, s []byte) (ReadId, error) {
	if len(s) == 0 {
		return NilReadId, errors.Errorf("empty sequence: %s", name)
	}
	sq, err := seq.NewSeq(seq.DNAredundant, s)
	if err != nil {
		return NilReadId, errors.Wrap(err, name)
	}

	id := ReadId(len(c.records))
	fwd := &Record{Id: id, Name: name, Seq: sq.Seq}
	rev := &Record{Id: id.Rc(), Name: name, Seq: sq.RevCom().Seq}
	c.records = append(c.records, fwd, rev)
	c.ids = append(c.ids, fwd.Id, rev.Id)
	return id, nil
}

// LoadFile reads all FASTA/FASTQ records of a (possibly gzipped) file.
func (c *Container) LoadFile(file string) error {
	reader, err := fastx.NewReader(nil, file, "")
	if err != nil {
		return errors.Wrap(err, file)
	}
	defer reader.Close()

	var record *fastx.Record
	for {
		record, err = reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return errors.Wrap(err, file)
		}

		// the reader reuses the record's buffers between reads
		s := make([]byte, len(record.Seq.Seq))
		copy(s, record.Seq.Seq)

		_, err = c.AddSequence(string(record.ID), s)
		if err != nil {
			return err
		}
	}
	return nil
}

// IterIDs returns all read ids (both strands) in insertion order.
// The returned slice is owned by the container, do not modify it.
func (c *Container) IterIDs() []ReadId { return c.ids }

// NumSeqs returns the number of registered strands (2x the number of reads).
func (c *Container) NumSeqs() int { return len(c.records) }

// RecordById returns the record of a read strand.
// Asking for an unknown id is a bug of the caller.
func (c *Container) RecordById(id ReadId) *Record {
	if id < 0 || int(id) >= len(c.records) {
		panic(errors.Errorf("sequence: unknown read id %d", id))
	}
	return c.records[id]
}

// SeqLen returns the length of a read in bases, identical for both strands.
func (c *Container) SeqLen(id ReadId) int32 {
	return int32(len(c.RecordById(id).Seq))
}

// Name returns the sequence ID of a read, for diagnostics.
func (c *Container) Name(id ReadId) string {
	return c.RecordById(id).Name
}
