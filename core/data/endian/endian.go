// Copyright (C) 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package endian implements binary.Reader and binary.Writer for a chosen byte
// order.
package endian

import (
	eb "encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/ecoforge/bstruct/core/data/binary"
)

// ByteOrder is the order in which multi-byte values are stored.
type ByteOrder int

const (
	// Little is least significant byte first.
	Little ByteOrder = iota
	// Big is most significant byte first.
	Big
)

func (o ByteOrder) String() string {
	switch o {
	case Little:
		return "little-endian"
	case Big:
		return "big-endian"
	default:
		return fmt.Sprintf("ByteOrder(%d)", int(o))
	}
}

// Swapped returns the opposite byte order.
func (o ByteOrder) Swapped() ByteOrder {
	if o == Big {
		return Little
	}
	return Big
}

// Order returns the encoding/binary implementation of the byte order.
func (o ByteOrder) Order() eb.ByteOrder {
	if o == Big {
		return eb.BigEndian
	}
	return eb.LittleEndian
}

// Native returns the byte order of the host.
func Native() ByteOrder {
	if eb.NativeEndian.Uint16([]byte{1, 0}) == 1 {
		return Little
	}
	return Big
}

// Detect returns the byte order in which the four bytes of b hold expect.
// ok is false if neither order matches.
func Detect(b []byte, expect uint32) (order ByteOrder, ok bool) {
	if len(b) < 4 {
		return Little, false
	}
	switch {
	case eb.LittleEndian.Uint32(b) == expect:
		return Little, true
	case eb.BigEndian.Uint32(b) == expect:
		return Big, true
	default:
		return Little, false
	}
}

// Reader creates a binary.Reader that reads from the provided io.Reader, with
// the specified byte order.
func Reader(r io.Reader, order ByteOrder) binary.Reader {
	return &reader{reader: r, byteOrder: order.Order()}
}

// Writer creates a binary.Writer that writes to the supplied stream, with the
// specified byte order.
func Writer(w io.Writer, order ByteOrder) binary.Writer {
	return &writer{writer: w, byteOrder: order.Order()}
}

type reader struct {
	reader    io.Reader
	tmp       [8]byte
	byteOrder eb.ByteOrder
	err       error
}

type writer struct {
	writer    io.Writer
	tmp       [8]byte
	byteOrder eb.ByteOrder
	err       error
}

func (r *reader) Read(p []byte) (n int, err error) {
	return r.reader.Read(p)
}

func (r *reader) Data(p []byte) {
	if r.err != nil {
		return
	}
	if _, err := io.ReadFull(r.reader, p); err != nil {
		r.err = err
	}
}

func (r *reader) Skip(n int64) {
	if r.err != nil || n <= 0 {
		return
	}
	if _, err := io.CopyN(io.Discard, r.reader, n); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		r.err = err
	}
}

func (w *writer) Data(data []byte) {
	if w.err != nil {
		return
	}
	n, err := w.writer.Write(data)
	if err != nil {
		w.err = err
	} else if n != len(data) {
		w.err = io.ErrShortWrite
	}
}

func (r *reader) Bool() bool {
	return r.Uint8() != 0
}

func (w *writer) Bool(v bool) {
	if v {
		w.Uint8(1)
	} else {
		w.Uint8(0)
	}
}

func (r *reader) Int8() int8 {
	return int8(r.Uint8())
}

func (w *writer) Int8(v int8) {
	w.Uint8(uint8(v))
}

func (r *reader) Uint8() uint8 {
	if r.err != nil {
		return 0
	}
	b := r.tmp[:1]
	if _, r.err = io.ReadFull(r.reader, b); r.err != nil {
		return 0
	}
	return b[0]
}

func (w *writer) Uint8(v uint8) {
	w.tmp[0] = v
	w.Data(w.tmp[:1])
}

func (r *reader) fill(n int) []byte {
	if r.err != nil {
		return nil
	}
	if _, r.err = io.ReadFull(r.reader, r.tmp[:n]); r.err != nil {
		return nil
	}
	return r.tmp[:n]
}

func (r *reader) Int16() int16 {
	return int16(r.Uint16())
}

func (w *writer) Int16(v int16) {
	w.Uint16(uint16(v))
}

func (r *reader) Uint16() uint16 {
	b := r.fill(2)
	if b == nil {
		return 0
	}
	return r.byteOrder.Uint16(b)
}

func (w *writer) Uint16(v uint16) {
	w.byteOrder.PutUint16(w.tmp[:], v)
	w.Data(w.tmp[:2])
}

func (r *reader) Int32() int32 {
	return int32(r.Uint32())
}

func (w *writer) Int32(v int32) {
	w.Uint32(uint32(v))
}

func (r *reader) Uint32() uint32 {
	b := r.fill(4)
	if b == nil {
		return 0
	}
	return r.byteOrder.Uint32(b)
}

func (w *writer) Uint32(v uint32) {
	w.byteOrder.PutUint32(w.tmp[:], v)
	w.Data(w.tmp[:4])
}

func (r *reader) Int64() int64 {
	return int64(r.Uint64())
}

func (w *writer) Int64(v int64) {
	w.Uint64(uint64(v))
}

func (r *reader) Uint64() uint64 {
	b := r.fill(8)
	if b == nil {
		return 0
	}
	return r.byteOrder.Uint64(b)
}

func (w *writer) Uint64(v uint64) {
	w.byteOrder.PutUint64(w.tmp[:], v)
	w.Data(w.tmp[:8])
}

func (r *reader) Float32() float32 {
	return math.Float32frombits(r.Uint32())
}

func (w *writer) Float32(v float32) {
	w.Uint32(math.Float32bits(v))
}

func (r *reader) Float64() float64 {
	return math.Float64frombits(r.Uint64())
}

func (w *writer) Float64(v float64) {
	w.Uint64(math.Float64bits(v))
}

func (r *reader) String(n int) string {
	if n <= 0 || r.err != nil {
		return ""
	}
	s := make([]byte, n)
	r.Data(s)
	if r.err != nil {
		return ""
	}
	return string(s)
}

func (w *writer) String(v string) {
	w.Data([]byte(v))
}

func (w *writer) Error() error {
	return w.err
}

func (r *reader) Error() error {
	return r.err
}

func (r *reader) SetError(err error) {
	if r.err != nil {
		return
	}
	r.err = err
}

func (w *writer) SetError(err error) {
	if w.err != nil {
		return
	}
	w.err = err
}
