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

package bstruct

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/ecoforge/bstruct/core/data/binary"
	"github.com/ecoforge/bstruct/core/data/endian"
	"github.com/ecoforge/bstruct/core/fault"
	"github.com/ecoforge/bstruct/core/log"
	"github.com/pkg/errors"
)

// Writer writes a bstruct file.
// Writers should be constructed with Create or Append and closed with Finish.
type Writer struct {
	cfg      Config
	path     string
	s        *stream
	w        binary.Writer
	names    *nameHash
	stack    stack
	warnings fault.List
	appended bool
	finished bool
}

func newWriter(cfg Config, path string, f *os.File, pos int64, names *nameHash) *Writer {
	s := newWriteStream(f, pos)
	return &Writer{
		cfg:   cfg,
		path:  path,
		s:     s,
		w:     endian.Writer(s, cfg.ByteOrder),
		names: names,
		stack: newStack(cfg.MaxDepth),
	}
}

// Create creates or truncates the file at path and writes the header.
func Create(ctx context.Context, path string, cfg Config) (*Writer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := newWriter(cfg, path, f, 0, newNameHash())
	writeHeader(w.w)
	if err := w.w.Error(); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "writing header of %v", path)
	}
	return w, nil
}

// Append opens an existing file for writing more top level objects.
// If the file was finished its name table is loaded, new names continue the
// id sequence and writing resumes over the end of the token stream. A file
// that was never finished is extended from its end with a fresh name table:
// ids of the objects already in it are reassigned to the new names, so those
// objects read back under whatever name now holds their id. A warning is
// logged when such a file already holds objects.
func Append(ctx context.Context, path string, cfg Config) (*Writer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	w, err := appendTo(ctx, path, cfg, f)
	if err != nil {
		f.Close()
		if cfg.Verbose {
			log.Bind(ctx, log.V{"file": path}).W("Append failed: %v", err)
		}
		return nil, err
	}
	return w, nil
}

func appendTo(ctx context.Context, path string, cfg Config, f *os.File) (*Writer, error) {
	h, err := readHeader(f)
	if err != nil {
		return nil, err
	}
	if h.ByteOrder != cfg.ByteOrder {
		return nil, errors.Wrapf(ErrByteOrder, "file is %v, writer is %v", h.ByteOrder, cfg.ByteOrder)
	}
	if h.TableOffset == 0 {
		end, err := f.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, err
		}
		if end > headerSize && cfg.Verbose {
			log.Bind(ctx, log.V{"file": path}).W("No name table, %d bytes of objects will be read with the new names", end-headerSize)
		}
		return newWriter(cfg, path, f, end, newNameHash()), nil
	}
	end := h.TableOffset - 1
	r := endian.Reader(bufio.NewReader(io.NewSectionReader(f, end, math.MaxInt64-end)), h.ByteOrder)
	if t := r.Uint8(); r.Error() != nil || t != (Token{Type: TypeEndOfStream}).Encode() {
		return nil, errors.Wrapf(ErrBadOffset, "no end of stream before the name table at %d", h.TableOffset)
	}
	table, err := readNameTable(r)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(end, io.SeekStart); err != nil {
		return nil, err
	}
	w := newWriter(cfg, path, f, end, table.hash())
	w.appended = true
	return w, nil
}

// SetVerbose enables or disables diagnostic logging.
func (w *Writer) SetVerbose(verbose bool) { w.cfg.Verbose = verbose }

// Offset returns the file offset at which the next token will be written.
func (w *Writer) Offset() int64 { return w.s.pos }

// Warnings returns the non fatal problems found so far, such as arrays whose
// element count differs from their declared size.
func (w *Writer) Warnings() fault.List { return w.warnings }

// NameCount returns the number of distinct names written so far.
func (w *Writer) NameCount() int { return w.names.len() }

// Depth returns the number of open containers, the root included.
func (w *Writer) Depth() int { return w.stack.depth() }

// DumpStack writes the open containers to out.
func (w *Writer) DumpStack(out io.Writer) {
	w.stack.dump(out, strconv.Itoa)
}

// Sync flushes buffered data and commits it to disk.
func (w *Writer) Sync(ctx context.Context) error {
	if err := w.check(); err != nil {
		return err
	}
	return w.report(ctx, w.s.Sync())
}

// Finish closes any open containers, writes the end of stream marker and the
// name table, records the table offset in the header and closes the file.
// Containers left open are closed and reported with ErrUnclosed.
func (w *Writer) Finish(ctx context.Context) error {
	if w.finished {
		return ErrFinished
	}
	var errs fault.List
	if !w.stack.atRoot() {
		errs.Collect(w.report(ctx, errors.Wrapf(ErrUnclosed, "%d open", w.stack.depth()-1)))
		for !w.stack.atRoot() {
			w.closeFrame(ctx, w.stack.pop())
		}
	}
	w.writeToken(Token{Type: TypeEndOfStream})
	offset := w.s.pos
	w.names.write(w.w)
	if err := w.w.Error(); err != nil {
		errs.Collect(err)
	} else {
		if w.appended {
			errs.Collect(w.s.Truncate())
		}
		errs.Collect(w.s.WriteAt(encodeOffset(w.cfg.ByteOrder, offset), tableOffsetPos))
	}
	errs.Collect(w.s.Close())
	w.finished = true
	if w.cfg.Verbose {
		log.Bind(ctx, log.V{"file": w.path}).D("Finished with %d names, table at %d", w.names.len(), offset)
	}
	errs = compact(errs)
	return errs.First()
}

// Abandon flushes what was written and closes the file without finishing it.
// The file can not be opened for reading, but Append continues it from its
// end.
func (w *Writer) Abandon(ctx context.Context) error {
	if w.finished {
		return ErrFinished
	}
	w.finished = true
	return w.report(ctx, w.s.Close())
}

// compact drops the nil entries of l.
func compact(l fault.List) fault.List {
	out := l[:0]
	for _, err := range l {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}

func (w *Writer) check() error {
	if w.finished {
		return ErrFinished
	}
	return w.w.Error()
}

// report logs err if diagnostics are enabled, and returns it.
func (w *Writer) report(ctx context.Context, err error) error {
	if err != nil && w.cfg.Verbose {
		log.Bind(ctx, log.V{"file": w.path}).W("%v", err)
	}
	return err
}

func (w *Writer) failed(ctx context.Context) error {
	if err := w.w.Error(); err != nil {
		return w.report(ctx, errors.Wrapf(err, "writing %v", w.path))
	}
	return nil
}

func (w *Writer) writeToken(t Token) {
	w.w.Uint8(t.Encode())
}

// begin validates name against the open container, then writes the token
// and name id of a new object of type t.
func (w *Writer) begin(ctx context.Context, name string, t Type) error {
	if err := w.check(); err != nil {
		return err
	}
	top := w.stack.top()
	tok, id := Token{Type: t}, 0
	switch {
	case top.kind == arrayFrame && name != "":
		return w.report(ctx, errors.Wrapf(ErrNamedInArray, "%q in %q", name, top.name))
	case top.kind == structFrame && name == "" && !w.stack.atRoot():
		return w.report(ctx, errors.Wrapf(ErrUnnamedInStruct, "in %q", top.name))
	case name != "":
		var err error
		if id, err = w.names.intern(name); err != nil {
			return w.report(ctx, err)
		}
		tok.Named, tok.Wide = true, id > math.MaxUint8
	}
	w.writeToken(tok)
	if tok.Named {
		binary.WriteUint(w.w, tok.idBits(), uint64(id))
	}
	top.count++
	return nil
}

// closeFrame writes the end token of f and checks the size of arrays.
func (w *Writer) closeFrame(ctx context.Context, f frame) {
	if f.kind == arrayFrame {
		w.writeToken(Token{Type: TypeEndArray})
		if f.count != f.size {
			warn := errors.Wrapf(ErrArraySize, "%q declared %d elements, wrote %d", f.name, f.size, f.count)
			w.warnings.Collect(warn)
			w.report(ctx, warn)
		}
		return
	}
	w.writeToken(Token{Type: TypeEndStruct})
}

// WriteNull writes a value with no payload.
func (w *Writer) WriteNull(ctx context.Context, name string) error {
	if err := w.begin(ctx, name, TypeNull); err != nil {
		return err
	}
	return w.failed(ctx)
}

// WriteBool writes a boolean.
func (w *Writer) WriteBool(ctx context.Context, name string, v bool) error {
	t := TypeFalse
	if v {
		t = TypeTrue
	}
	if err := w.begin(ctx, name, t); err != nil {
		return err
	}
	return w.failed(ctx)
}

// WriteUint8 writes a byte.
func (w *Writer) WriteUint8(ctx context.Context, name string, v uint8) error {
	return w.integer(ctx, name, int64(v), true)
}

// WriteInt16 writes a short.
func (w *Writer) WriteInt16(ctx context.Context, name string, v int16) error {
	return w.integer(ctx, name, int64(v), false)
}

// WriteUint16 writes an unsigned short.
func (w *Writer) WriteUint16(ctx context.Context, name string, v uint16) error {
	return w.integer(ctx, name, int64(v), true)
}

// WriteInt32 writes an int in the narrowest encoding that holds v.
func (w *Writer) WriteInt32(ctx context.Context, name string, v int32) error {
	return w.integer(ctx, name, int64(v), false)
}

// intType returns the narrowest integer type holding v. Unsigned values never
// use the signed short encoding.
func intType(v int64, unsigned bool) Type {
	switch {
	case v == 0:
		return TypeIntZero
	case v > 0 && v <= math.MaxUint8:
		return TypeByte
	case !unsigned && v >= math.MinInt16 && v <= math.MaxInt16:
		return TypeShort
	case v > 0 && v <= math.MaxUint16:
		return TypeUShort
	default:
		return TypeInt
	}
}

func (w *Writer) integer(ctx context.Context, name string, v int64, unsigned bool) error {
	t := intType(v, unsigned)
	if err := w.begin(ctx, name, t); err != nil {
		return err
	}
	switch t {
	case TypeByte:
		w.w.Uint8(uint8(v))
	case TypeShort:
		w.w.Int16(int16(v))
	case TypeUShort:
		w.w.Uint16(uint16(v))
	case TypeInt:
		w.w.Int32(int32(v))
	}
	return w.failed(ctx)
}

// WriteReal writes v with the width chosen by Config.Real.
func (w *Writer) WriteReal(ctx context.Context, name string, v float64) error {
	if w.cfg.Real == RealSingle {
		return w.WriteFloat32(ctx, name, float32(v))
	}
	return w.WriteFloat64(ctx, name, v)
}

// WriteFloat32 writes a single precision float. Positive zero is written as
// a bare token.
func (w *Writer) WriteFloat32(ctx context.Context, name string, v float32) error {
	if math.Float32bits(v) == 0 {
		return w.floatZero(ctx, name)
	}
	if err := w.begin(ctx, name, TypeFloat); err != nil {
		return err
	}
	w.w.Float32(v)
	return w.failed(ctx)
}

// WriteFloat64 writes a double precision float. Positive zero is written as
// a bare token.
func (w *Writer) WriteFloat64(ctx context.Context, name string, v float64) error {
	if math.Float64bits(v) == 0 {
		return w.floatZero(ctx, name)
	}
	if err := w.begin(ctx, name, TypeDouble); err != nil {
		return err
	}
	w.w.Float64(v)
	return w.failed(ctx)
}

func (w *Writer) floatZero(ctx context.Context, name string) error {
	if err := w.begin(ctx, name, TypeFloatZero); err != nil {
		return err
	}
	return w.failed(ctx)
}

// WriteString writes a length prefixed string. Strings of up to 255 bytes
// use a one byte length.
func (w *Writer) WriteString(ctx context.Context, name string, v string) error {
	if int64(len(v)) > math.MaxUint32 {
		return w.report(ctx, errors.Wrapf(ErrTooLarge, "string of %d bytes", len(v)))
	}
	short := len(v) <= math.MaxUint8
	t := TypeString
	if short {
		t = TypeShortString
	}
	if err := w.begin(ctx, name, t); err != nil {
		return err
	}
	if short {
		w.w.Uint8(uint8(len(v)))
	} else {
		w.w.Uint32(uint32(len(v)))
	}
	w.w.String(v)
	return w.failed(ctx)
}

// BeginStruct opens a struct. It must be closed by EndStruct with the same
// name.
func (w *Writer) BeginStruct(ctx context.Context, name string) error {
	if err := w.check(); err != nil {
		return err
	}
	if err := w.stack.reserve(); err != nil {
		return w.report(ctx, errors.Wrapf(err, "struct %q", name))
	}
	if err := w.begin(ctx, name, TypeBeginStruct); err != nil {
		return err
	}
	w.stack.push(frame{kind: structFrame, name: name})
	return w.failed(ctx)
}

// EndStruct closes the innermost struct. The open container is closed even
// when it is not the named struct, and the mismatch is returned.
func (w *Writer) EndStruct(ctx context.Context, name string) error {
	if err := w.check(); err != nil {
		return err
	}
	if w.stack.atRoot() {
		return w.report(ctx, errors.Wrapf(ErrNoOpenContainer, "EndStruct(%q)", name))
	}
	f := w.stack.pop()
	w.closeFrame(ctx, f)
	switch {
	case f.kind != structFrame:
		return w.report(ctx, errors.Wrapf(ErrKindMismatch, "EndStruct(%q) closed array %q", name, f.name))
	case f.name != name:
		return w.report(ctx, errors.Wrapf(ErrNameMismatch, "EndStruct(%q) closed struct %q", name, f.name))
	}
	return w.failed(ctx)
}

// BeginArray opens an array that will hold size unnamed elements. Arrays of
// up to 255 elements use a one byte size.
func (w *Writer) BeginArray(ctx context.Context, name string, size int) error {
	if err := w.check(); err != nil {
		return err
	}
	if size < 0 || int64(size) > math.MaxUint32 {
		return w.report(ctx, errors.Wrapf(ErrTooLarge, "size %d for array %q", size, name))
	}
	if err := w.stack.reserve(); err != nil {
		return w.report(ctx, errors.Wrapf(err, "array %q", name))
	}
	short := size <= math.MaxUint8
	t := TypeBeginArray
	if short {
		t = TypeBeginShortArray
	}
	if err := w.begin(ctx, name, t); err != nil {
		return err
	}
	if short {
		w.w.Uint8(uint8(size))
	} else {
		w.w.Uint32(uint32(size))
	}
	w.stack.push(frame{kind: arrayFrame, name: name, size: size})
	return w.failed(ctx)
}

// EndArray closes the innermost array. A difference between the declared
// and the written number of elements is recorded in Warnings.
func (w *Writer) EndArray(ctx context.Context) error {
	if err := w.check(); err != nil {
		return err
	}
	if w.stack.atRoot() {
		return w.report(ctx, errors.Wrap(ErrNoOpenContainer, "EndArray"))
	}
	f := w.stack.pop()
	w.closeFrame(ctx, f)
	if f.kind != arrayFrame {
		return w.report(ctx, errors.Wrapf(ErrKindMismatch, "EndArray closed struct %q", f.name))
	}
	return w.failed(ctx)
}

// BeginIndexArray opens an array of size records preceded by a table of
// their offsets. The table is reserved and filled with zeros; the returned
// region offset is later passed to WriteIndex.
func (w *Writer) BeginIndexArray(ctx context.Context, name string, size int) (int64, error) {
	if err := w.BeginArray(ctx, name, size); err != nil {
		return 0, err
	}
	w.writeToken(Token{Type: TypeIndexArray})
	w.w.Uint32(uint32(size))
	region := w.s.pos
	binary.WriteBytes(w.w, 0, int64(size)*8)
	w.stack.top().index = &index{offset: region, size: size}
	return region, w.failed(ctx)
}

// WriteIndex fills the offset table of the innermost index array. offsets
// holds the value of Offset taken before each record was written.
func (w *Writer) WriteIndex(ctx context.Context, region int64, offsets []int64) error {
	if err := w.check(); err != nil {
		return err
	}
	top := w.stack.top()
	if top.index == nil || top.index.offset != region {
		return w.report(ctx, errors.Wrapf(ErrNotIndexed, "no index region at %d", region))
	}
	if len(offsets) != top.index.size {
		return w.report(ctx, errors.Wrapf(ErrIndexSize, "%d offsets for %d records", len(offsets), top.index.size))
	}
	buf := &bytes.Buffer{}
	enc := endian.Writer(buf, w.cfg.ByteOrder)
	for i, off := range offsets {
		if off < region+int64(len(offsets))*8 || off >= w.s.pos {
			return w.report(ctx, errors.Wrapf(ErrBadOffset, "record %d at %d", i, off))
		}
		enc.Int64(off)
	}
	if err := w.s.WriteAt(buf.Bytes(), region); err != nil {
		return w.report(ctx, errors.Wrapf(err, "writing index of %q", top.name))
	}
	return nil
}
