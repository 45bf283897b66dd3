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
	"context"
	"io"
	"os"
	"strconv"

	"github.com/ecoforge/bstruct/core/data/binary"
	"github.com/ecoforge/bstruct/core/data/endian"
	"github.com/ecoforge/bstruct/core/log"
	"github.com/pkg/errors"
)

// Stats counts how much work the reader did beyond sequential reading.
type Stats struct {
	OutOfOrder int // Objects found after skipping others or by seeking back.
	Skipped    int // Objects passed over while searching or closing containers.
	Unread     int // Top level objects never read, counted by Finish.
}

// Reader reads a finished bstruct file.
// Readers should be constructed with Open and closed with Finish.
type Reader struct {
	cfg    Config
	path   string
	hdr    Header
	s      *stream
	r      binary.Reader
	names  *NameTable
	stack  stack
	end    int64 // Offset of the end of stream token.
	err    error // Set once the stream is found to be malformed.
	stats  Stats
	closed bool
}

// Open opens the finished file at path, detects its byte order and loads its
// name table. Files that were never finished have no name table and fail
// with ErrNoNameTable.
func Open(ctx context.Context, path string, cfg Config) (*Reader, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := open(path, cfg, f)
	if err != nil {
		f.Close()
		if cfg.Verbose {
			log.Bind(ctx, log.V{"file": path}).W("Open failed: %v", err)
		}
		return nil, err
	}
	return r, nil
}

func open(path string, cfg Config, f *os.File) (*Reader, error) {
	s := newReadStream(f)
	h, err := readHeader(s)
	if err != nil {
		return nil, err
	}
	if h.TableOffset == 0 {
		return nil, errors.Wrapf(ErrNoNameTable, "%v was not finished", path)
	}
	end := h.TableOffset - 1
	if err := s.Seek(end); err != nil {
		return nil, err
	}
	br := endian.Reader(s, h.ByteOrder)
	if t := br.Uint8(); br.Error() != nil || t != (Token{Type: TypeEndOfStream}).Encode() {
		return nil, errors.Wrapf(ErrBadOffset, "no end of stream before the name table at %d", h.TableOffset)
	}
	names, err := readNameTable(br)
	if err != nil {
		return nil, err
	}
	if err := s.Seek(headerSize); err != nil {
		return nil, err
	}
	return &Reader{
		cfg:   cfg,
		path:  path,
		hdr:   h,
		s:     s,
		r:     br,
		names: names,
		stack: newStack(cfg.MaxDepth),
		end:   end,
	}, nil
}

// SetVerbose enables or disables diagnostic logging.
func (r *Reader) SetVerbose(verbose bool) { r.cfg.Verbose = verbose }

// Header returns the file header.
func (r *Reader) Header() Header { return r.hdr }

// ByteOrder returns the byte order the file was written with.
func (r *Reader) ByteOrder() endian.ByteOrder { return r.hdr.ByteOrder }

// Names returns the name table of the file.
func (r *Reader) Names() *NameTable { return r.names }

// Stats returns the counters gathered so far.
func (r *Reader) Stats() Stats { return r.stats }

// Depth returns the number of open containers, the root included.
func (r *Reader) Depth() int { return r.stack.depth() }

// Err returns the error that made the stream unreadable, if any.
func (r *Reader) Err() error { return r.err }

// DumpStack writes the open containers and the objects resolved in each to
// out.
func (r *Reader) DumpStack(out io.Writer) {
	r.stack.dump(out, func(id int) string {
		if name, ok := r.names.Name(id); ok {
			return strconv.Quote(name)
		}
		return "#" + strconv.Itoa(id)
	})
}

// Finish closes the file. With Config.ReportUnread set it first counts, and
// logs, the top level objects that were never read.
func (r *Reader) Finish(ctx context.Context) error {
	if r.closed {
		return ErrFinished
	}
	var err error
	if r.cfg.ReportUnread && r.err == nil {
		err = r.reportUnread(ctx)
	}
	if cerr := r.s.Close(); err == nil {
		err = cerr
	}
	r.closed = true
	return err
}

func (r *Reader) reportUnread(ctx context.Context) error {
	if err := r.seek(headerSize); err != nil {
		return err
	}
	root := r.stack.root()
	for {
		at := r.s.pos
		tok, id, err := r.next()
		if err != nil {
			return err
		}
		if tok.Type == TypeEndOfStream {
			return nil
		}
		if !root.consumed[at] {
			r.stats.Unread++
			if r.cfg.Verbose {
				name, _ := r.names.Name(id)
				log.Bind(ctx, log.V{"file": r.path}).W("Unread %v %q at %d", tok.Type, name, at)
			}
		}
		if err := r.skip(tok, 1); err != nil {
			return err
		}
	}
}

func (r *Reader) check() error {
	if r.closed {
		return ErrFinished
	}
	return r.err
}

// fail logs err if diagnostics are enabled, and returns it.
func (r *Reader) fail(ctx context.Context, err error) error {
	if r.cfg.Verbose {
		log.Bind(ctx, log.V{"file": r.path}).W("%v", err)
	}
	return err
}

// poison marks the stream as unreadable.
func (r *Reader) poison(err error) error {
	if c := errors.Cause(err); c == io.EOF || c == io.ErrUnexpectedEOF {
		err = errors.Wrapf(ErrTruncated, "at %d", r.s.pos)
	}
	if r.err == nil {
		r.err = err
	}
	return err
}

func (r *Reader) ioErr() error {
	if err := r.r.Error(); err != nil {
		return r.poison(err)
	}
	return nil
}

func (r *Reader) seek(off int64) error {
	if err := r.s.Seek(off); err != nil {
		return r.poison(err)
	}
	return nil
}

// remaining fails if n bytes can not fit before the end of the stream.
func (r *Reader) remaining(n int64) error {
	if n > r.end-r.s.pos {
		return r.poison(errors.Wrapf(ErrTruncated, "%d bytes at %d", n, r.s.pos))
	}
	return nil
}

// next reads a token and, for named tokens, its name id. id is -1 for
// unnamed tokens.
func (r *Reader) next() (Token, int, error) {
	at := r.s.pos
	b := r.r.Uint8()
	if err := r.ioErr(); err != nil {
		return Token{}, -1, err
	}
	tok, err := DecodeToken(b)
	if err != nil {
		return Token{}, -1, r.poison(errors.Wrapf(err, "at %d", at))
	}
	if !tok.Named {
		return tok, -1, nil
	}
	id := int(binary.ReadUint(r.r, tok.idBits()))
	if err := r.ioErr(); err != nil {
		return Token{}, -1, err
	}
	if id >= r.names.Len() {
		return Token{}, -1, r.poison(errors.Wrapf(ErrInvalidNameID, "id %d at %d, table holds %d names", id, at, r.names.Len()))
	}
	return tok, id, nil
}

// find locates the object called name in the innermost container and leaves
// the stream at its payload.
func (r *Reader) find(ctx context.Context, name string) (Token, int64, error) {
	if err := r.check(); err != nil {
		return Token{}, 0, err
	}
	top := r.stack.top()
	switch {
	case top.kind == arrayFrame && name != "":
		return Token{}, 0, r.fail(ctx, errors.Wrapf(ErrNamedInArray, "%q in %q", name, top.name))
	case top.kind == structFrame && name == "" && !r.stack.atRoot():
		return Token{}, 0, r.fail(ctx, errors.Wrapf(ErrUnnamedInStruct, "in %q", top.name))
	case name == "":
		return r.sequential(ctx, top)
	}
	id, ok := r.names.ID(name)
	if !ok {
		return Token{}, 0, r.fail(ctx, errors.Wrapf(ErrUnknownName, "%q", name))
	}
	tok, at, err := r.resolve(top, id)
	if err != nil {
		return Token{}, 0, r.fail(ctx, errors.Wrapf(err, "%q", name))
	}
	top.consume(at)
	top.count++
	return tok, at, nil
}

// sequential reads the next unnamed object of an array or of the root.
func (r *Reader) sequential(ctx context.Context, top *frame) (Token, int64, error) {
	at := r.s.pos
	tok, _, err := r.next()
	if err != nil {
		return Token{}, 0, r.fail(ctx, err)
	}
	switch {
	case tok.Type == r.endOf(top):
		if err := r.seek(at); err != nil {
			return Token{}, 0, r.fail(ctx, err)
		}
		return Token{}, 0, r.fail(ctx, errors.Wrapf(ErrNotFound, "no more objects in %q", top.name))
	case tok.Type.isEnd() || tok.Type == TypeIndexArray:
		return Token{}, 0, r.fail(ctx, r.poison(errors.Wrapf(ErrUnexpectedEnd, "%v at %d", tok.Type, at)))
	}
	top.consume(at)
	top.count++
	return tok, at, nil
}

// endOf returns the token type that closes f.
func (r *Reader) endOf(f *frame) Type {
	switch {
	case f.kind == arrayFrame:
		return TypeEndArray
	case f == r.stack.root():
		return TypeEndOfStream
	default:
		return TypeEndStruct
	}
}

// mismatch skips the payload of an object that was found with the wrong type.
func (r *Reader) mismatch(ctx context.Context, name string, tok Token, want string) error {
	if err := r.skip(tok, r.stack.depth()); err != nil {
		return r.fail(ctx, err)
	}
	return r.fail(ctx, errors.Wrapf(ErrTypeMismatch, "%q is %v, not %s", name, tok.Type, want))
}

func (r *Reader) payload(ctx context.Context) error {
	if err := r.ioErr(); err != nil {
		return r.fail(ctx, err)
	}
	return nil
}

// ReadNull reads a value with no payload.
func (r *Reader) ReadNull(ctx context.Context, name string) error {
	tok, _, err := r.find(ctx, name)
	if err != nil {
		return err
	}
	if tok.Type != TypeNull {
		return r.mismatch(ctx, name, tok, "null")
	}
	return nil
}

// ReadBool reads a boolean.
func (r *Reader) ReadBool(ctx context.Context, name string) (bool, error) {
	tok, _, err := r.find(ctx, name)
	if err != nil {
		return false, err
	}
	switch tok.Type {
	case TypeFalse:
		return false, nil
	case TypeTrue:
		return true, nil
	}
	return false, r.mismatch(ctx, name, tok, "bool")
}

// ReadUint8 reads a byte.
func (r *Reader) ReadUint8(ctx context.Context, name string) (uint8, error) {
	tok, _, err := r.find(ctx, name)
	if err != nil {
		return 0, err
	}
	switch tok.Type {
	case TypeIntZero:
		return 0, nil
	case TypeByte:
		v := r.r.Uint8()
		return v, r.payload(ctx)
	}
	return 0, r.mismatch(ctx, name, tok, "byte")
}

// ReadInt16 reads a short. Bytes are promoted.
func (r *Reader) ReadInt16(ctx context.Context, name string) (int16, error) {
	tok, _, err := r.find(ctx, name)
	if err != nil {
		return 0, err
	}
	var v int16
	switch tok.Type {
	case TypeIntZero:
	case TypeByte:
		v = int16(r.r.Uint8())
	case TypeShort:
		v = r.r.Int16()
	default:
		return 0, r.mismatch(ctx, name, tok, "short")
	}
	return v, r.payload(ctx)
}

// ReadUint16 reads an unsigned short. Bytes are promoted.
func (r *Reader) ReadUint16(ctx context.Context, name string) (uint16, error) {
	tok, _, err := r.find(ctx, name)
	if err != nil {
		return 0, err
	}
	var v uint16
	switch tok.Type {
	case TypeIntZero:
	case TypeByte:
		v = uint16(r.r.Uint8())
	case TypeUShort:
		v = r.r.Uint16()
	default:
		return 0, r.mismatch(ctx, name, tok, "ushort")
	}
	return v, r.payload(ctx)
}

// ReadInt32 reads an int stored with any integer encoding.
func (r *Reader) ReadInt32(ctx context.Context, name string) (int32, error) {
	tok, _, err := r.find(ctx, name)
	if err != nil {
		return 0, err
	}
	var v int32
	switch tok.Type {
	case TypeIntZero:
	case TypeByte:
		v = int32(r.r.Uint8())
	case TypeShort:
		v = int32(r.r.Int16())
	case TypeUShort:
		v = int32(r.r.Uint16())
	case TypeInt:
		v = r.r.Int32()
	default:
		return 0, r.mismatch(ctx, name, tok, "int")
	}
	return v, r.payload(ctx)
}

// ReadFloat32 reads a single precision float.
func (r *Reader) ReadFloat32(ctx context.Context, name string) (float32, error) {
	tok, _, err := r.find(ctx, name)
	if err != nil {
		return 0, err
	}
	switch tok.Type {
	case TypeFloatZero:
		return 0, nil
	case TypeFloat:
		v := r.r.Float32()
		return v, r.payload(ctx)
	}
	return 0, r.mismatch(ctx, name, tok, "float")
}

// ReadFloat64 reads a float of either width.
func (r *Reader) ReadFloat64(ctx context.Context, name string) (float64, error) {
	tok, _, err := r.find(ctx, name)
	if err != nil {
		return 0, err
	}
	var v float64
	switch tok.Type {
	case TypeFloatZero:
	case TypeFloat:
		v = float64(r.r.Float32())
	case TypeDouble:
		v = r.r.Float64()
	default:
		return 0, r.mismatch(ctx, name, tok, "double")
	}
	return v, r.payload(ctx)
}

// ReadReal reads a value written by WriteReal, whatever width the writer
// used.
func (r *Reader) ReadReal(ctx context.Context, name string) (float64, error) {
	return r.ReadFloat64(ctx, name)
}

// ReadString reads a string of either length encoding.
func (r *Reader) ReadString(ctx context.Context, name string) (string, error) {
	tok, _, err := r.find(ctx, name)
	if err != nil {
		return "", err
	}
	var n int64
	switch tok.Type {
	case TypeShortString:
		n = int64(r.r.Uint8())
	case TypeString:
		n = int64(r.r.Uint32())
	default:
		return "", r.mismatch(ctx, name, tok, "string")
	}
	if err := r.payload(ctx); err != nil {
		return "", err
	}
	if err := r.remaining(n); err != nil {
		return "", r.fail(ctx, err)
	}
	v := r.r.String(int(n))
	return v, r.payload(ctx)
}

// BeginStruct enters the struct called name. Inside an array, or for
// unnamed structs at the top level, name is empty.
func (r *Reader) BeginStruct(ctx context.Context, name string) error {
	if err := r.check(); err != nil {
		return err
	}
	if err := r.stack.reserve(); err != nil {
		return r.fail(ctx, errors.Wrapf(err, "struct %q", name))
	}
	tok, _, err := r.find(ctx, name)
	if err != nil {
		return err
	}
	if tok.Type != TypeBeginStruct {
		return r.mismatch(ctx, name, tok, "struct")
	}
	r.stack.push(frame{kind: structFrame, name: name})
	return nil
}

// EndStruct leaves the innermost struct, skipping the objects that were not
// read. The container is left even when it is not the named struct, and the
// mismatch is returned.
func (r *Reader) EndStruct(ctx context.Context, name string) error {
	if err := r.check(); err != nil {
		return err
	}
	if r.stack.atRoot() {
		return r.fail(ctx, errors.Wrapf(ErrNoOpenContainer, "EndStruct(%q)", name))
	}
	f, err := r.leave()
	switch {
	case err != nil:
		return r.fail(ctx, err)
	case f.kind != structFrame:
		return r.fail(ctx, errors.Wrapf(ErrKindMismatch, "EndStruct(%q) closed array %q", name, f.name))
	case f.name != name:
		return r.fail(ctx, errors.Wrapf(ErrNameMismatch, "EndStruct(%q) closed struct %q", name, f.name))
	}
	return nil
}

// BeginArray enters the array called name and returns its declared size.
// The offset table of an index array is skipped and kept for SeekIndex.
func (r *Reader) BeginArray(ctx context.Context, name string) (int, error) {
	if err := r.check(); err != nil {
		return 0, err
	}
	if err := r.stack.reserve(); err != nil {
		return 0, r.fail(ctx, errors.Wrapf(err, "array %q", name))
	}
	tok, _, err := r.find(ctx, name)
	if err != nil {
		return 0, err
	}
	var size int
	switch tok.Type {
	case TypeBeginShortArray:
		size = int(r.r.Uint8())
	case TypeBeginArray:
		size = int(r.r.Uint32())
	default:
		return 0, r.mismatch(ctx, name, tok, "array")
	}
	if err := r.payload(ctx); err != nil {
		return 0, err
	}
	f := frame{kind: arrayFrame, name: name, size: size}
	if b, err := r.s.Peek(); err == nil && b == (Token{Type: TypeIndexArray}).Encode() {
		r.r.Uint8()
		n := int64(r.r.Uint32())
		if err := r.payload(ctx); err != nil {
			return 0, err
		}
		if err := r.remaining(n * 8); err != nil {
			return 0, r.fail(ctx, err)
		}
		f.index = &index{offset: r.s.pos, size: int(n)}
		r.r.Skip(n * 8)
		if err := r.payload(ctx); err != nil {
			return 0, err
		}
	}
	r.stack.push(f)
	return size, nil
}

// EndArray leaves the innermost array, skipping the elements that were not
// read.
func (r *Reader) EndArray(ctx context.Context) error {
	if err := r.check(); err != nil {
		return err
	}
	if r.stack.atRoot() {
		return r.fail(ctx, errors.Wrap(ErrNoOpenContainer, "EndArray"))
	}
	f, err := r.leave()
	switch {
	case err != nil:
		return r.fail(ctx, err)
	case f.kind != arrayFrame:
		return r.fail(ctx, errors.Wrapf(ErrKindMismatch, "EndArray closed struct %q", f.name))
	}
	return nil
}

// leave skips to the end token of the innermost container and pops it.
func (r *Reader) leave() (frame, error) {
	top := r.stack.top()
	end := r.endOf(top)
	for {
		at := r.s.pos
		tok, _, err := r.next()
		if err != nil {
			return r.stack.pop(), err
		}
		if tok.Type == end {
			return r.stack.pop(), nil
		}
		if tok.Type.isEnd() {
			return r.stack.pop(), r.poison(errors.Wrapf(ErrUnexpectedEnd, "%v at %d closing %v %q", tok.Type, at, top.kind, top.name))
		}
		if tok.Type != TypeIndexArray {
			r.stats.Skipped++
		}
		if err := r.skip(tok, r.stack.depth()); err != nil {
			return r.stack.pop(), err
		}
	}
}

// SeekIndex moves to record n of the innermost index array. size must match
// the number of entries in the offset table.
func (r *Reader) SeekIndex(ctx context.Context, n, size int) error {
	if err := r.check(); err != nil {
		return err
	}
	top := r.stack.top()
	switch {
	case top.kind != arrayFrame || top.index == nil:
		return r.fail(ctx, errors.Wrapf(ErrNotIndexed, "%q", top.name))
	case size != top.index.size:
		return r.fail(ctx, errors.Wrapf(ErrIndexSize, "%q has %d entries, not %d", top.name, top.index.size, size))
	case n < 0 || n >= size:
		return r.fail(ctx, errors.Wrapf(ErrIndexOutOfBounds, "record %d of %d in %q", n, size, top.name))
	}
	if err := r.seek(top.index.offset + int64(n)*8); err != nil {
		return r.fail(ctx, err)
	}
	off := r.r.Int64()
	if err := r.payload(ctx); err != nil {
		return err
	}
	if off < top.index.offset+int64(size)*8 || off >= r.end {
		return r.fail(ctx, r.poison(errors.Wrapf(ErrBadOffset, "record %d of %q at %d", n, top.name, off)))
	}
	if err := r.seek(off); err != nil {
		return r.fail(ctx, err)
	}
	top.count = n
	return nil
}

// Exists returns true if the innermost struct holds an object called name.
// It never logs and leaves the stream positioned at the object.
func (r *Reader) Exists(ctx context.Context, name string) bool {
	if r.check() != nil || name == "" {
		return false
	}
	top := r.stack.top()
	if top.kind != structFrame {
		return false
	}
	id, ok := r.names.ID(name)
	if !ok {
		return false
	}
	_, at, err := r.resolve(top, id)
	if err != nil {
		return false
	}
	return r.seek(at) == nil
}
