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
	"bytes"
	"io"

	"github.com/ecoforge/bstruct/core/data/binary"
	"github.com/ecoforge/bstruct/core/data/endian"
	"github.com/pkg/errors"
)

const (
	magic = "BSTRUCT"
	// Version is the file format version written by this package.
	Version = 1

	tableOffsetPos = int64(len(magic) + 4)
	headerSize     = tableOffsetPos + 8
)

// Header is the fixed size prefix of every file.
type Header struct {
	ByteOrder   endian.ByteOrder
	Version     int32
	TableOffset int64 // Zero until the writer finishes.
}

func readHeader(r io.Reader) (Header, error) {
	var b [headerSize]byte
	n, err := io.ReadFull(r, b[:])
	if n < len(magic) || string(b[:len(magic)]) != magic {
		return Header{}, ErrIncorrectMagic
	}
	if err != nil {
		return Header{}, errors.Wrap(ErrTruncated, "reading header")
	}
	order, ok := endian.Detect(b[len(magic):tableOffsetPos], Version)
	if !ok {
		v := endian.Reader(bytes.NewReader(b[len(magic):]), endian.Little).Int32()
		return Header{}, ErrUnsupportedVersion{Version: v}
	}
	er := endian.Reader(bytes.NewReader(b[len(magic):]), order)
	h := Header{ByteOrder: order, Version: er.Int32(), TableOffset: er.Int64()}
	if h.TableOffset < 0 || (h.TableOffset != 0 && h.TableOffset <= headerSize) {
		return Header{}, errors.Wrapf(ErrBadOffset, "name table offset %d", h.TableOffset)
	}
	return h, nil
}

func writeHeader(w binary.Writer) {
	w.String(magic)
	w.Int32(Version)
	w.Int64(0)
}

// encodeOffset returns the header slot bytes for the name table offset.
func encodeOffset(order endian.ByteOrder, off int64) []byte {
	buf := &bytes.Buffer{}
	endian.Writer(buf, order).Int64(off)
	return buf.Bytes()
}
