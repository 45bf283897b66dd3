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
	"io"
	"os"
)

const streamBufferSize = 64 << 10

// stream is a buffered, seekable view of a file that tracks its logical
// position. A stream is either reading or writing, never both.
type stream struct {
	f   *os.File
	pos int64
	br  *bufio.Reader
	bw  *bufio.Writer
}

func newReadStream(f *os.File) *stream {
	return &stream{f: f, br: bufio.NewReaderSize(f, streamBufferSize)}
}

func newWriteStream(f *os.File, pos int64) *stream {
	return &stream{f: f, pos: pos, bw: bufio.NewWriterSize(f, streamBufferSize)}
}

func (s *stream) Read(p []byte) (int, error) {
	n, err := s.br.Read(p)
	s.pos += int64(n)
	return n, err
}

func (s *stream) Write(p []byte) (int, error) {
	n, err := s.bw.Write(p)
	s.pos += int64(n)
	return n, err
}

// Peek returns the next byte without consuming it.
func (s *stream) Peek() (byte, error) {
	b, err := s.br.Peek(1)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, err
	}
	return b[0], nil
}

// Seek moves the stream to the absolute offset off.
func (s *stream) Seek(off int64) error {
	if off == s.pos {
		return nil
	}
	if err := s.Flush(); err != nil {
		return err
	}
	if s.br != nil {
		// Stay inside the buffer for short forward moves.
		if d := off - s.pos; d > 0 && d <= int64(s.br.Buffered()) {
			n, err := s.br.Discard(int(d))
			s.pos += int64(n)
			return err
		}
	}
	if _, err := s.f.Seek(off, io.SeekStart); err != nil {
		return err
	}
	if s.br != nil {
		s.br.Reset(s.f)
	}
	s.pos = off
	return nil
}

// WriteAt flushes pending writes and writes p at off without moving the
// stream.
func (s *stream) WriteAt(p []byte, off int64) error {
	if err := s.Flush(); err != nil {
		return err
	}
	_, err := s.f.WriteAt(p, off)
	return err
}

func (s *stream) Flush() error {
	if s.bw == nil {
		return nil
	}
	return s.bw.Flush()
}

// Sync flushes pending writes and commits them to stable storage.
func (s *stream) Sync() error {
	if err := s.Flush(); err != nil {
		return err
	}
	return syncData(s.f)
}

// Truncate cuts the file at the current position.
func (s *stream) Truncate() error {
	if err := s.Flush(); err != nil {
		return err
	}
	return s.f.Truncate(s.pos)
}

func (s *stream) Close() error {
	err := s.Flush()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	return err
}
