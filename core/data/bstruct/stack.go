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
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"
)

type frameKind int

const (
	structFrame frameKind = iota
	arrayFrame
)

func (k frameKind) String() string {
	if k == arrayFrame {
		return "array"
	}
	return "struct"
}

// resolved records where an object of the open struct was found.
type resolved struct {
	id     int
	token  Token
	offset int64 // Offset of the token byte.
}

// index describes the offset table of an index array.
type index struct {
	offset int64 // Offset of the first int64 entry.
	size   int
}

// frame is one open container.
type frame struct {
	kind     frameKind
	name     string
	count    int // Objects written or read so far.
	size     int // Declared size of an array.
	index    *index
	resolved map[int]resolved // First object seen for each name id.
	consumed map[int64]bool
}

func (f *frame) remember(id int, t Token, offset int64) {
	if f.resolved == nil {
		f.resolved = map[int]resolved{}
	}
	if _, ok := f.resolved[id]; !ok {
		f.resolved[id] = resolved{id: id, token: t, offset: offset}
	}
}

func (f *frame) lookup(id int) (resolved, bool) {
	r, ok := f.resolved[id]
	return r, ok
}

func (f *frame) consume(offset int64) {
	if f.consumed == nil {
		f.consumed = map[int64]bool{}
	}
	f.consumed[offset] = true
}

// stack is the bounded stack of open containers. The first frame is the
// implicit root struct, which is never popped.
type stack struct {
	frames []frame
}

func newStack(max int) stack {
	s := stack{frames: make([]frame, 1, max)}
	s.frames[0] = frame{kind: structFrame}
	return s
}

func (s *stack) depth() int { return len(s.frames) }

func (s *stack) atRoot() bool { return len(s.frames) == 1 }

// top returns the innermost open container.
// The pointer is valid until the next push or pop.
func (s *stack) top() *frame { return &s.frames[len(s.frames)-1] }

func (s *stack) root() *frame { return &s.frames[0] }

// reserve fails if another frame can not be pushed.
func (s *stack) reserve() error {
	if len(s.frames) == cap(s.frames) {
		return errors.Wrapf(ErrDepthExceeded, "limit is %d", cap(s.frames))
	}
	return nil
}

func (s *stack) push(f frame) (*frame, error) {
	if err := s.reserve(); err != nil {
		return nil, err
	}
	s.frames = append(s.frames, f)
	return s.top(), nil
}

func (s *stack) pop() frame {
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f
}

// dump writes one line per open frame, innermost last.
func (s *stack) dump(w io.Writer, nameOf func(id int) string) {
	for i := range s.frames {
		f := &s.frames[i]
		name := f.name
		if i == 0 {
			name = "<root>"
		}
		fmt.Fprintf(w, "#%d %v %q count=%d", i, f.kind, name, f.count)
		if f.kind == arrayFrame {
			fmt.Fprintf(w, " size=%d", f.size)
		}
		if f.index != nil {
			fmt.Fprintf(w, " index=%d@%d", f.index.size, f.index.offset)
		}
		fmt.Fprintln(w)
		seen := make([]resolved, 0, len(f.resolved))
		for _, r := range f.resolved {
			seen = append(seen, r)
		}
		sort.Slice(seen, func(i, j int) bool { return seen[i].offset < seen[j].offset })
		for _, r := range seen {
			fmt.Fprintf(w, "    %s %v @%d\n", nameOf(r.id), r.token.Type, r.offset)
		}
	}
}
