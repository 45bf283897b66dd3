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

import "github.com/pkg/errors"

// skip consumes the payload of tok, which has already been read. Containers
// are skipped up to and including their end token. depth is the nesting
// depth of the object.
func (r *Reader) skip(tok Token, depth int) error {
	if tok.Type.isEnd() {
		return r.poison(errors.Wrapf(ErrUnexpectedEnd, "%v at %d", tok.Type, r.s.pos-1))
	}
	if n := tok.Type.payloadSize(); n >= 0 {
		r.r.Skip(n)
		return r.ioErr()
	}
	switch tok.Type {
	case TypeShortString:
		r.r.Skip(int64(r.r.Uint8()))
	case TypeString:
		r.r.Skip(int64(r.r.Uint32()))
	case TypeIndexArray:
		r.r.Skip(int64(r.r.Uint32()) * 8)
	case TypeBeginStruct:
		return r.skipContainer(TypeEndStruct, depth+1)
	case TypeBeginShortArray:
		r.r.Uint8()
		return r.skipContainer(TypeEndArray, depth+1)
	case TypeBeginArray:
		r.r.Uint32()
		return r.skipContainer(TypeEndArray, depth+1)
	}
	return r.ioErr()
}

func (r *Reader) skipContainer(end Type, depth int) error {
	if err := r.ioErr(); err != nil {
		return err
	}
	if depth > r.cfg.MaxDepth {
		return r.poison(errors.Wrapf(ErrDepthExceeded, "skipping at %d", r.s.pos))
	}
	for {
		tok, _, err := r.next()
		if err != nil {
			return err
		}
		if tok.Type == end {
			return nil
		}
		if err := r.skip(tok, depth); err != nil {
			return err
		}
	}
}
