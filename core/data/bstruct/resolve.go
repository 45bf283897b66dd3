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

// resolve finds the object with name id in the struct f, which must be the
// innermost open container.
//
// The search scans forward from the current position, remembering where
// every object it passes lives. On reaching the end of the struct the
// stream returns to where the search started and the remembered objects are
// consulted, so that values can be read in a different order than they were
// written. A stray end of array also ends the search. When resolve fails with
// ErrNotFound the stream is left where it was.
func (r *Reader) resolve(f *frame, id int) (Token, int64, error) {
	start := r.s.pos
	end := r.endOf(f)
	for first := true; ; first = false {
		at := r.s.pos
		tok, tid, err := r.next()
		if err != nil {
			return Token{}, 0, err
		}
		if tok.Type == TypeEndArray && end != TypeEndArray {
			if err := r.seek(start); err != nil {
				return Token{}, 0, err
			}
			return Token{}, 0, errors.Wrapf(ErrNotFound, "end of array at %d in struct %q", at, f.name)
		}
		if tok.Type.isEnd() {
			if tok.Type != end {
				return Token{}, 0, r.poison(errors.Wrapf(ErrUnexpectedEnd, "%v at %d in struct %q", tok.Type, at, f.name))
			}
			if err := r.seek(start); err != nil {
				return Token{}, 0, err
			}
			m, ok := f.lookup(id)
			if !ok {
				return Token{}, 0, ErrNotFound
			}
			if err := r.seek(m.offset); err != nil {
				return Token{}, 0, err
			}
			if _, _, err := r.next(); err != nil {
				return Token{}, 0, err
			}
			r.stats.OutOfOrder++
			return m.token, m.offset, nil
		}
		if tok.Type == TypeIndexArray {
			return Token{}, 0, r.poison(errors.Wrapf(ErrUnexpectedEnd, "index outside of an array at %d", at))
		}
		if tok.Named {
			f.remember(tid, tok, at)
			if tid == id {
				if !first {
					r.stats.OutOfOrder++
				}
				return tok, at, nil
			}
		}
		r.stats.Skipped++
		if err := r.skip(tok, r.stack.depth()); err != nil {
			return Token{}, 0, err
		}
	}
}
