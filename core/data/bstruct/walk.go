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

	"github.com/pkg/errors"
)

// EventKind identifies what an Event describes.
type EventKind int

const (
	EventValue EventKind = iota
	EventBeginStruct
	EventEndStruct
	EventBeginArray
	EventEndArray
	EventIndex // The offset table of an index array.
)

// Event is a single step of Walk.
type Event struct {
	Kind   EventKind
	Type   Type
	Name   string // Empty for unnamed objects.
	Offset int64  // Offset of the token.
	Depth  int    // Number of containers around the object, the root excluded.
	Size   int    // Declared size, for array events.
	Count  int    // Elements found, for EventEndArray.
	// Value holds the decoded payload of EventValue as one of nil, bool,
	// uint8, int16, uint16, int32, float32, float64 or string, and the
	// offsets of EventIndex as []int64.
	Value interface{}
}

// Visitor is called for each Event of a Walk. Returning an error stops the
// walk.
type Visitor func(ctx context.Context, e Event) error

type walkFrame struct {
	kind  frameKind
	name  string
	size  int
	count int
}

// Walk visits every object of the file in stream order, without regard to
// the containers the reader has entered. The stream position is restored
// when Walk returns.
func (r *Reader) Walk(ctx context.Context, visit Visitor) error {
	if err := r.check(); err != nil {
		return err
	}
	saved := r.s.pos
	if err := r.seek(headerSize); err != nil {
		return err
	}
	err := r.walk(ctx, visit)
	if r.err == nil {
		if serr := r.seek(saved); err == nil {
			err = serr
		}
	}
	return err
}

func (r *Reader) walk(ctx context.Context, visit Visitor) error {
	frames := make([]walkFrame, 1, r.cfg.MaxDepth)
	for {
		at := r.s.pos
		tok, id, err := r.next()
		if err != nil {
			return err
		}
		top := &frames[len(frames)-1]
		e := Event{Type: tok.Type, Offset: at, Depth: len(frames) - 1}
		if tok.Named {
			e.Name, _ = r.names.Name(id)
		}
		switch tok.Type {
		case TypeEndOfStream:
			if len(frames) != 1 {
				return r.poison(errors.Wrapf(ErrUnexpectedEnd, "end of stream at %d inside %v %q", at, top.kind, top.name))
			}
			return nil
		case TypeEndStruct, TypeEndArray:
			want := TypeEndStruct
			if top.kind == arrayFrame {
				want = TypeEndArray
			}
			if len(frames) == 1 || tok.Type != want {
				return r.poison(errors.Wrapf(ErrUnexpectedEnd, "%v at %d", tok.Type, at))
			}
			e.Kind, e.Name, e.Depth = EventEndStruct, top.name, len(frames)-2
			if top.kind == arrayFrame {
				e.Kind, e.Size, e.Count = EventEndArray, top.size, top.count
			}
			frames = frames[:len(frames)-1]
		case TypeBeginStruct, TypeBeginArray, TypeBeginShortArray:
			if len(frames) == cap(frames) {
				return r.poison(errors.Wrapf(ErrDepthExceeded, "%v at %d", tok.Type, at))
			}
			top.count++
			f := walkFrame{kind: structFrame, name: e.Name}
			e.Kind = EventBeginStruct
			if tok.Type != TypeBeginStruct {
				e.Kind, f.kind = EventBeginArray, arrayFrame
				if tok.Type == TypeBeginShortArray {
					f.size = int(r.r.Uint8())
				} else {
					f.size = int(r.r.Uint32())
				}
				e.Size = f.size
			}
			frames = append(frames, f)
		case TypeIndexArray:
			if top.kind != arrayFrame || top.count != 0 {
				return r.poison(errors.Wrapf(ErrUnexpectedEnd, "misplaced index at %d", at))
			}
			n := int64(r.r.Uint32())
			if err := r.ioErr(); err != nil {
				return err
			}
			if err := r.remaining(n * 8); err != nil {
				return err
			}
			offsets := make([]int64, n)
			for i := range offsets {
				offsets[i] = r.r.Int64()
			}
			e.Kind, e.Size, e.Value = EventIndex, int(n), offsets
		default:
			top.count++
			v, err := r.value(tok)
			if err != nil {
				return err
			}
			e.Kind, e.Value = EventValue, v
		}
		if err := r.ioErr(); err != nil {
			return err
		}
		if err := visit(ctx, e); err != nil {
			return err
		}
	}
}

// value decodes the payload of a scalar token.
func (r *Reader) value(tok Token) (interface{}, error) {
	var v interface{}
	switch tok.Type {
	case TypeNull:
	case TypeIntZero:
		v = int32(0)
	case TypeFloatZero:
		v = float64(0)
	case TypeFalse:
		v = false
	case TypeTrue:
		v = true
	case TypeByte:
		v = r.r.Uint8()
	case TypeShort:
		v = r.r.Int16()
	case TypeUShort:
		v = r.r.Uint16()
	case TypeInt:
		v = r.r.Int32()
	case TypeFloat:
		v = r.r.Float32()
	case TypeDouble:
		v = r.r.Float64()
	case TypeShortString, TypeString:
		var n int64
		if tok.Type == TypeShortString {
			n = int64(r.r.Uint8())
		} else {
			n = int64(r.r.Uint32())
		}
		if err := r.ioErr(); err != nil {
			return nil, err
		}
		if err := r.remaining(n); err != nil {
			return nil, err
		}
		v = r.r.String(int(n))
	default:
		return nil, r.poison(errors.Wrapf(ErrInvalidToken, "%v is not a value", tok.Type))
	}
	return v, r.ioErr()
}
