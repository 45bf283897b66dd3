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

	"github.com/pkg/errors"
)

// Type is the type of a value in the token stream.
type Type uint8

const (
	TypeNull            Type = iota // No payload.
	TypeIntZero                     // Integer zero, no payload.
	TypeFloatZero                   // Floating point zero, no payload.
	TypeFalse                       // Boolean false, no payload.
	TypeTrue                        // Boolean true, no payload.
	TypeByte                        // uint8.
	TypeShort                       // int16.
	TypeUShort                      // uint16.
	TypeInt                         // int32.
	TypeFloat                       // float32.
	TypeDouble                      // float64.
	TypeString                      // uint32 length, then bytes.
	TypeShortString                 // uint8 length, then bytes.
	TypeBeginStruct                 // Named children until TypeEndStruct.
	TypeBeginArray                  // uint32 size, then unnamed children until TypeEndArray.
	TypeBeginShortArray             // uint8 size, then unnamed children until TypeEndArray.
	TypeIndexArray                  // uint32 count, then count int64 offsets.
	TypeEndStruct
	TypeEndArray
	TypeEndOfStream

	// MaxType is the largest valid type.
	MaxType = TypeEndOfStream
)

const (
	tokenNamed = 0x80
	tokenWide  = 0x40
	tokenType  = 0x3f
)

var typeNames = [...]string{
	TypeNull:            "null",
	TypeIntZero:         "int-zero",
	TypeFloatZero:       "float-zero",
	TypeFalse:           "false",
	TypeTrue:            "true",
	TypeByte:            "byte",
	TypeShort:           "short",
	TypeUShort:          "ushort",
	TypeInt:             "int",
	TypeFloat:           "float",
	TypeDouble:          "double",
	TypeString:          "string",
	TypeShortString:     "short-string",
	TypeBeginStruct:     "begin-struct",
	TypeBeginArray:      "begin-array",
	TypeBeginShortArray: "begin-short-array",
	TypeIndexArray:      "index-array",
	TypeEndStruct:       "end-struct",
	TypeEndArray:        "end-array",
	TypeEndOfStream:     "end-of-stream",
}

func (t Type) String() string {
	if t <= MaxType {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// payloadSize returns the number of payload bytes of a fixed width type, or
// -1 if the type has a variable sized payload.
func (t Type) payloadSize() int64 {
	switch t {
	case TypeNull, TypeIntZero, TypeFloatZero, TypeFalse, TypeTrue,
		TypeEndStruct, TypeEndArray, TypeEndOfStream:
		return 0
	case TypeByte:
		return 1
	case TypeShort, TypeUShort:
		return 2
	case TypeInt, TypeFloat:
		return 4
	case TypeDouble:
		return 8
	default:
		return -1
	}
}

// isEnd returns true for the container and stream terminators.
func (t Type) isEnd() bool {
	return t == TypeEndStruct || t == TypeEndArray || t == TypeEndOfStream
}

// isArray returns true for both begin-array encodings.
func (t Type) isArray() bool {
	return t == TypeBeginArray || t == TypeBeginShortArray
}

// Token is the decoded form of the byte that precedes every value.
type Token struct {
	Type  Type
	Named bool // A name id follows the token.
	Wide  bool // The name id is 16 bits wide, only meaningful when Named.
}

// Encode returns the byte form of the token.
func (t Token) Encode() byte {
	b := byte(t.Type)
	if t.Named {
		b |= tokenNamed
		if t.Wide {
			b |= tokenWide
		}
	}
	return b
}

// idBits returns the width of the name id that follows the token.
func (t Token) idBits() int32 {
	if t.Wide {
		return 16
	}
	return 8
}

func (t Token) String() string {
	switch {
	case !t.Named:
		return t.Type.String()
	case t.Wide:
		return t.Type.String() + "+id16"
	default:
		return t.Type.String() + "+id8"
	}
}

// DecodeToken decodes a token byte.
// Bytes whose type bits are larger than MaxType are rejected with
// ErrInvalidToken.
func DecodeToken(b byte) (Token, error) {
	t := Type(b & tokenType)
	if t > MaxType {
		return Token{}, errors.Wrapf(ErrInvalidToken, "byte 0x%.2x", b)
	}
	named := b&tokenNamed != 0
	return Token{Type: t, Named: named, Wide: named && b&tokenWide != 0}, nil
}
