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

	"github.com/ecoforge/bstruct/core/fault"
	"github.com/pkg/errors"
)

// Malformed stream errors. The stream can not be trusted past the point at
// which one of these was found.
const (
	ErrIncorrectMagic   = fault.Const("Incorrect bstruct magic header")
	ErrInvalidToken     = fault.Const("Invalid token")
	ErrUnexpectedEnd    = fault.Const("Unexpected end marker")
	ErrTruncated        = fault.Const("Unexpected end of file")
	ErrInvalidNameID    = fault.Const("Name id out of range")
	ErrCorruptNameTable = fault.Const("Corrupt name table")
	ErrBadOffset        = fault.Const("Offset outside of the token stream")
)

// ErrTypeMismatch is returned when a stored value can not be read as the
// requested type.
const ErrTypeMismatch = fault.Const("Type mismatch")

// Not found errors. The stream stays usable.
const (
	ErrNotFound    = fault.Const("Object not found")
	ErrUnknownName = fault.Const("Name not in the name table")
)

// Structural errors.
const (
	ErrDepthExceeded    = fault.Const("Maximum nesting depth exceeded")
	ErrKindMismatch     = fault.Const("End does not match the open container")
	ErrNameMismatch     = fault.Const("Struct name does not match the open struct")
	ErrUnnamedInStruct  = fault.Const("Objects inside a struct must be named")
	ErrNamedInArray     = fault.Const("Objects inside an array must be unnamed")
	ErrNoOpenContainer  = fault.Const("No open container to end")
	ErrUnclosed         = fault.Const("Containers left open")
	ErrNotIndexed       = fault.Const("Array has no index")
	ErrIndexSize        = fault.Const("Index size does not match")
	ErrIndexOutOfBounds = fault.Const("Index out of bounds")
	ErrTooLarge         = fault.Const("Length does not fit the format")
)

// Resource and usage errors.
const (
	ErrNoNameTable   = fault.Const("File has no name table")
	ErrByteOrder     = fault.Const("Can not append with a different byte order")
	ErrTooManyNames  = fault.Const("Too many names")
	ErrNameTooLong   = fault.Const("Name too long")
	ErrFinished      = fault.Const("File already finished")
	ErrInvalidConfig = fault.Const("Invalid configuration")
)

// ErrArraySize is reported when the number of elements written to an array
// differs from its declared size. It is not fatal.
const ErrArraySize = fault.Const("Array size mismatch")

var (
	// Malformed holds the errors that leave the stream unreadable.
	Malformed = fault.NewClass("malformed-stream",
		ErrIncorrectMagic, ErrInvalidToken, ErrUnexpectedEnd, ErrTruncated,
		ErrInvalidNameID, ErrCorruptNameTable, ErrBadOffset)
	// NotFound holds the errors for missing names and objects.
	NotFound = fault.NewClass("not-found", ErrNotFound, ErrUnknownName)
	// Structural holds the errors for misuse of the nesting stack.
	Structural = fault.NewClass("structural",
		ErrDepthExceeded, ErrKindMismatch, ErrNameMismatch, ErrUnnamedInStruct,
		ErrNamedInArray, ErrNoOpenContainer, ErrUnclosed, ErrNotIndexed,
		ErrIndexSize, ErrIndexOutOfBounds, ErrTooLarge)
)

// IsMalformed returns true if err was caused by a malformed stream.
func IsMalformed(err error) bool { return Malformed.Contains(errors.Cause(err)) }

// IsNotFound returns true if err was caused by a missing name or object.
func IsNotFound(err error) bool { return NotFound.Contains(errors.Cause(err)) }

// IsStructural returns true if err was caused by misuse of the nesting stack.
func IsStructural(err error) bool { return Structural.Contains(errors.Cause(err)) }

// IsTypeMismatch returns true if err was caused by reading a value as an
// incompatible type.
func IsTypeMismatch(err error) bool { return errors.Cause(err) == ErrTypeMismatch }

// ErrUnsupportedVersion is the error returned when the header version is one
// this package cannot handle.
type ErrUnsupportedVersion struct{ Version int32 }

func (e ErrUnsupportedVersion) Error() string {
	return fmt.Sprintf("Unsupported bstruct file version: %v", e.Version)
}
