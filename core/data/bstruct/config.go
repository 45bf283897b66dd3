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
	"github.com/ecoforge/bstruct/core/data/endian"
	"github.com/pkg/errors"
)

// RealWidth selects the encoding used by WriteReal.
type RealWidth int

const (
	// RealDouble writes reals as 64 bit floats.
	RealDouble RealWidth = iota
	// RealSingle writes reals as 32 bit floats.
	RealSingle
)

func (w RealWidth) String() string {
	if w == RealSingle {
		return "single"
	}
	return "double"
}

const (
	// DefaultMaxDepth is the default size of the nesting stack, the implicit
	// root struct included.
	DefaultMaxDepth = 15
	// MaxDepthLimit bounds Config.MaxDepth.
	MaxDepthLimit = 64
)

// Config holds the settings of a Reader or Writer.
type Config struct {
	// ByteOrder is the order written by Create. Append fails if the file uses
	// another order. Readers ignore it and use the order of the file.
	ByteOrder endian.ByteOrder
	// Real is the width used by WriteReal.
	Real RealWidth
	// MaxDepth is the number of frames in the nesting stack, root included.
	MaxDepth int
	// Verbose enables diagnostic logging of failures.
	Verbose bool
	// ReportUnread makes Reader.Finish count and log the top level objects
	// that were never read.
	ReportUnread bool
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		ByteOrder: endian.Little,
		Real:      RealDouble,
		MaxDepth:  DefaultMaxDepth,
		Verbose:   true,
	}
}

func (c Config) validate() error {
	switch {
	case c.ByteOrder != endian.Little && c.ByteOrder != endian.Big:
		return errors.Wrapf(ErrInvalidConfig, "byte order %v", c.ByteOrder)
	case c.Real != RealDouble && c.Real != RealSingle:
		return errors.Wrapf(ErrInvalidConfig, "real width %d", int(c.Real))
	case c.MaxDepth < 2 || c.MaxDepth > MaxDepthLimit:
		return errors.Wrapf(ErrInvalidConfig, "max depth %d not in [2, %d]", c.MaxDepth, MaxDepthLimit)
	}
	return nil
}
