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

package bstruct_test

import (
	"context"
	"strings"
	"testing"

	"github.com/ecoforge/bstruct/core/assert"
	"github.com/ecoforge/bstruct/core/data/bstruct"
	"github.com/ecoforge/bstruct/core/log"
)

// writeLayer writes a struct holding a, b and c, followed by a sibling value.
func writeLayer(ctx context.Context, path string) {
	create(ctx, path, bstruct.DefaultConfig(), func(w *bstruct.Writer) {
		must(ctx, w.BeginStruct(ctx, "layer"))
		must(ctx, w.WriteInt32(ctx, "a", 1))
		must(ctx, w.WriteString(ctx, "b", "clay"))
		must(ctx, w.BeginStruct(ctx, "c"))
		must(ctx, w.WriteFloat64(ctx, "depth", 0.75))
		must(ctx, w.EndStruct(ctx, "c"))
		must(ctx, w.EndStruct(ctx, "layer"))
		must(ctx, w.WriteInt32(ctx, "sibling", 42))
	})
}

func TestNameOrderIndependence(t *testing.T) {
	ctx := log.Testing(t)
	path := newPath(t)
	writeLayer(ctx, path)
	for _, order := range [][]string{
		{"a", "b", "c"},
		{"c", "b", "a"},
		{"b", "a", "c"},
	} {
		ctx := log.Enter(ctx, strings.Join(order, ","))
		r := open(ctx, path, bstruct.DefaultConfig())
		must(ctx, r.BeginStruct(ctx, "layer"))
		for _, name := range order {
			switch name {
			case "a":
				v, err := r.ReadInt32(ctx, "a")
				assert.For(ctx, "a").ThatError(err).Succeeded()
				assert.For(ctx, "a").That(v).Equals(int32(1))
			case "b":
				v, err := r.ReadString(ctx, "b")
				assert.For(ctx, "b").ThatError(err).Succeeded()
				assert.For(ctx, "b").That(v).Equals("clay")
			case "c":
				must(ctx, r.BeginStruct(ctx, "c"))
				v, err := r.ReadFloat64(ctx, "depth")
				assert.For(ctx, "c.depth").ThatError(err).Succeeded()
				assert.For(ctx, "c.depth").That(v).Equals(0.75)
				must(ctx, r.EndStruct(ctx, "c"))
			}
		}
		must(ctx, r.EndStruct(ctx, "layer"))
		v, err := r.ReadInt32(ctx, "sibling")
		assert.For(ctx, "sibling").ThatError(err).Succeeded()
		assert.For(ctx, "sibling").That(v).Equals(int32(42))
		must(ctx, r.Finish(ctx))
	}
}

func TestOutOfOrderStats(t *testing.T) {
	ctx := log.Testing(t)
	path := newPath(t)
	writeLayer(ctx, path)
	r := open(ctx, path, bstruct.DefaultConfig())
	must(ctx, r.BeginStruct(ctx, "layer"))
	_, err := r.ReadString(ctx, "b")
	must(ctx, err)
	_, err = r.ReadInt32(ctx, "a")
	must(ctx, err)
	stats := r.Stats()
	assert.For(ctx, "OutOfOrder").ThatInteger(stats.OutOfOrder).Equals(2)
	assert.For(ctx, "Skipped").ThatInteger(stats.Skipped).IsAtLeast(2)
	must(ctx, r.Finish(ctx))
}

func TestRepeatedRead(t *testing.T) {
	ctx := log.Testing(t)
	path := newPath(t)
	writeLayer(ctx, path)
	r := open(ctx, path, bstruct.DefaultConfig())
	must(ctx, r.BeginStruct(ctx, "layer"))
	for i := 0; i < 3; i++ {
		v, err := r.ReadInt32(ctx, "a")
		assert.For(ctx, "read %d", i).ThatError(err).Succeeded()
		assert.For(ctx, "read %d", i).That(v).Equals(int32(1))
	}
	must(ctx, r.EndStruct(ctx, "layer"))
	must(ctx, r.Finish(ctx))
}

func TestMissingName(t *testing.T) {
	ctx := log.Testing(t)
	path := newPath(t)
	writeLayer(ctx, path)
	r := open(ctx, path, bstruct.DefaultConfig())
	r.SetVerbose(false)
	must(ctx, r.BeginStruct(ctx, "layer"))

	v, err := r.ReadInt32(ctx, "a")
	assert.For(ctx, "a").ThatError(err).Succeeded()
	assert.For(ctx, "a").That(v).Equals(int32(1))

	// "sibling" is in the name table but not in this struct.
	_, err = r.ReadInt32(ctx, "sibling")
	assert.For(ctx, "sibling").ThatError(err).HasCause(bstruct.ErrNotFound)
	assert.For(ctx, "sibling").ThatError(err).IsIn(bstruct.NotFound)

	_, err = r.ReadInt32(ctx, "never-written")
	assert.For(ctx, "never-written").ThatError(err).HasCause(bstruct.ErrUnknownName)
	assert.For(ctx, "IsNotFound").ThatBoolean(bstruct.IsNotFound(err)).IsTrue()

	s, err := r.ReadString(ctx, "b")
	assert.For(ctx, "b after miss").ThatError(err).Succeeded()
	assert.For(ctx, "b after miss").That(s).Equals("clay")
	must(ctx, r.EndStruct(ctx, "layer"))
	must(ctx, r.Finish(ctx))
}

func TestExists(t *testing.T) {
	ctx := log.Testing(t)
	path := newPath(t)
	writeLayer(ctx, path)
	r := open(ctx, path, bstruct.DefaultConfig())
	must(ctx, r.BeginStruct(ctx, "layer"))
	assert.For(ctx, "Exists(c)").ThatBoolean(r.Exists(ctx, "c")).IsTrue()
	assert.For(ctx, "Exists(sibling)").ThatBoolean(r.Exists(ctx, "sibling")).IsFalse()
	assert.For(ctx, "Exists(unknown)").ThatBoolean(r.Exists(ctx, "unknown")).IsFalse()
	assert.For(ctx, "Exists(a)").ThatBoolean(r.Exists(ctx, "a")).IsTrue()
	v, err := r.ReadInt32(ctx, "a")
	assert.For(ctx, "a").ThatError(err).Succeeded()
	assert.For(ctx, "a").That(v).Equals(int32(1))
	must(ctx, r.EndStruct(ctx, "layer"))
	must(ctx, r.Finish(ctx))
}

func TestReportUnread(t *testing.T) {
	ctx := log.Testing(t)
	path := newPath(t)
	writeLayer(ctx, path)
	cfg := bstruct.DefaultConfig()
	cfg.ReportUnread = true
	r := open(ctx, path, cfg)
	_, err := r.ReadInt32(ctx, "sibling")
	must(ctx, err)
	must(ctx, r.Finish(ctx))
	assert.For(ctx, "Unread").ThatInteger(r.Stats().Unread).Equals(1)
}
