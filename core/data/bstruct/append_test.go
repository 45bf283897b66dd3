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
	"strings"
	"testing"

	"github.com/ecoforge/bstruct/core/assert"
	"github.com/ecoforge/bstruct/core/data/bstruct"
	"github.com/ecoforge/bstruct/core/data/endian"
	"github.com/ecoforge/bstruct/core/log"
)

func TestAppend(t *testing.T) {
	ctx := log.Testing(t)
	path := newPath(t)
	cfg := bstruct.DefaultConfig()
	create(ctx, path, cfg, func(w *bstruct.Writer) {
		must(ctx, w.WriteInt32(ctx, "a", 1))
	})

	w, err := bstruct.Append(ctx, path, cfg)
	assert.For(ctx, "Append").Critical().ThatError(err).Succeeded()
	assert.For(ctx, "names after append").ThatInteger(w.NameCount()).Equals(1)
	must(ctx, w.WriteInt32(ctx, "b", 2))
	must(ctx, w.WriteInt32(ctx, "a", 3))
	assert.For(ctx, "names").ThatInteger(w.NameCount()).Equals(2)
	must(ctx, w.Finish(ctx))

	r := open(ctx, path, cfg)
	a, err := r.ReadInt32(ctx, "a")
	assert.For(ctx, "a").ThatError(err).Succeeded()
	assert.For(ctx, "a").That(a).Equals(int32(1))
	b, err := r.ReadInt32(ctx, "b")
	assert.For(ctx, "b").ThatError(err).Succeeded()
	assert.For(ctx, "b").That(b).Equals(int32(2))
	assert.For(ctx, "names").ThatSlice(r.Names().Entries()).DeepEquals([]bstruct.NameEntry{
		{Name: "a", ID: 0},
		{Name: "b", ID: 1},
	})
	must(ctx, r.Finish(ctx))
}

func TestAppendTwice(t *testing.T) {
	ctx := log.Testing(t)
	path := newPath(t)
	cfg := bstruct.DefaultConfig()
	cfg.ByteOrder = endian.Big
	create(ctx, path, cfg, func(w *bstruct.Writer) {
		must(ctx, w.WriteString(ctx, "run", "first"))
	})
	for _, name := range []string{"second", "third"} {
		w, err := bstruct.Append(ctx, path, cfg)
		assert.For(ctx, "Append").Critical().ThatError(err).Succeeded()
		must(ctx, w.BeginStruct(ctx, name))
		must(ctx, w.WriteBool(ctx, "done", true))
		must(ctx, w.EndStruct(ctx, name))
		must(ctx, w.Finish(ctx))
	}
	r := open(ctx, path, bstruct.DefaultConfig())
	for _, name := range []string{"third", "second"} {
		must(ctx, r.BeginStruct(ctx, name))
		done, err := r.ReadBool(ctx, "done")
		assert.For(ctx, "%v.done", name).ThatError(err).Succeeded()
		assert.For(ctx, "%v.done", name).That(done).Equals(true)
		must(ctx, r.EndStruct(ctx, name))
	}
	run, err := r.ReadString(ctx, "run")
	assert.For(ctx, "run").ThatError(err).Succeeded()
	assert.For(ctx, "run").That(run).Equals("first")
	must(ctx, r.Finish(ctx))
}

func TestAppendByteOrder(t *testing.T) {
	ctx := log.Testing(t)
	path := newPath(t)
	cfg := bstruct.DefaultConfig()
	cfg.ByteOrder = endian.Big
	create(ctx, path, cfg, func(w *bstruct.Writer) {
		must(ctx, w.WriteInt32(ctx, "a", 1))
	})
	cfg.ByteOrder = endian.Little
	_, err := bstruct.Append(ctx, path, cfg)
	assert.For(ctx, "Append").ThatError(err).HasCause(bstruct.ErrByteOrder)
}

func TestAppendUnfinished(t *testing.T) {
	ctx := log.Testing(t)
	path := newPath(t)
	cfg := bstruct.DefaultConfig()
	w, err := bstruct.Create(ctx, path, cfg)
	assert.For(ctx, "Create").Critical().ThatError(err).Succeeded()
	must(ctx, w.WriteInt32(ctx, "a", 1))
	must(ctx, w.Sync(ctx))
	must(ctx, w.Abandon(ctx))
	assert.For(ctx, "write after Abandon").ThatError(w.WriteInt32(ctx, "b", 2)).Equals(bstruct.ErrFinished)

	_, err = bstruct.Open(ctx, path, cfg)
	assert.For(ctx, "Open unfinished").ThatError(err).HasCause(bstruct.ErrNoNameTable)

	w, err = bstruct.Append(ctx, path, cfg)
	assert.For(ctx, "Append").Critical().ThatError(err).Succeeded()
	assert.For(ctx, "fresh names").ThatInteger(w.NameCount()).Equals(0)
	must(ctx, w.WriteInt32(ctx, "a", 1))
	must(ctx, w.Finish(ctx))

	r := open(ctx, path, cfg)
	v, err := r.ReadInt32(ctx, "a")
	assert.For(ctx, "a").ThatError(err).Succeeded()
	assert.For(ctx, "a").That(v).Equals(int32(1))
	must(ctx, r.Finish(ctx))
}

func TestAppendUnfinishedReassignsIDs(t *testing.T) {
	ctx := log.Testing(t)
	path := newPath(t)
	cfg := bstruct.DefaultConfig()
	w, err := bstruct.Create(ctx, path, cfg)
	assert.For(ctx, "Create").Critical().ThatError(err).Succeeded()
	must(ctx, w.WriteInt32(ctx, "a", 1))
	must(ctx, w.Abandon(ctx))

	warnings := []string{}
	logged := log.PutHandler(ctx, log.NewHandler(func(m *log.Message) {
		if m.Severity == log.Warning {
			warnings = append(warnings, m.Text)
		}
	}, nil))
	w, err = bstruct.Append(logged, path, cfg)
	assert.For(ctx, "Append").Critical().ThatError(err).Succeeded()
	assert.For(ctx, "warnings").ThatInteger(len(warnings)).Equals(1)
	if len(warnings) > 0 {
		assert.For(ctx, "warning").ThatString(warnings[0]).Contains("No name table")
	}
	must(ctx, w.WriteInt32(ctx, "b", 2))
	must(ctx, w.Finish(ctx))

	r := open(ctx, path, cfg)
	_, err = r.ReadInt32(ctx, "a")
	assert.For(ctx, "a").ThatError(err).HasCause(bstruct.ErrUnknownName)
	v, err := r.ReadInt32(ctx, "b")
	assert.For(ctx, "b").ThatError(err).Succeeded()
	assert.For(ctx, "b takes the old id").That(v).Equals(int32(1))
	must(ctx, r.Finish(ctx))
}

func TestAppendEmptyUnfinishedIsQuiet(t *testing.T) {
	ctx := log.Testing(t)
	path := newPath(t)
	cfg := bstruct.DefaultConfig()
	w, err := bstruct.Create(ctx, path, cfg)
	assert.For(ctx, "Create").Critical().ThatError(err).Succeeded()
	must(ctx, w.Abandon(ctx))

	warnings := 0
	logged := log.PutHandler(ctx, log.NewHandler(func(m *log.Message) {
		if m.Severity == log.Warning && strings.Contains(m.Text, "No name table") {
			warnings++
		}
	}, nil))
	w, err = bstruct.Append(logged, path, cfg)
	assert.For(ctx, "Append").Critical().ThatError(err).Succeeded()
	assert.For(ctx, "warnings").ThatInteger(warnings).Equals(0)
	must(ctx, w.Finish(ctx))
}

func TestFinishTwice(t *testing.T) {
	ctx := log.Testing(t)
	path := newPath(t)
	w, err := bstruct.Create(ctx, path, bstruct.DefaultConfig())
	assert.For(ctx, "Create").Critical().ThatError(err).Succeeded()
	must(ctx, w.Finish(ctx))
	assert.For(ctx, "second Finish").ThatError(w.Finish(ctx)).Equals(bstruct.ErrFinished)

	r := open(ctx, path, bstruct.DefaultConfig())
	assert.For(ctx, "empty names").ThatInteger(r.Names().Len()).Equals(0)
	must(ctx, r.Finish(ctx))
	assert.For(ctx, "second Finish").ThatError(r.Finish(ctx)).Equals(bstruct.ErrFinished)
}
