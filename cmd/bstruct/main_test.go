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

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ecoforge/bstruct/core/assert"
	"github.com/ecoforge/bstruct/core/data/bstruct"
	"github.com/ecoforge/bstruct/core/log"
	"github.com/urfave/cli/v2"
)

func writeFile(ctx context.Context, t *testing.T, arraySize int) string {
	path := filepath.Join(t.TempDir(), "sample.bst")
	w, err := bstruct.Create(ctx, path, bstruct.DefaultConfig())
	assert.For(ctx, "Create").Critical().ThatError(err).Succeeded()
	must := func(err error) {
		assert.For(ctx, "write").Critical().ThatError(err).Succeeded()
	}
	must(w.WriteInt32(ctx, "version", 3))
	must(w.BeginStruct(ctx, "config"))
	must(w.WriteString(ctx, "name", "x"))
	must(w.EndStruct(ctx, "config"))
	must(w.BeginArray(ctx, "items", arraySize))
	must(w.WriteInt32(ctx, "", 1))
	must(w.WriteInt32(ctx, "", 2))
	must(w.EndArray(ctx))
	must(w.Finish(ctx))
	return path
}

func run(ctx context.Context, args ...string) (string, string, error) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	app := newApp(stdout, stderr)
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.RunContext(ctx, append([]string{"bstruct"}, args...))
	return stdout.String(), stderr.String(), err
}

func TestDump(t *testing.T) {
	ctx := log.Testing(t)
	path := writeFile(ctx, t, 2)
	out, _, err := run(ctx, "dump", path)
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "out").ThatString(out).Equals(strings.Join([]string{
		`version: byte = 3`,
		`config {`,
		`  name: short-string = "x"`,
		`}`,
		`items [2] [`,
		`  -: byte = 1`,
		`  -: byte = 2`,
		`]`,
		``,
	}, "\n"))
}

func TestDumpOffsets(t *testing.T) {
	ctx := log.Testing(t)
	path := writeFile(ctx, t, 2)
	out, _, err := run(ctx, "dump", "--offsets", path)
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "first line").ThatString(strings.SplitN(out, "\n", 2)[0]).Equals("      19 version: byte = 3")
}

func TestNames(t *testing.T) {
	ctx := log.Testing(t)
	path := writeFile(ctx, t, 2)
	out, _, err := run(ctx, "names", "--format", "json", path)
	assert.For(ctx, "err").ThatError(err).Succeeded()
	for _, name := range []string{"version", "config", "name", "items"} {
		assert.For(ctx, "names").ThatString(out).Contains(`"` + name + `"`)
	}
	_, _, err = run(ctx, "names", "--format", "xml", path)
	assert.For(ctx, "xml").ThatError(err).Failed()
}

func TestExport(t *testing.T) {
	ctx := log.Testing(t)
	path := writeFile(ctx, t, 2)
	out, _, err := run(ctx, "export", path)
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "version").ThatString(out).Contains(`"version": 3`)
	assert.For(ctx, "name").ThatString(out).Contains(`"name": "x"`)
}

func TestInfo(t *testing.T) {
	ctx := log.Testing(t)
	path := writeFile(ctx, t, 2)
	out, _, err := run(ctx, "info", path)
	assert.For(ctx, "err").ThatError(err).Succeeded()
	for _, want := range []string{
		"Version:     1",
		"Byte order:  little-endian",
		"Name table:  4 names",
		"Values:      4",
		"Structs:     1",
		"Arrays:      1 (0 indexed)",
		"Depth:       2",
	} {
		assert.For(ctx, "info").ThatString(out).Contains(want)
	}
}

func TestCheck(t *testing.T) {
	ctx := log.Testing(t)
	out, _, err := run(ctx, "check", writeFile(ctx, t, 2))
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "out").ThatString(out).Equals("OK\n")

	out, _, err = run(ctx, "--quiet", "check", writeFile(ctx, t, 5))
	assert.For(ctx, "err").ThatError(err).Failed()
	code := 0
	if exit, ok := err.(cli.ExitCoder); ok {
		code = exit.ExitCode()
	}
	assert.For(ctx, "exit code").That(code).Equals(1)
	assert.For(ctx, "out").ThatString(out).Contains(`"items" at`)
}

func TestBadArguments(t *testing.T) {
	ctx := log.Testing(t)
	_, _, err := run(ctx, "dump")
	assert.For(ctx, "no file").ThatError(err).Failed()
	_, _, err = run(ctx, "--log-level", "loud", "dump", "x")
	assert.For(ctx, "level").ThatError(err).Failed()
	_, _, err = run(ctx, "dump", filepath.Join(t.TempDir(), "missing.bst"))
	assert.For(ctx, "missing").ThatError(err).Failed()
}
