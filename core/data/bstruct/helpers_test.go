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
	"path/filepath"
	"testing"

	"github.com/ecoforge/bstruct/core/assert"
	"github.com/ecoforge/bstruct/core/data/bstruct"
)

func newPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "checkpoint.bst")
}

// create writes a finished file at path with the content written by fn.
func create(ctx context.Context, path string, cfg bstruct.Config, fn func(w *bstruct.Writer)) {
	w, err := bstruct.Create(ctx, path, cfg)
	assert.For(ctx, "Create").Critical().ThatError(err).Succeeded()
	fn(w)
	assert.For(ctx, "Writer.Finish").ThatError(w.Finish(ctx)).Succeeded()
}

// open opens the file at path for reading.
func open(ctx context.Context, path string, cfg bstruct.Config) *bstruct.Reader {
	r, err := bstruct.Open(ctx, path, cfg)
	assert.For(ctx, "Open").Critical().ThatError(err).Succeeded()
	return r
}

// must asserts that err is nil.
func must(ctx context.Context, err error) {
	assert.For(ctx, "err").Critical().ThatError(err).Succeeded()
}
