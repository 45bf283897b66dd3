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
	"context"
	"fmt"

	"github.com/ecoforge/bstruct/core/data/bstruct"
	"github.com/ecoforge/bstruct/core/fault"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

// check walks the whole file and collects the arrays whose element count
// differs from their declared size. A malformed stream stops the walk.
func check(ctx context.Context, r *bstruct.Reader) (fault.List, error) {
	problems := fault.List{}
	err := r.Walk(ctx, func(ctx context.Context, e bstruct.Event) error {
		if e.Kind == bstruct.EventEndArray && e.Size != e.Count {
			problems.Collect(errors.Wrapf(bstruct.ErrArraySize, "%q at %d declares %d elements, holds %d", e.Name, e.Offset, e.Size, e.Count))
		}
		return nil
	})
	return problems, err
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Verify that a file is well formed",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			return withFile(c, func(ctx context.Context, r *bstruct.Reader) error {
				problems, err := check(ctx, r)
				if err != nil {
					return cli.Exit(fmt.Sprintf("Malformed: %v", err), 2)
				}
				for _, p := range problems {
					fmt.Fprintln(c.App.Writer, p)
				}
				if err := problems.Err(); err != nil {
					return cli.Exit(fmt.Sprintf("%d problems found", len(problems)), 1)
				}
				fmt.Fprintln(c.App.Writer, "OK")
				return nil
			})
		},
	}
}
