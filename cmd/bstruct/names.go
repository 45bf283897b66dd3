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
	"github.com/urfave/cli/v2"
)

func namesCommand() *cli.Command {
	return &cli.Command{
		Name:      "names",
		Usage:     "Print the name table of a file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: "yaml", Usage: "Output format (yaml, json)"},
		},
		Action: func(c *cli.Context) error {
			return withFile(c, func(ctx context.Context, r *bstruct.Reader) error {
				switch f := c.String("format"); f {
				case "yaml":
					return r.Names().WriteYAML(c.App.Writer)
				case "json":
					return r.Names().WriteJSON(c.App.Writer)
				default:
					return fmt.Errorf("Unknown format %q", f)
				}
			})
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Convert a file to JSON",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			return withFile(c, func(ctx context.Context, r *bstruct.Reader) error {
				if err := bstruct.ExportJSON(ctx, r, c.App.Writer); err != nil {
					return err
				}
				_, err := fmt.Fprintln(c.App.Writer)
				return err
			})
		},
	}
}
