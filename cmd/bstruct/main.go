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

// The bstruct command inspects bstruct checkpoint files.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ecoforge/bstruct/core/data/bstruct"
	"github.com/ecoforge/bstruct/core/log"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "bstruct",
		Usage:     "Inspect bstruct checkpoint files",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-style", Value: log.Normal.Name, Usage: "Log style (" + strings.Join(log.StyleNames(), ", ") + ")", EnvVars: []string{"BSTRUCT_LOG_STYLE"}},
			&cli.StringFlag{Name: "log-level", Value: "warning", Usage: "Lowest severity to log (verbose, debug, info, warning, error)", EnvVars: []string{"BSTRUCT_LOG_LEVEL"}},
			&cli.BoolFlag{Name: "quiet", Usage: "Do not log codec diagnostics"},
			&cli.IntFlag{Name: "max-depth", Value: bstruct.DefaultMaxDepth, Usage: "Maximum nesting depth, the root included"},
		},
		Commands: []*cli.Command{
			dumpCommand(),
			namesCommand(),
			exportCommand(),
			infoCommand(),
			checkCommand(),
		},
	}
}

// logContext returns the context for a command, with logging to the
// application's error writer.
func logContext(c *cli.Context) (context.Context, error) {
	style, ok := log.FindStyle(c.String("log-style"))
	if !ok {
		return nil, fmt.Errorf("Unknown log style %q", c.String("log-style"))
	}
	level, ok := log.ParseSeverity(c.String("log-level"))
	if !ok {
		return nil, fmt.Errorf("Unknown log level %q", c.String("log-level"))
	}
	errw := c.App.ErrWriter
	ctx := log.PutHandler(c.Context, style.Handler(func(text string, severity log.Severity) {
		fmt.Fprintln(errw, text)
	}))
	return log.PutFilter(ctx, log.SeverityFilter(level)), nil
}

// openFile opens the file named by the first argument of the command.
func openFile(c *cli.Context) (context.Context, *bstruct.Reader, error) {
	ctx, err := logContext(c)
	if err != nil {
		return nil, nil, err
	}
	if c.NArg() != 1 {
		return nil, nil, fmt.Errorf("%v expects exactly one file", c.Command.Name)
	}
	cfg := bstruct.DefaultConfig()
	cfg.Verbose = !c.Bool("quiet")
	cfg.MaxDepth = c.Int("max-depth")
	path := c.Args().First()
	ctx = log.Enter(log.PutTag(ctx, path), c.Command.Name)
	r, err := bstruct.Open(ctx, path, cfg)
	if err != nil {
		return nil, nil, log.Err(ctx, err, "Could not open file")
	}
	return ctx, r, nil
}

// withFile runs fn on the file named by the command's argument and closes it.
func withFile(c *cli.Context, fn func(ctx context.Context, r *bstruct.Reader) error) error {
	ctx, r, err := openFile(c)
	if err != nil {
		return err
	}
	err = fn(ctx, r)
	if ferr := r.Finish(ctx); err == nil {
		err = ferr
	}
	return err
}
