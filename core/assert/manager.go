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

package assert

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/ecoforge/bstruct/core/log"
)

// Output is the subset of testing.TB that assertions report through.
type Output interface {
	Fatal(...interface{})
	Error(...interface{})
	Log(...interface{})
}

// Manager builds assertions that all report to the same Output.
type Manager struct {
	out Output
}

// To returns a Manager reporting to t, which may be a context carrying a log
// handler, an Output such as *testing.T, or nil for standard output.
func To(t interface{}) Manager {
	switch t := t.(type) {
	case nil:
		return Manager{stdout{}}
	case context.Context:
		return Manager{logOutput{t}}
	case Output:
		return Manager{t}
	}
	panic(fmt.Errorf("Unsupported assertion target type %T", t))
}

// For is shorthand for To(t).For(msg, args...).
func For(t interface{}, msg string, args ...interface{}) *Assertion {
	return To(t).For(msg, args...)
}

// For starts an assertion titled by the formatted message.
func (m Manager) For(msg string, args ...interface{}) *Assertion {
	a := &Assertion{to: m.out, out: &bytes.Buffer{}, level: Error}
	return a.Printf(msg, args...).Println()
}

// logOutput reports through the log handler of a context, which for tests
// is bound to the testing.T by log.Testing.
type logOutput struct{ ctx context.Context }

func (o logOutput) Fatal(args ...interface{}) { log.F(o.ctx, true, "%v", fmt.Sprint(args...)) }
func (o logOutput) Error(args ...interface{}) { log.E(o.ctx, "%v", fmt.Sprint(args...)) }
func (o logOutput) Log(args ...interface{})   { log.I(o.ctx, "%v", fmt.Sprint(args...)) }

type stdout struct{}

func (stdout) Fatal(args ...interface{}) {
	fmt.Fprintln(os.Stdout, args...)
	panic("Fatal assertion without a test")
}
func (stdout) Error(args ...interface{}) { fmt.Fprintln(os.Stdout, args...) }
func (stdout) Log(args ...interface{})   { fmt.Fprintln(os.Stdout, args...) }
