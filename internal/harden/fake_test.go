package harden

import (
	"context"
	"strings"
	"time"

	"github.com/girste/shieldctl/internal/system"
)

// fakeRunner replays canned command results keyed by the joined argv.
// Multiple results for a key are consumed in order; the last one is
// sticky. Unknown commands fail with exit 1.
type fakeRunner struct {
	responses map[string][]*system.CommandResult
	errs      map[string]error
	calls     []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		responses: map[string][]*system.CommandResult{},
		errs:      map[string]error{},
	}
}

func (f *fakeRunner) onErr(argv string, err error) {
	f.errs[argv] = err
}

func (f *fakeRunner) on(argv string, results ...*system.CommandResult) {
	f.responses[argv] = append(f.responses[argv], results...)
}

func (f *fakeRunner) onStdout(argv, stdout string) {
	f.on(argv, &system.CommandResult{Stdout: stdout, Success: true})
}

func (f *fakeRunner) Run(ctx context.Context, timeout time.Duration, cmdParts ...string) (*system.CommandResult, error) {
	key := strings.Join(cmdParts, " ")
	f.calls = append(f.calls, key)

	if err, ok := f.errs[key]; ok {
		return nil, err
	}

	queue, ok := f.responses[key]
	if !ok || len(queue) == 0 {
		return &system.CommandResult{ExitCode: 1}, nil
	}
	result := queue[0]
	if len(queue) > 1 {
		f.responses[key] = queue[1:]
	}
	return result, nil
}

func (f *fakeRunner) count(argv string) int {
	n := 0
	for _, c := range f.calls {
		if c == argv {
			n++
		}
	}
	return n
}
