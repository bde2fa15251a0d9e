package hostexec

import (
	"os/exec"
	"sync"
)

// MockResponse is the canned result of one command line.
type MockResponse struct {
	Output string
	Stderr string
	// Err makes the command fail, e.g. errors.New("exit status 1").
	Err error
}

// MockRunner answers commands from a table keyed by CommandLine.
// Commands missing from the table behave as if the tool is not installed.
type MockRunner struct {
	responses map[string]MockResponse
	calls     []string
	mu        *sync.Mutex
}

var _ Runner = &MockRunner{}

// NewMock returns a new mocked Runner with prefilled responses.
func NewMock(responses map[string]MockResponse) *MockRunner {
	if responses == nil {
		responses = map[string]MockResponse{}
	}
	return &MockRunner{
		responses: responses,
		mu:        &sync.Mutex{},
	}
}

// Set adds or replaces the response for a command line.
func (m *MockRunner) Set(cmdline string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.responses[cmdline] = resp
}

func (m *MockRunner) Run(name string, args ...string) ([]byte, error) {
	cmdline := CommandLine(name, args...)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, cmdline)

	resp, ok := m.responses[cmdline]
	if !ok {
		return nil, &Error{
			Command: cmdline,
			Err:     &exec.Error{Name: name, Err: exec.ErrNotFound},
		}
	}
	if resp.Err != nil {
		return nil, &Error{Command: cmdline, Stderr: resp.Stderr, Err: resp.Err}
	}
	return []byte(resp.Output), nil
}

// Calls returns every command line run so far, in order.
func (m *MockRunner) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.calls...)
}

// Called returns how many times cmdline was run.
func (m *MockRunner) Called(cmdline string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.calls {
		if c == cmdline {
			n++
		}
	}
	return n
}
