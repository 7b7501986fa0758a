// SPDX-License-Identifier: MPL-2.0

package fexec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/shell"
	"mvdan.cc/sh/v3/syntax"

	"github.com/rjtool/releasebuilder/internal/rlog"
)

const maxLine = 1 << 20

// Stream identifies an output stream.
type Stream int

const (
	// Stdout is the standard output stream.
	Stdout Stream = iota
	// Stderr is the standard error stream.
	Stderr
)

type (
	// Request describes one program invocation.
	Request struct {
		Path string
		Args []string
		Dir  string
		// RequiredExitCodes lists accepted exit codes. Empty accepts any.
		RequiredExitCodes []int
		// Terminal runs the program attached to the terminal without capture.
		Terminal bool
		// LogOutput logs captured stdout at info level instead of debug.
		LogOutput bool
	}

	// Line is one captured line of output.
	Line struct {
		Stream Stream
		Text   string
	}

	// Result is the outcome of a finished program.
	Result struct {
		ExitCode int
		Lines    []Line
	}

	// ExitCodeError reports an exit code outside the accepted set.
	ExitCodeError struct {
		App      string
		Args     []string
		Code     int
		Required []int
	}

	// Option configures an Executor.
	Option func(*Executor)

	// Executor starts programs and collects their output.
	Executor struct {
		logger    *log.Logger
		toolsDirs []string
		stdin     io.Reader
		stdout    io.Writer
		stderr    io.Writer
	}

	sink struct {
		mu        sync.Mutex
		logger    *log.Logger
		logOutput bool
		lines     []Line
	}
)

// Error implements the error interface.
func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("command %s %s failed with exit code %d", filepath.Base(e.App), strings.Join(e.Args, " "), e.Code)
}

// WithToolsDirs appends dirs to the PATH seen by started programs.
func WithToolsDirs(dirs []string) Option {
	return func(e *Executor) {
		e.toolsDirs = append([]string(nil), dirs...)
	}
}

// WithTerminal sets the streams used in terminal mode.
func WithTerminal(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(e *Executor) {
		e.stdin, e.stdout, e.stderr = stdin, stdout, stderr
	}
}

// New creates an Executor. Terminal mode uses the process streams unless
// WithTerminal overrides them.
func New(logger *log.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = rlog.Discard()
	}
	e := &Executor{logger: logger, stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run starts the program and blocks until it exits. A non-accepted exit
// code returns both the Result and an *ExitCodeError.
func (e *Executor) Run(ctx context.Context, req Request) (*Result, error) {
	rlog.Tracef(e.logger, "Exec: %s %s", req.Path, strings.Join(req.Args, " "))

	var (
		res *Result
		err error
	)
	if req.Terminal {
		res, err = e.runTerminal(ctx, req)
	} else {
		res, err = e.runCaptured(ctx, req)
	}
	if err != nil {
		return res, err
	}

	if len(req.RequiredExitCodes) > 0 && !slices.Contains(req.RequiredExitCodes, res.ExitCode) {
		if text := res.Stderr(); text != "" {
			e.logger.Error(text)
		}
		return res, &ExitCodeError{App: req.Path, Args: req.Args, Code: res.ExitCode, Required: req.RequiredExitCodes}
	}
	return res, nil
}

func (e *Executor) runCaptured(ctx context.Context, req Request) (*Result, error) {
	cmd := exec.CommandContext(ctx, req.Path, req.Args...)
	cmd.Dir = req.Dir
	cmd.Env = e.environ()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to attach stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to attach stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", req.Path, err)
	}

	s := &sink{logger: e.logger, logOutput: req.LogOutput}
	var g errgroup.Group
	g.Go(func() error { return s.consume(stdout, Stdout) })
	g.Go(func() error { return s.consume(stderr, Stderr) })
	readErr := g.Wait()
	waitErr := cmd.Wait()

	res := &Result{Lines: s.lines}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, fmt.Errorf("failed to run %s: %w", req.Path, waitErr)
		}
		res.ExitCode = exitErr.ExitCode()
	}
	if readErr != nil {
		return res, fmt.Errorf("failed to read output of %s: %w", req.Path, readErr)
	}
	return res, nil
}

func (e *Executor) runTerminal(ctx context.Context, req Request) (*Result, error) {
	words := make([]string, 0, len(req.Args)+1)
	for _, w := range append([]string{req.Path}, req.Args...) {
		q, err := syntax.Quote(w, syntax.LangBash)
		if err != nil {
			return nil, fmt.Errorf("failed to quote %q: %w", w, err)
		}
		words = append(words, q)
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(strings.Join(words, " ")), req.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}

	dir := req.Dir
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(e.environ()...)),
		interp.StdIO(e.stdin, e.stdout, e.stderr),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create interpreter: %w", err)
	}

	res := &Result{}
	if err := runner.Run(ctx, prog); err != nil {
		var status interp.ExitStatus
		if !errors.As(err, &status) {
			return nil, fmt.Errorf("failed to run %s: %w", req.Path, err)
		}
		res.ExitCode = int(status)
	}
	return res, nil
}

func (e *Executor) environ() []string {
	env := os.Environ()
	if len(e.toolsDirs) == 0 {
		return env
	}
	path := PathWithDirs(os.Getenv("PATH"), e.toolsDirs)
	for i, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			env[i] = "PATH=" + path
			return env
		}
	}
	return append(env, "PATH="+path)
}

func (s *sink) consume(r io.Reader, stream Stream) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for sc.Scan() {
		s.write(stream, strings.TrimRight(sc.Text(), "\r"))
	}
	return sc.Err()
}

func (s *sink) write(stream Stream, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, Line{Stream: stream, Text: text})
	if s.logOutput && stream == Stdout {
		s.logger.Info(text)
		return
	}
	s.logger.Debug(text)
}

// Stdout joins the captured stdout lines.
func (r *Result) Stdout() string {
	return r.join(Stdout)
}

// Stderr joins the captured stderr lines.
func (r *Result) Stderr() string {
	return r.join(Stderr)
}

// Output is stdout followed by stderr.
func (r *Result) Output() string {
	return r.Stdout() + r.Stderr()
}

func (r *Result) join(stream Stream) string {
	var b strings.Builder
	for _, l := range r.Lines {
		if l.Stream == stream {
			b.WriteString(l.Text)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// SplitArgs splits a command line into words using shell quoting rules.
// Variable references are left for the caller to expand beforehand: $NAME
// is kept as written and ${NAME} becomes $NAME. Fields split on whitespace.
func SplitArgs(args string) ([]string, error) {
	if strings.TrimSpace(args) == "" {
		return nil, nil
	}
	fields, err := shell.Fields(args, func(name string) string {
		if name == "IFS" {
			return ""
		}
		return "$" + name
	})
	if err != nil {
		return nil, fmt.Errorf("failed to split arguments %q: %w", args, err)
	}
	return fields, nil
}

// PathWithDirs appends each of dirs not already present to the PATH list.
func PathWithDirs(path string, dirs []string) string {
	list := filepath.SplitList(path)
	for _, d := range dirs {
		if d == "" || slices.Contains(list, d) {
			continue
		}
		list = append(list, d)
	}
	return strings.Join(list, string(os.PathListSeparator))
}
