// SPDX-License-Identifier: MPL-2.0

package gitversion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rjtool/releasebuilder/internal/fexec"
	"github.com/rjtool/releasebuilder/pkg/pathfinder"
)

// ToolName is the executable queried by ToolSource.
const ToolName = "dotnet-gitversion"

type (
	// Source produces version metadata for the repository containing dir.
	// It returns the decoded report and its JSON form.
	Source interface {
		Version(ctx context.Context, dir string) (*Info, []byte, error)
	}

	// Runner starts external programs.
	Runner interface {
		Run(ctx context.Context, req fexec.Request) (*fexec.Result, error)
	}

	// ToolSource runs dotnet-gitversion in the directory.
	ToolSource struct {
		Runner    Runner
		Finder    *pathfinder.Finder
		ToolsDirs []string
	}

	// Chain tries each source in order and returns the first success.
	Chain []Source

	// Static always returns the same report.
	Static struct {
		Info *Info
	}
)

// Version implements Source.
func (s ToolSource) Version(ctx context.Context, dir string) (*Info, []byte, error) {
	finder := s.Finder
	if finder == nil {
		finder = pathfinder.New(nil)
	}
	search := append(filepath.SplitList(os.Getenv("PATH")), s.ToolsDirs...)
	tool, err := finder.FindExecutable(ToolName, search)
	if err != nil {
		return nil, nil, err
	}

	res, err := s.Runner.Run(ctx, fexec.Request{Path: tool, Dir: dir})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	data := []byte(res.Stdout())
	info, err := FromJSON(data)
	if err != nil {
		return nil, nil, err
	}
	return info, data, nil
}

// Version implements Source.
func (c Chain) Version(ctx context.Context, dir string) (*Info, []byte, error) {
	var errs []error
	for _, s := range c {
		info, data, err := s.Version(ctx, dir)
		if err == nil {
			return info, data, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, nil, errors.New("no version source configured")
	}
	return nil, nil, errors.Join(errs...)
}

// Version implements Source.
func (s Static) Version(context.Context, string) (*Info, []byte, error) {
	data, err := json.Marshal(s.Info)
	if err != nil {
		return nil, nil, err
	}
	return s.Info, data, nil
}
