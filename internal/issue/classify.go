// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"

	"github.com/rjtool/releasebuilder/internal/fexec"
	"github.com/rjtool/releasebuilder/pkg/pathfinder"
	"github.com/rjtool/releasebuilder/pkg/releaseconfig"
	"github.com/rjtool/releasebuilder/pkg/transform"
	"github.com/rjtool/releasebuilder/pkg/vars"
)

// Describe returns err as an ActionableError, adding suggestions for the
// failure kinds a build config commonly hits. An existing ActionableError is
// returned unchanged.
func Describe(err error) *ActionableError {
	if err == nil {
		return nil
	}
	var ae *ActionableError
	if errors.As(err, &ae) {
		return ae
	}

	ctx := NewErrorContext().WithOperation("build release").Wrap(err)

	var ne *releaseconfig.NodeError
	if errors.As(err, &ne) {
		ctx.WithResource(ne.Location.File).WithLocation(ne.Location.String())
	}

	var (
		undefined *vars.UndefinedError
		notFound  *pathfinder.NotFoundError
		exitCode  *fexec.ExitCodeError
	)
	switch {
	case errors.As(err, &undefined) && undefined.Source == vars.SourceEnvironment:
		ctx.WithSuggestion("Export " + undefined.Name + " before running the build")
	case errors.As(err, &undefined):
		ctx.WithSuggestion("Define ~" + undefined.Name + "~ with a <Folder> or a <Set> inside the selected <Target>")
	case errors.As(err, &notFound):
		ctx.WithSuggestion("Check that " + notFound.Name + " exists below the build root or the working directory")
	case errors.As(err, &exitCode):
		ctx.WithSuggestion("Add the exit code to required-exit-codes if it is expected")
	case errors.Is(err, transform.ErrInvalidTransform):
		ctx.WithSuggestion("Transforms are op,arg,... with op one of set, getversion, replace, regex-replace, when")
	}
	return ctx.Build()
}
