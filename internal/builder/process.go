// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rjtool/releasebuilder/pkg/archive"
)

// Process writes the collected artefacts to the target selected by the
// publish type. It returns 0 on success and 1 when there is nothing to
// publish to.
func (b *Builder) Process(ctx context.Context) (int, error) {
	if len(b.targets) == 0 {
		b.logger.Info("No targets defined")
		return 1, nil
	}

	files, err := b.artefacts.Collect()
	if err != nil {
		return 1, err
	}
	if len(files) == 0 {
		b.logger.Info("No artefacts - not building archive")
		return 0, nil
	}

	t := b.Target(b.publishType)
	if t == nil {
		b.logger.Info("No target config for " + b.publishType)
		return 1, nil
	}

	base := strings.Join([]string{b.name, b.publishType, t.VersionOr(b.vars.Get("SemVer", ""))}, "-")
	switch t.Type {
	case TargetZip:
		dest := filepath.Join(t.Path, base+".zip")
		n, err := archive.WriteZip(dest, files)
		if err != nil {
			return 1, err
		}
		b.logger.Info(fmt.Sprintf("Created %s with %d files", dest, n))
	case TargetTarGz:
		dest := filepath.Join(t.Path, base+".tar.gz")
		n, err := archive.WriteTarGz(ctx, dest, files)
		if err != nil {
			return 1, err
		}
		b.logger.Info(fmt.Sprintf("Created %s with %d files", dest, n))
	case TargetFolder:
		n, err := archive.CopyToFolder(t.Path, files)
		if err != nil {
			return 1, err
		}
		b.logger.Info(fmt.Sprintf("Copied %d files to %s", n, t.Path))
	default:
		b.logger.Error(fmt.Sprintf("Target %s has no valid type", t.Name))
		return 1, nil
	}
	return 0, nil
}
