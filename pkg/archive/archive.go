// SPDX-License-Identifier: MPL-2.0

// Package archive writes collected release files to their destination: a
// zip file, a gzipped tarball or a plain folder.
package archive

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/mholt/archives"

	"github.com/rjtool/releasebuilder/pkg/artefact"
)

// ErrSameFile is returned by CopyFile when source and destination are the
// same file.
var ErrSameFile = errors.New("source and destination are the same file")

// WriteZip replaces path with a zip archive holding files under their
// archive names, compressed at the highest level. It returns the entry count.
func WriteZip(path string, files []artefact.FileDetails) (n int, err error) {
	if err := removeExisting(path); err != nil {
		return 0, err
	}

	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create zip file: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})
	defer func() {
		if closeErr := zw.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for _, f := range files {
		if err := addZipEntry(zw, f); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func addZipEntry(zw *zip.Writer, f artefact.FileDetails) (err error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", f.Path, err)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to create file header: %w", err)
	}
	header.Name = f.ArchiveName()
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create zip entry %s: %w", header.Name, err)
	}

	in, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Path, err)
	}
	defer func() {
		if closeErr := in.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("failed to write zip entry %s: %w", header.Name, err)
	}
	return nil
}

// WriteTarGz replaces path with a gzip-compressed tar archive of files.
func WriteTarGz(ctx context.Context, path string, files []artefact.FileDetails) (n int, err error) {
	if err := removeExisting(path); err != nil {
		return 0, err
	}

	fileMap := make(map[string]string, len(files))
	for _, f := range files {
		fileMap[f.Path] = f.ArchiveName()
	}
	infos, err := archives.FilesFromDisk(ctx, nil, fileMap)
	if err != nil {
		return 0, fmt.Errorf("failed to read release files: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	format := archives.CompressedArchive{
		Compression: archives.Gz{CompressionLevel: gzip.BestCompression},
		Archival:    archives.Tar{},
	}
	if err := format.Archive(ctx, out, infos); err != nil {
		return 0, fmt.Errorf("failed to write archive: %w", err)
	}
	return len(files), nil
}

// CopyToFolder copies files into dir under their archive names, creating
// parent directories and overwriting existing files.
func CopyToFolder(dir string, files []artefact.FileDetails) (int, error) {
	n := 0
	for _, f := range files {
		dest := filepath.Join(dir, filepath.FromSlash(f.ArchiveName()))
		if err := CopyFile(f.Path, dest); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// CopyFile copies src to dest, overwriting dest and keeping the source mode.
func CopyFile(src, dest string) (err error) {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}
	if destInfo, err := os.Stat(dest); err == nil && os.SameFile(info, destInfo) {
		return fmt.Errorf("%s to %s: %w", src, dest, ErrSameFile)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dest, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() {
		if closeErr := in.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dest, err)
	}
	return nil
}

func removeExisting(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing archive %s: %w", path, err)
	}
	return nil
}
