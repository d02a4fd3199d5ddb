package geodb

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// extractArchive unpacks a .tar.gz into dest. Only directories and regular
// files are materialised; entries that would escape dest are rejected.
func extractArchive(archive, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return fsErr("open", archive, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecompress, archive, err)
	}
	defer gz.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fsErr("create", dest, err)
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrDecompress, archive, err)
		}

		if !filepath.IsLocal(hdr.Name) {
			return fmt.Errorf("%w: unsafe entry %q in %s", ErrDecompress, hdr.Name, archive)
		}
		target := filepath.Join(dest, hdr.Name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fsErr("create", target, err)
			}
		case tar.TypeReg:
			if err := writeEntry(tr, target); err != nil {
				return err
			}
		}
	}
}

func writeEntry(r io.Reader, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fsErr("create", filepath.Dir(target), err)
	}
	out, err := os.Create(target)
	if err != nil {
		return fsErr("create", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("%w: %s: %w", ErrDecompress, target, err)
	}
	if err := out.Close(); err != nil {
		return fsErr("close", target, err)
	}
	return nil
}
