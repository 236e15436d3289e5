package checkpoint

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// compressDir archives dir into <dir>.tar.gz alongside it, then removes
// the original directory — the Go-native equivalent of the original
// system's tarfile.open(..., "w:gz") rotation step. archive/tar and
// compress/gzip are stdlib; no example repo imports a third-party
// archiver, so this is one of the rare stdlib-only corners (see
// DESIGN.md).
func compressDir(dir string) (archivePath string, err error) {
	archivePath = dir + ".tar.gz"

	f, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("checkpoint: create archive %s: %w", archivePath, err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	base := filepath.Base(dir)
	walkErr := filepath.Walk(dir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := filepath.Join(base, rel)

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = name
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(tw, src)
		return err
	})
	if walkErr != nil {
		tw.Close()
		gz.Close()
		os.Remove(archivePath)
		return "", fmt.Errorf("checkpoint: archive %s: %w", dir, walkErr)
	}

	if err := tw.Close(); err != nil {
		return "", fmt.Errorf("checkpoint: finalize tar %s: %w", archivePath, err)
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("checkpoint: finalize gzip %s: %w", archivePath, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("checkpoint: remove uncompressed dir %s: %w", dir, err)
	}
	return archivePath, nil
}

func dirSize(dir string) int64 {
	var total int64
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		total += info.Size()
		return nil
	})
	return total
}
