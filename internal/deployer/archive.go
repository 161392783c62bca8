package deployer

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// excludedEntries are never shipped to the remote host
var excludedEntries = map[string]bool{
	".git":         true,
	".github":      true,
	".vscode":      true,
	".env":         true,
	"__pycache__":  true,
	"node_modules": true,
}

// OpenSource opens a zip archive for upload. Directories are zipped into a
// temporary file first; the returned cleanup removes it.
func OpenSource(source string) (*os.File, func(), error) {
	path, err := filepath.Abs(expandHome(source))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve source path: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat source: %w", err)
	}

	if !info.IsDir() {
		file, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open archive: %w", err)
		}
		return file, func() { file.Close() }, nil
	}

	tmp, err := os.CreateTemp("", "appsvc-*.zip")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create archive: %w", err)
	}
	cleanup := func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}

	if err := ZipDirectory(path, tmp); err != nil {
		cleanup()
		return nil, nil, err
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to rewind archive: %w", err)
	}

	return tmp, cleanup, nil
}

// ZipDirectory writes the contents of dir to w as a zip archive with
// slash-separated paths relative to dir
func ZipDirectory(dir string, w io.Writer) error {
	zw := zip.NewWriter(w)

	err := filepath.Walk(dir, func(file string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(dir, file)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		if excludedEntries[fi.Name()] {
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip log files and sockets, pipes and the like
		if strings.HasSuffix(relPath, ".log") || (!fi.Mode().IsRegular() && !fi.IsDir()) {
			return nil
		}

		header, err := zip.FileInfoHeader(fi)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(relPath)

		if fi.IsDir() {
			header.Name += "/"
			_, err := zw.CreateHeader(header)
			return err
		}

		header.Method = zip.Deflate
		entry, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}

		data, err := os.Open(file)
		if err != nil {
			return err
		}
		defer data.Close()

		_, err = io.Copy(entry, data)
		return err
	})
	if err != nil {
		zw.Close()
		return fmt.Errorf("failed to create zip archive: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize zip archive: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
