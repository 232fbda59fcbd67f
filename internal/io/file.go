package ioutils

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// BackupSuffix is appended to a file name by Backup.
const BackupSuffix = ".bak"

// CopyFile copies a file from source to destination.
//
// The destination file is created with the mode of the source file, or
// truncated if it exists. The copy stops early when ctx is canceled.
//
// Parameters:
//   - ctx: Context for cancellation, checked between chunks
//   - src: Source file path (must exist)
//   - dst: Destination file path (will be created/overwritten)
//
// Example:
//
//	err := CopyFile(ctx, "/podcast/episode.mp3", "/podcast/episode.mp3.bak")
func CopyFile(ctx context.Context, src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	info, err := sourceFile.Stat()
	if err != nil {
		return err
	}

	destFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, &contextReader{ctx: ctx, r: sourceFile}); err != nil {
		destFile.Close()
		return err
	}
	return destFile.Close()
}

// Backup copies path to path+BackupSuffix and returns the backup path.
//
// Example:
//
//	backup, err := Backup(ctx, "/podcast/episode.mp3")
//	// backup == "/podcast/episode.mp3.bak"
func Backup(ctx context.Context, path string) (string, error) {
	backup := path + BackupSuffix
	if err := CopyFile(ctx, path, backup); err != nil {
		return "", fmt.Errorf("backup %s: %w", path, err)
	}
	return backup, nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}

// WriteFile writes data to a file, creating it if necessary.
//
// The data is written to a temporary file in the same directory and renamed
// into place, so readers never observe a half-written file. The file ends
// up with mode 0644.
//
// Example:
//
//	chapters := []byte("00:00:00.000 Intro\n")
//	err := WriteFile(ctx, "/podcast/episode.chapters.txt", chapters)
func WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadFile reads a whole file, refusing files larger than limit bytes.
// A limit of zero or less disables the check.
//
// Example:
//
//	cover, err := ReadFile("/podcast/cover.jpg", 16<<20)
func ReadFile(path string, limit int64) ([]byte, error) {
	if limit > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.Size() > limit {
			return nil, fmt.Errorf("%s is %d bytes, limit is %d", path, info.Size(), limit)
		}
	}
	return os.ReadFile(path)
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
//
// Example:
//
//	err := EnsureDir("/podcast/chapters")
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
