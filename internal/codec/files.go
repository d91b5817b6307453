package codec

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/go-git/go-billy/v6"
	"github.com/google/uuid"
)

// writeAtomic writes through a temporary file in the same directory and
// renames it over name once complete.
func writeAtomic(fs billy.Filesystem, name string, write func(io.Writer) error) error {
	dir := path.Dir(name)
	if dir != "." && dir != "" {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("while creating directory %s: %w", dir, err)
		}
	}
	tempFile := path.Join(dir, fmt.Sprintf(".%s.tmp", uuid.New()))
	f, err := fs.Create(tempFile)
	if err != nil {
		return fmt.Errorf("while creating temporary file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		fs.Remove(tempFile)
		return err
	}
	if err := f.Close(); err != nil {
		fs.Remove(tempFile)
		return fmt.Errorf("while closing temporary file: %w", err)
	}
	if err := fs.Rename(tempFile, name); err != nil {
		fs.Remove(tempFile)
		return fmt.Errorf("while replacing %s: %w", name, err)
	}
	return nil
}

// readFile returns the content of name, or nil when it does not exist
func readFile(fs billy.Filesystem, name string) ([]byte, error) {
	f, err := fs.Open(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("while opening %s: %w", name, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("while reading %s: %w", name, err)
	}
	return data, nil
}
