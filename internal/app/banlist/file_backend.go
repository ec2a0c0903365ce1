package banlist

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileBackend stores each list as a UTF-8 text file with one pattern per line
// inside the room's configuration directory.
type FileBackend struct {
	dir string
}

// NewFileBackend creates the room directory if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating ban list directory %s: %w", dir, err)
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(list List) string {
	return filepath.Join(b.dir, string(list)+".txt")
}

func (b *FileBackend) Load(_ context.Context, list List) ([]string, error) {
	lines, err := readLines(b.path(list))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	return lines, nil
}

func (b *FileBackend) Append(_ context.Context, list List, pattern string) error {
	file, err := os.OpenFile(b.path(list), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = fmt.Fprintln(file, pattern)
	return err
}

func (b *FileBackend) Remove(ctx context.Context, list List, pattern string) error {
	lines, err := b.Load(ctx, list)
	if err != nil {
		return err
	}
	kept := lines[:0]
	for _, line := range lines {
		if line != pattern {
			kept = append(kept, line)
		}
	}
	return writeLines(b.path(list), kept)
}

func (b *FileBackend) Clear(_ context.Context, list List) error {
	return writeLines(b.path(list), nil)
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

// writeLines replaces path atomically through a temporary file.
func writeLines(path string, lines []string) error {
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(file)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			file.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
