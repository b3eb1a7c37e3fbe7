package file

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// LineLoader maps quote names to files and reads their non-empty lines.
type LineLoader struct {
	paths map[string]string
}

func NewLineLoader(paths map[string]string) *LineLoader {
	return &LineLoader{paths: paths}
}

// Version is the modification time of the file behind name.
func (l *LineLoader) Version(_ context.Context, name string) (time.Time, error) {
	path, err := l.path(name)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat quote file: %w", err)
	}
	return info.ModTime(), nil
}

func (l *LineLoader) LoadLines(_ context.Context, name string) ([]string, error) {
	path, err := l.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quote file: %w", err)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (l *LineLoader) path(name string) (string, error) {
	path, ok := l.paths[name]
	if !ok {
		return "", fmt.Errorf("no quote file configured for %q", name)
	}
	return path, nil
}
