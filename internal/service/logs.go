package service

import (
	"os"
	"path/filepath"
	"strings"

	"stackmon/internal/errors"
)

// LogPath is the file that receives the output of service name under dir
func LogPath(dir, name string) string {
	return filepath.Join(dir, name+".log")
}

// TailLog returns the last n non-blank lines written by service name under dir.
// A missing file yields no lines.
func TailLog(dir, name string, n int) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	data, err := os.ReadFile(LogPath(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.ErrFileRead, "Failed to read service log", err)
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if n > 0 && n < len(lines) {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
