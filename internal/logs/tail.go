package logs

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"relocator/internal/logging"
)

// ErrNoLogs is returned when the log directory holds no run logs.
var ErrNoLogs = errors.New("no run logs found")

const maxLineBytes = 1024 * 1024

// RunLogs returns the run log files in dir, newest first. Run log names embed
// a UTC timestamp, so lexical order is chronological.
func RunLogs(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, logging.RunLogPattern))
	if err != nil {
		return nil, fmt.Errorf("list run logs: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches, nil
}

// Latest returns the newest run log in dir.
func Latest(dir string) (string, error) {
	paths, err := RunLogs(dir)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoLogs, dir)
	}
	return paths[0], nil
}

// FindRun returns the log file of the run whose ID starts with runID. Only
// the first record of each file is inspected.
func FindRun(dir, runID string) (string, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return Latest(dir)
	}
	paths, err := RunLogs(dir)
	if err != nil {
		return "", err
	}
	for _, path := range paths {
		id, err := firstRunID(path)
		if err != nil || id == "" {
			continue
		}
		if strings.HasPrefix(id, runID) {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w for run %s in %s", ErrNoLogs, runID, dir)
}

func firstRunID(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	if !scanner.Scan() {
		return "", scanner.Err()
	}
	entry, ok := Decode(scanner.Text())
	if !ok {
		return "", nil
	}
	return entry.RunID, nil
}

// Tail returns the last limit lines of path. A limit <= 0 returns every line.
func Tail(path string, limit int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	if limit <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log file: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, limit)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	lines := make([]string, count)
	if count == limit {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}
