package gitcli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultIgnoreFile is the conventional ignore list at the repository root.
const DefaultIgnoreFile = ".git-blame-ignore-revs"

// ReadIgnoreFile reads revisions in the blame.ignoreRevsFile format.
func ReadIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	revs, err := ParseIgnoreList(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return revs, nil
}

// ParseIgnoreList returns one revision per non-blank line. Text after a #
// is a comment.
func ParseIgnoreList(r io.Reader) ([]string, error) {
	var revs []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line, _, _ := strings.Cut(scanner.Text(), "#")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		revs = append(revs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return revs, nil
}
