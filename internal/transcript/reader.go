package transcript

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
)

const (
	// noiseChars: user texts at or under this many runes are acknowledgements.
	noiseChars = 3

	// substantialChars is the minimum user turn length counted by IsSubstantial.
	substantialChars = 20

	tailChunk    = 256 * 1024
	maxTailBytes = 4 * 1024 * 1024
)

// HeadLines returns up to n lines from the start of the file.
func HeadLines(path string, n int) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: transcript path supplied by the host
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	r := bufio.NewReader(f)
	for len(lines) < n {
		line, err := r.ReadString('\n')
		if line != "" {
			lines = append(lines, strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return lines, err
		}
	}
	return lines, nil
}

// TailLines returns up to the last n lines without loading the whole file.
// It reads a tail window and widens it while it holds fewer than n lines,
// up to a fixed byte ceiling.
func TailLines(path string, n int) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: transcript path supplied by the host
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size == 0 || n <= 0 {
		return nil, nil
	}

	window := int64(tailChunk)
	for {
		offset := int64(0)
		readSize := size
		if size > window {
			offset = size - window
			readSize = window
		}

		// One extra byte before the window tells whether it starts on a line boundary.
		start := offset
		if offset > 0 {
			start = offset - 1
		}
		buf := make([]byte, readSize+offset-start)
		m, err := f.ReadAt(buf, start)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		data := buf[:m]
		partial := false
		if offset > 0 && len(data) > 0 {
			partial = data[0] != '\n'
			data = data[1:]
		}
		raw := strings.TrimRight(string(data), "\n")
		lines := strings.Split(raw, "\n")

		// A window starting mid-line begins with a partial line.
		if partial && len(lines) > 0 {
			lines = lines[1:]
		}

		if len(lines) >= n || offset == 0 || window >= maxTailBytes {
			if len(lines) > n {
				lines = lines[len(lines)-n:]
			}
			for i := range lines {
				lines[i] = strings.TrimRight(lines[i], "\r")
			}
			return lines, nil
		}
		window *= 2
	}
}

// Turns parses every line, skipping the ones ParseTurn rejects.
func Turns(lines []string) []Turn {
	out := make([]Turn, 0, len(lines))
	for _, line := range lines {
		if t, ok := ParseTurn(line); ok {
			out = append(out, t)
		}
	}
	return out
}

// LastUserMessage scans backward through the last maxScanLines lines and
// returns the newest user text that is not noise. Returns "" when nothing
// qualifies or the file cannot be read.
func LastUserMessage(path string, maxScanLines int) string {
	lines, err := TailLines(path, maxScanLines)
	if err != nil {
		return ""
	}
	for i := len(lines) - 1; i >= 0; i-- {
		t, ok := ParseTurn(lines[i])
		if !ok || t.Role != RoleUser {
			continue
		}
		if !IsNoise(t.Text) {
			return t.Text
		}
	}
	return ""
}

// IsSubstantial reports whether the transcript has at least minLines lines and
// at least minUserMessages user turns longer than substantialChars.
func IsSubstantial(path string, minLines, minUserMessages int) bool {
	f, err := os.Open(path) //nolint:gosec // G304: transcript path supplied by the host
	if err != nil {
		return false
	}
	defer f.Close()

	lineCount, userCount := 0, 0
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			lineCount++
			if t, ok := ParseTurn(line); ok && t.Role == RoleUser && len([]rune(t.Text)) > substantialChars {
				userCount++
			}
		}
		if lineCount >= minLines && userCount >= minUserMessages {
			return true
		}
		if err != nil {
			return false
		}
	}
}
