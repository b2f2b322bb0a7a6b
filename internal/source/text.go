package source

import (
	"bufio"
	"io"
	"strings"
)

// TextReader handles plain text files, the usual distribution format.
type TextReader struct{}

func (p *TextReader) Read(r io.Reader, filename string) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var sb strings.Builder
	first := true
	for scanner.Scan() {
		if !first {
			sb.WriteString("\n")
		}
		sb.WriteString(scanner.Text())
		first = false
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return sb.String(), nil
}
