package retrieval

import (
	"bufio"
	"io"
	"strings"
)

// NoMatch is the single snippet returned when nothing in the document matches.
const NoMatch = "No relevant information found in the document."

// maxLineBytes bounds a single scanned line; uploads are far smaller.
const maxLineBytes = 4 << 20

// Retrieve returns the trimmed lines containing any keyword as a
// case-insensitive substring, or []string{NoMatch}.
func Retrieve(lines []string, keywords []string) []string {
	var snippets []string
	for _, line := range lines {
		if s, ok := match(line, keywords); ok {
			snippets = append(snippets, s)
		}
	}
	return orNoMatch(snippets)
}

// Scan is Retrieve over a line stream, read lazily from r.
func Scan(r io.Reader, keywords []string) ([]string, error) {
	var snippets []string
	if len(keywords) > 0 {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			if s, ok := match(scanner.Text(), keywords); ok {
				snippets = append(snippets, s)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}
	return orNoMatch(snippets), nil
}

// Search extracts keywords from query and scans r for them.
func Search(r io.Reader, query string) ([]string, error) {
	return Scan(r, ExtractKeywords(query))
}

func match(line string, keywords []string) (string, bool) {
	lower := strings.ToLower(line)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return strings.TrimSpace(line), true
		}
	}
	return "", false
}

func orNoMatch(snippets []string) []string {
	if len(snippets) == 0 {
		return []string{NoMatch}
	}
	return snippets
}
