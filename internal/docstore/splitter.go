package docstore

import (
	"regexp"
	"strings"
)

// Splitter cuts document text into overlapping chunks for indexing. It
// prefers paragraph boundaries, then line boundaries, then word boundaries,
// and only hard-cuts text that has none of those.
type Splitter struct {
	ChunkSize int // target maximum chunk length in runes
	Overlap   int // runes carried over between adjacent hard-cut chunks
}

// NewSplitter returns a splitter with the defaults used for document Q&A:
// 1000-rune chunks with 100 runes of overlap.
func NewSplitter() *Splitter {
	return &Splitter{ChunkSize: 1000, Overlap: 100}
}

var separators = []string{"\n\n", "\n", " "}

// Split divides text into chunks of at most ChunkSize runes.
func (s *Splitter) Split(text string) []string {
	return s.split(text, 0)
}

func (s *Splitter) split(text string, sepIndex int) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if len([]rune(trimmed)) <= s.ChunkSize {
		return []string{trimmed}
	}
	if sepIndex >= len(separators) {
		return s.hardCut(trimmed)
	}

	sep := separators[sepIndex]
	parts := strings.Split(trimmed, sep)

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			if piece := strings.TrimSpace(current.String()); piece != "" {
				chunks = append(chunks, piece)
			}
			current.Reset()
			currentLen = 0
		}
	}

	for _, part := range parts {
		partLen := len([]rune(part))
		if partLen > s.ChunkSize {
			// A single part too big for one chunk: flush what we have and
			// recurse with the next, finer separator.
			flush()
			chunks = append(chunks, s.split(part, sepIndex+1)...)
			continue
		}
		if currentLen > 0 && currentLen+len([]rune(sep))+partLen > s.ChunkSize {
			flush()
		}
		if currentLen > 0 {
			current.WriteString(sep)
			currentLen += len([]rune(sep))
		}
		current.WriteString(part)
		currentLen += partLen
	}
	flush()

	return chunks
}

// hardCut slices text with overlap when no separator can help.
func (s *Splitter) hardCut(text string) []string {
	runes := []rune(text)
	step := s.ChunkSize - s.Overlap
	if step < 1 {
		step = s.ChunkSize
	}

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

var markdownHeader = regexp.MustCompile(`(?m)^#{1,6}\s+`)

// SplitMarkdown segments markdown by headers first, so a chunk never spans
// two sections, then applies the normal splitting within each section.
func (s *Splitter) SplitMarkdown(text string) []string {
	locs := markdownHeader.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return s.Split(text)
	}

	var sections []string
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			sections = append(sections, text[prev:loc[0]])
		}
		prev = loc[0]
	}
	sections = append(sections, text[prev:])

	var chunks []string
	for _, section := range sections {
		chunks = append(chunks, s.Split(section)...)
	}
	return chunks
}
