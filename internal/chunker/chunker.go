// Package chunker provides a fixed-size overlapping text splitter.
package chunker

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// separators are tried in order when snapping a chunk boundary: paragraph
// break, line break, sentence end, word break. Raw character slicing is the
// fallback when no separator fits in the window.
var separators = []string{"\n\n", "\n", ". ", " "}

// Splitter splits text into overlapping fixed-size windows. It is a pure
// function of its input: no hidden state, restartable, deterministic.
type Splitter struct {
	chunkSize int
	overlap   int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a new splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Ensure overlap doesn't exceed chunk size
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}

	return s
}

// ChunkSize returns the configured chunk size.
func (s *Splitter) ChunkSize() int {
	return s.chunkSize
}

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int {
	return s.overlap
}

// Split returns the overlapping windows covering text. Sizes and overlap
// count characters, not bytes, so multi-byte text is never cut mid-rune.
// Consecutive chunks share exactly the configured overlap; each chunk ends
// at the latest natural boundary (paragraph, line, sentence, word) in the
// second half of its window, falling back to a raw character cut. Input no
// longer than the chunk size yields exactly one chunk equal to the input;
// empty input yields none.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= s.chunkSize {
		return []string{text}
	}

	estimated := len(runes)/(s.chunkSize-s.overlap) + 1
	chunks := make([]string, 0, estimated)

	start := 0
	for start < len(runes) {
		end := start + s.chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		end = s.snapBoundary(runes, start, end)
		chunks = append(chunks, string(runes[start:end]))
		start = end - s.overlap
	}

	return chunks
}

// snapBoundary moves end back to just after the latest separator in the
// window, provided the resulting chunk keeps more than half the window and
// strictly outgrows the overlap so the splitter always advances. Returns
// end unchanged when no separator qualifies.
func (s *Splitter) snapBoundary(runes []rune, start, end int) int {
	floor := start + s.chunkSize/2
	if lo := start + s.overlap + 1; floor < lo {
		floor = lo
	}

	for _, sep := range separators {
		sepRunes := []rune(sep)
		idx := lastIndexRunes(runes[start:end], sepRunes)
		if idx < 0 {
			continue
		}
		boundary := start + idx + len(sepRunes)
		if boundary > floor {
			return boundary
		}
	}
	return end
}

// lastIndexRunes reports the index of the last occurrence of sep in window,
// or -1 when absent.
func lastIndexRunes(window, sep []rune) int {
	for i := len(window) - len(sep); i >= 0; i-- {
		match := true
		for j := range sep {
			if window[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
