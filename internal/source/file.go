// Package source holds IDL input text and resolves byte offsets to lines and columns.
package source

import (
	"fmt"
	"os"
	"sort"

	"fortio.org/safecast"
)

// Span is a half-open byte range inside a File.
type Span struct {
	Start uint32
	End   uint32
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// Cover returns the smallest span containing both s and other.
func (s Span) Cover(other Span) Span {
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// LineCol is a human readable position, both values 1-based.
type LineCol struct {
	Line uint32
	Col  uint32
}

func (lc LineCol) String() string {
	return fmt.Sprintf("%d:%d", lc.Line, lc.Col)
}

type File struct {
	Path    string
	Content []byte
	lineIdx []uint32
}

func NewFile(path string, content []byte) *File {
	f := &File{Path: path, Content: content}
	f.lineIdx = append(f.lineIdx, 0)
	for i, b := range content {
		if b != '\n' {
			continue
		}
		off, err := safecast.Conv[uint32](i + 1)
		if err != nil {
			panic(fmt.Errorf("line offset overflow: %w", err))
		}
		f.lineIdx = append(f.lineIdx, off)
	}
	return f
}

// Load reads the file at path from disk.
func Load(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	return NewFile(path, content), nil
}

// Len returns the content length as a span offset.
func (f *File) Len() uint32 {
	n, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("file content overflow: %w", err))
	}
	return n
}

// Position resolves a byte offset. Offsets past the end clamp to the end.
func (f *File) Position(off uint32) LineCol {
	if off > f.Len() {
		off = f.Len()
	}
	line := sort.Search(len(f.lineIdx), func(i int) bool { return f.lineIdx[i] > off }) - 1
	lineNum, err := safecast.Conv[uint32](line + 1)
	if err != nil {
		panic(fmt.Errorf("line number overflow: %w", err))
	}
	return LineCol{Line: lineNum, Col: off - f.lineIdx[line] + 1}
}

// Line returns the text of a 1-based line without its terminator.
func (f *File) Line(n uint32) string {
	if n == 0 || int(n) > len(f.lineIdx) {
		return ""
	}
	start := f.lineIdx[n-1]
	end := f.Len()
	if int(n) < len(f.lineIdx) {
		end = f.lineIdx[n] - 1
	}
	if end > start && f.Content[end-1] == '\r' {
		end--
	}
	return string(f.Content[start:end])
}
