package dtd

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// scanner is a cursor over DTD text.
type scanner struct {
	src    string
	source string
	pos    int
}

func newScanner(src, source string) *scanner {
	return &scanner{src: src, source: source}
}

func (s *scanner) done() bool { return s.pos >= len(s.src) }

func (s *scanner) rest() string { return s.src[s.pos:] }

func (s *scanner) peek() rune {
	if s.done() {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(s.src[s.pos:])
	return r
}

func (s *scanner) advance(n int) {
	s.pos = min(s.pos+n, len(s.src))
}

func (s *scanner) hasPrefix(prefix string) bool {
	return strings.HasPrefix(s.src[s.pos:], prefix)
}

func (s *scanner) consume(prefix string) bool {
	if !s.hasPrefix(prefix) {
		return false
	}
	s.pos += len(prefix)
	return true
}

func (s *scanner) expect(prefix string) error {
	if !s.consume(prefix) {
		return s.errorf("expected %q", prefix)
	}
	return nil
}

// skipBlanks consumes white space and reports whether any was present.
func (s *scanner) skipBlanks() bool {
	start := s.pos
	for !s.done() && isBlank(s.src[s.pos]) {
		s.pos++
	}
	return s.pos > start
}

func (s *scanner) requireBlanks(context string) error {
	if !s.skipBlanks() {
		return s.errorf("white space required %s", context)
	}
	return nil
}

// until consumes up to and including terminator and returns the text
// before it.
func (s *scanner) until(terminator string) (string, error) {
	idx := strings.Index(s.src[s.pos:], terminator)
	if idx < 0 {
		return "", s.errorf("unterminated construct, expected %q", terminator)
	}
	text := s.src[s.pos : s.pos+idx]
	s.pos += idx + len(terminator)
	return text, nil
}

func (s *scanner) name() (string, error) {
	start := s.pos
	for !s.done() {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if s.pos == start && !isNameStartChar(r) {
			break
		}
		if s.pos > start && !isNameChar(r) {
			break
		}
		s.pos += size
	}
	if s.pos == start {
		return "", s.errorf("name expected")
	}
	return s.src[start:s.pos], nil
}

func (s *scanner) nmtoken() (string, error) {
	start := s.pos
	for !s.done() {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if !isNameChar(r) {
			break
		}
		s.pos += size
	}
	if s.pos == start {
		return "", s.errorf("name token expected")
	}
	return s.src[start:s.pos], nil
}

// quoted consumes a single- or double-quoted literal and returns its body.
func (s *scanner) quoted() (string, error) {
	q := s.peek()
	if q != '"' && q != '\'' {
		return "", s.errorf("quoted literal expected")
	}
	s.advance(1)
	return s.until(string(q))
}

// keyword consumes one of the given words when it is not followed by a
// name character.
func (s *scanner) keyword(words ...string) (string, bool) {
	for _, w := range words {
		if !s.hasPrefix(w) {
			continue
		}
		next, _ := utf8.DecodeRuneInString(s.src[s.pos+len(w):])
		if s.pos+len(w) < len(s.src) && isNameChar(next) {
			continue
		}
		s.pos += len(w)
		return w, true
	}
	return "", false
}

func (s *scanner) position() (line, col int) {
	line = 1 + strings.Count(s.src[:s.pos], "\n")
	col = s.pos - strings.LastIndex(s.src[:s.pos], "\n")
	return line, col
}

func (s *scanner) errorf(format string, args ...any) error {
	line, col := s.position()
	return &syntaxError{source: s.source, line: line, col: col, msg: fmt.Sprintf(format, args...)}
}

type syntaxError struct {
	source string
	msg    string
	line   int
	col    int
}

func (e *syntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.source, e.line, e.col, e.msg)
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isNameStartChar(r rune) bool {
	return r == ':' || r == '_' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	return isNameStartChar(r) || r == '-' || r == '.' || unicode.IsDigit(r) ||
		r == 0xB7 || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)
}
