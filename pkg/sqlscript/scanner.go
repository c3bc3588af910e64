// Package sqlscript splits SQL scripts into statements.
//
// The scanner only knows where statements end: it skips string literals,
// quoted identifiers and comments so that a delimiter inside them does not
// end a statement. It does not parse SQL.
package sqlscript

import (
	"strings"
)

// DefaultDelimiter ends a statement unless the script changes it.
const DefaultDelimiter = ";"

// Position is a location in a script.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
	Offset int // 0-based byte offset
}

// Statement is one statement of a script, without its delimiter.
type Statement struct {
	Text string
	Pos  Position
}

// Options describe the lexical syntax of an engine.
type Options struct {
	// IdentQuote and IdentQuoteEnd delimit quoted identifiers, e.g. ` or [ ].
	// Double quotes are always skipped.
	IdentQuote    string
	IdentQuoteEnd string
	// Backslash escapes the next character inside string literals.
	Backslash bool
	// HashComments starts a line comment with #.
	HashComments bool
	// DollarQuotes recognizes $tag$...$tag$ strings.
	DollarQuotes bool
	// DelimiterCommand recognizes "DELIMITER x" lines that change the delimiter.
	DelimiterCommand bool
}

// Scanner reads statements one at a time.
type Scanner struct {
	input     string
	opts      Options
	delimiter string

	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)

	unterminated   bool
	lastTerminated bool
}

// NewScanner creates a Scanner over script.
func NewScanner(script string, opts Options) *Scanner {
	s := &Scanner{input: script, opts: opts, delimiter: DefaultDelimiter, line: 1}
	s.readChar()
	return s
}

// Split returns the statements of script in order. Empty statements are dropped.
func Split(script string, opts Options) []Statement {
	s := NewScanner(script, opts)
	var out []Statement
	for {
		stmt, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, stmt)
	}
}

// Complete reports whether script ends with a delimiter outside of any
// literal or comment, i.e. whether a prompt can run it.
func Complete(script string, opts Options) bool {
	s := NewScanner(script, opts)
	terminated := false
	for {
		_, ok := s.Next()
		if !ok {
			break
		}
		terminated = s.lastTerminated
	}
	return terminated && !s.unterminated
}

// Delimiter returns the delimiter in effect at the current position.
func (s *Scanner) Delimiter() string {
	return s.delimiter
}

// Next returns the next non-empty statement, or false at the end of the script.
func (s *Scanner) Next() (Statement, bool) {
	for s.ch != 0 {
		s.skipSpace()
		if s.ch == 0 {
			break
		}
		if s.opts.DelimiterCommand && s.readDelimiterCommand() {
			continue
		}

		start := s.currentPos()
		text, terminated := s.readStatement()
		s.lastTerminated = terminated
		text = strings.TrimSpace(text)
		if text != "" {
			return Statement{Text: text, Pos: start}, true
		}
	}
	return Statement{}, false
}

// readStatement consumes input up to and including the next delimiter.
func (s *Scanner) readStatement() (string, bool) {
	start := s.pos
	for s.ch != 0 {
		if strings.HasPrefix(s.input[s.pos:], s.delimiter) {
			text := s.input[start:s.pos]
			for range len(s.delimiter) {
				s.readChar()
			}
			return text, true
		}

		switch {
		case s.ch == '\'':
			s.skipQuoted('\'', s.opts.Backslash)
		case s.ch == '"':
			s.skipQuoted('"', false)
		case s.opts.IdentQuote != "" && s.opts.IdentQuote != `"` && strings.HasPrefix(s.input[s.pos:], s.opts.IdentQuote):
			s.skipUntil(s.opts.IdentQuoteEnd, len(s.opts.IdentQuote))
		case s.ch == '-' && s.peekChar() == '-', s.ch == '#' && s.opts.HashComments:
			s.skipLine()
		case s.ch == '/' && s.peekChar() == '*':
			s.skipUntil("*/", 2)
		case s.ch == '$' && s.opts.DollarQuotes:
			s.skipDollarQuoted()
		default:
			s.readChar()
		}
	}
	return s.input[start:s.pos], false
}

// readDelimiterCommand handles "DELIMITER x" at the start of a line.
func (s *Scanner) readDelimiterCommand() bool {
	const cmd = "DELIMITER"
	rest := s.input[s.pos:]
	if len(rest) <= len(cmd) || !strings.EqualFold(rest[:len(cmd)], cmd) || (rest[len(cmd)] != ' ' && rest[len(cmd)] != '\t') {
		return false
	}
	end := strings.IndexByte(rest, '\n')
	if end < 0 {
		end = len(rest)
	}
	delim := strings.TrimSpace(rest[len(cmd):end])
	if delim == "" {
		return false
	}
	if i := strings.IndexAny(delim, " \t"); i > 0 {
		delim = delim[:i]
	}
	for range end {
		s.readChar()
	}
	s.delimiter = delim
	return true
}

// skipQuoted skips a literal quoted with q, where a doubled q is an escaped quote.
func (s *Scanner) skipQuoted(q byte, backslash bool) {
	s.readChar() // opening quote
	for s.ch != 0 {
		switch {
		case backslash && s.ch == '\\':
			s.readChar()
		case s.ch == q && s.peekChar() == q:
			s.readChar()
		case s.ch == q:
			s.readChar()
			return
		}
		s.readChar()
	}
	s.unterminated = true
}

// skipUntil skips the opening of length skip and everything up to and including end.
func (s *Scanner) skipUntil(end string, skip int) {
	for range skip {
		s.readChar()
	}
	for s.ch != 0 {
		if strings.HasPrefix(s.input[s.pos:], end) {
			for range len(end) {
				s.readChar()
			}
			return
		}
		s.readChar()
	}
	s.unterminated = true
}

func (s *Scanner) skipLine() {
	for s.ch != '\n' && s.ch != 0 {
		s.readChar()
	}
}

// skipDollarQuoted skips $tag$...$tag$. A lone $ (e.g. a $1 placeholder) is not a quote.
func (s *Scanner) skipDollarQuoted() {
	rest := s.input[s.pos:]
	end := strings.IndexByte(rest[1:], '$')
	if end < 0 || !isTag(rest[1:end+1]) {
		s.readChar()
		return
	}
	tag := rest[:end+2]
	s.skipUntil(tag, len(tag))
}

func isTag(tag string) bool {
	for i := 0; i < len(tag); i++ {
		c := tag[i]
		if c != '_' && !isLetter(c) && (i == 0 || !isDigit(c)) {
			return false
		}
	}
	return true
}

// skipSpace skips whitespace and comments between statements.
func (s *Scanner) skipSpace() {
	for {
		for s.ch == ' ' || s.ch == '\t' || s.ch == '\n' || s.ch == '\r' {
			s.readChar()
		}
		switch {
		case s.ch == '-' && s.peekChar() == '-', s.ch == '#' && s.opts.HashComments:
			s.skipLine()
		case s.ch == '/' && s.peekChar() == '*':
			s.skipUntil("*/", 2)
		default:
			return
		}
	}
}

// readChar advances to the next character.
func (s *Scanner) readChar() {
	if s.readPos >= len(s.input) {
		s.ch = 0 // ASCII NUL = EOF
	} else {
		s.ch = s.input[s.readPos]
	}
	if s.pos < len(s.input) && s.readPos > 0 && s.input[s.pos] == '\n' {
		s.line++
		s.col = 0
	}
	s.pos = s.readPos
	s.readPos++
	s.col++
}

// peekChar returns the next character without advancing.
func (s *Scanner) peekChar() byte {
	if s.readPos >= len(s.input) {
		return 0
	}
	return s.input[s.readPos]
}

func (s *Scanner) currentPos() Position {
	return Position{Line: s.line, Column: s.col, Offset: s.pos}
}

func isLetter(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= 0x80
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
