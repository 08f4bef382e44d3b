package hoconparser

import (
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// dedicated type for reference to file, in case we need to refactor this later..
type FileRef string

type Pos struct {
	File      FileRef
	Line, Col int
}

// We don't do the lexer/parser split / token stream, but simply use the
// Scanner directly from the recursive descent parser; it is simply a cursor
// in the buffer with associated utility methods.
//
// The Scanner works on raw bytes. UTF-8 is validated only inside quoted
// strings and unquoted-string runs; structural bytes are all ASCII so the
// rest of the input never needs a transcoding pass.
type Scanner struct {
	input string
	file  FileRef

	startIndex int // start of this item
	curIndex   int // current position of the Scanner
	tokenType  TokenType

	startLine        int
	stopLine         int
	indexAtStartLine int // value of `curIndex` after newline char
	indexAtStopLine  int // value of `curIndex` after newline char

	// decoded contents of a quoted or triple-quoted string token; escape
	// processing happens during the scan so that malformed escapes surface
	// as error tokens with a position
	stringValue string
}

type TokenType int

func NewScanner(file FileRef, input string) *Scanner {
	return &Scanner{input: input, file: file}
}

func (s *Scanner) TokenType() TokenType {
	return s.tokenType
}

// Returns a clone of the scanner; this is used to do look-ahead parsing
func (s Scanner) Clone() *Scanner {
	result := new(Scanner)
	*result = s
	return result
}

func (s *Scanner) Token() string {
	return s.input[s.startIndex:s.curIndex]
}

// StringValue returns the decoded form of a QuotedStringToken or
// TripleQuotedStringToken (quotes stripped, escapes expanded).
func (s *Scanner) StringValue() string {
	return s.stringValue
}

func (s *Scanner) Start() Pos {
	return Pos{
		Line: s.startLine + 1,
		Col:  s.startIndex - s.indexAtStartLine + 1,
		File: s.file,
	}
}

func (s *Scanner) Stop() Pos {
	return Pos{
		Line: s.stopLine + 1,
		Col:  s.curIndex - s.indexAtStopLine + 1,
		File: s.file,
	}
}

func (s *Scanner) bumpLine(offset int) {
	s.stopLine++
	s.indexAtStopLine = s.curIndex + offset + 1
}

// NextToken scans the next token and advances the Scanner's position to
// after the token
func (s *Scanner) NextToken() TokenType {
	s.tokenType = s.nextToken()
	return s.tokenType
}

// isHoconWhitespace matches the HOCON whitespace definition: Unicode
// whitespace plus the BOM, which is insignificant anywhere it appears.
func isHoconWhitespace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// isForbiddenInUnquoted lists the bytes that terminate an unquoted-string
// run. '.' terminates too but is handled separately since it scans as its
// own token.
func isForbiddenInUnquoted(r rune) bool {
	switch r {
	case '$', '"', '{', '}', '[', ']', ':', '=', ',', '+', '#', '`', '^', '?', '!', '@', '*', '&', '\\':
		return true
	}
	return false
}

func (s *Scanner) nextToken() TokenType {
	s.startIndex = s.curIndex
	s.startLine = s.stopLine
	s.indexAtStartLine = s.indexAtStopLine
	s.stringValue = ""
	r, w := utf8.DecodeRuneInString(s.input[s.curIndex:])

	// First, decisions that can be made after one character:
	switch {
	case r == utf8.RuneError && w == 0:
		return EOFToken
	case r == utf8.RuneError && w == 1:
		// not UTF-8, we can't really proceed so not advancing Scanner,
		// caller should take care to always exit..
		return NonUTF8ErrorToken
	case r == '{':
		s.curIndex += w
		return LeftBraceToken
	case r == '}':
		s.curIndex += w
		return RightBraceToken
	case r == '[':
		s.curIndex += w
		return LeftBracketToken
	case r == ']':
		s.curIndex += w
		return RightBracketToken
	case r == ',':
		s.curIndex += w
		return CommaToken
	case r == ':':
		s.curIndex += w
		return ColonToken
	case r == '=':
		s.curIndex += w
		return EqualToken
	case r == '.':
		s.curIndex += w
		return DotToken
	case r == '#':
		s.curIndex += w
		return s.scanComment()
	case r == '"':
		if strings.HasPrefix(s.input[s.curIndex:], `"""`) {
			s.curIndex += 3
			return s.scanTripleQuotedString()
		}
		s.curIndex += w
		return s.scanQuotedString()
	case isHoconWhitespace(r):
		// do not advance s.curIndex here, simpler to do it all in
		// scanWhitespace(); in case r == '\n' we need stopLine number bump
		return s.scanWhitespace()
	}

	// OK, we need to peek 1 character to make a decision
	r2, w2 := utf8.DecodeRuneInString(s.input[s.curIndex+w:])

	switch {
	case r == '+':
		if r2 == '=' {
			s.curIndex += w + w2
			return PlusEqualToken
		}
		s.curIndex += w
		return UnexpectedCharacterErrorToken
	case r == '$':
		if r2 == '{' {
			r3, w3 := utf8.DecodeRuneInString(s.input[s.curIndex+w+w2:])
			if r3 == '?' {
				s.curIndex += w + w2 + w3
				return OptionalSubstitutionToken
			}
			s.curIndex += w + w2
			return SubstitutionToken
		}
		s.curIndex += w
		return UnexpectedCharacterErrorToken
	case r == '/' && r2 == '/':
		s.curIndex += w + w2
		return s.scanComment()
	case isForbiddenInUnquoted(r):
		s.curIndex += w
		return UnexpectedCharacterErrorToken
	}

	return s.scanUnquoted()
}

// scanComment assumes one has advanced over '#' or '//'
func (s *Scanner) scanComment() TokenType {
	end := strings.IndexByte(s.input[s.curIndex:], '\n')
	if end == -1 {
		s.curIndex = len(s.input)
	} else {
		// the \n is not part of the token; it scans as the following
		// NewlineToken, which the parser relies on for statement separation
		s.curIndex += end
	}
	return CommentToken
}

func (s *Scanner) scanWhitespace() TokenType {
	sawNewline := false
	for i, r := range s.input[s.curIndex:] {
		if r == '\n' {
			s.bumpLine(i)
			sawNewline = true
		}
		if !isHoconWhitespace(r) {
			s.curIndex += i
			if sawNewline {
				return NewlineToken
			}
			return WhitespaceToken
		}
	}
	// eof
	s.curIndex = len(s.input)
	if sawNewline {
		return NewlineToken
	}
	return WhitespaceToken
}

// scanUnquoted assumes the first character of an unquoted-string run has
// been identified (but not consumed), and scans to the end of the run
func (s *Scanner) scanUnquoted() TokenType {
	i := 0
	for i < len(s.input)-s.curIndex {
		r, w := utf8.DecodeRuneInString(s.input[s.curIndex+i:])
		if r == utf8.RuneError && w == 1 {
			s.curIndex += i
			if i == 0 {
				s.curIndex++ // make sure an error token is never empty
			}
			return NonUTF8ErrorToken
		}
		if isHoconWhitespace(r) || isForbiddenInUnquoted(r) || r == '.' {
			break
		}
		if r == '/' {
			r2, _ := utf8.DecodeRuneInString(s.input[s.curIndex+i+w:])
			if r2 == '/' {
				break
			}
		}
		i += w
	}
	s.curIndex += i
	return UnquotedStringToken
}

// scanQuotedString assumes one has advanced over the opening '"'. Escape
// sequences are expanded into stringValue as we go; a malformed escape,
// unpaired surrogate or raw newline produces an error token rather than a
// (mis-)scanned string.
func (s *Scanner) scanQuotedString() TokenType {
	var b strings.Builder
	for {
		r, w := utf8.DecodeRuneInString(s.input[s.curIndex:])
		switch {
		case r == utf8.RuneError && w == 0:
			return UnterminatedStringErrorToken
		case r == utf8.RuneError && w == 1:
			s.curIndex++
			return NonUTF8ErrorToken
		case r == '"':
			s.curIndex += w
			s.stringValue = b.String()
			return QuotedStringToken
		case r == '\n':
			// quoted strings are single-line; multi-line text uses """
			return UnterminatedStringErrorToken
		case r == '\\':
			s.curIndex += w
			tt := s.scanEscape(&b)
			if tt != 0 {
				return tt
			}
		default:
			s.curIndex += w
			b.WriteRune(r)
		}
	}
}

// scanEscape assumes one has advanced over the backslash. Returns 0 on
// success and an error token type otherwise.
func (s *Scanner) scanEscape(b *strings.Builder) TokenType {
	r, w := utf8.DecodeRuneInString(s.input[s.curIndex:])
	if r == utf8.RuneError && w <= 1 {
		return InvalidEscapeErrorToken
	}
	s.curIndex += w
	switch r {
	case '"':
		b.WriteByte('"')
	case '\\':
		b.WriteByte('\\')
	case '/':
		b.WriteByte('/')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'u':
		return s.scanUnicodeEscape(b)
	default:
		return InvalidEscapeErrorToken
	}
	return 0
}

// scanUnicodeEscape assumes one has advanced over `\u`. Handles surrogate
// pairs: a high surrogate must be immediately followed by a `\uXXXX` low
// surrogate, reconstructing the supplementary code point.
func (s *Scanner) scanUnicodeEscape(b *strings.Builder) TokenType {
	u1, ok := s.scanHex4()
	if !ok {
		return InvalidEscapeErrorToken
	}
	if !utf16.IsSurrogate(rune(u1)) {
		b.WriteRune(rune(u1))
		return 0
	}
	if u1 >= 0xDC00 {
		// a low surrogate with no preceding high surrogate
		return UnpairedSurrogateErrorToken
	}
	if !strings.HasPrefix(s.input[s.curIndex:], `\u`) {
		return UnpairedSurrogateErrorToken
	}
	s.curIndex += 2
	u2, ok := s.scanHex4()
	if !ok {
		return InvalidEscapeErrorToken
	}
	r := utf16.DecodeRune(rune(u1), rune(u2))
	if r == utf8.RuneError {
		return UnpairedSurrogateErrorToken
	}
	b.WriteRune(r)
	return 0
}

func (s *Scanner) scanHex4() (int, bool) {
	if len(s.input)-s.curIndex < 4 {
		return 0, false
	}
	v := 0
	for i := 0; i < 4; i++ {
		c := s.input[s.curIndex+i]
		switch {
		case c >= '0' && c <= '9':
			v = v<<4 | int(c-'0')
		case c >= 'a' && c <= 'f':
			v = v<<4 | int(c-'a'+10)
		case c >= 'A' && c <= 'F':
			v = v<<4 | int(c-'A'+10)
		default:
			return 0, false
		}
	}
	s.curIndex += 4
	return v, true
}

// scanTripleQuotedString assumes one has advanced over the opening `"""`.
// Contents are verbatim; the string ends at the last `"""` of a quote run,
// so `""""` is the one-character string `"`.
func (s *Scanner) scanTripleQuotedString() TokenType {
	rest := s.input[s.curIndex:]
	end := strings.Index(rest, `"""`)
	if end == -1 {
		for i, r := range rest {
			if r == '\n' {
				s.bumpLine(i)
			}
		}
		s.curIndex = len(s.input)
		return UnterminatedStringErrorToken
	}
	// any extra quotes belong to the string; the final three close it
	closeAt := end + 3
	for closeAt < len(rest) && rest[closeAt] == '"' {
		closeAt++
	}
	content := rest[:closeAt-3]
	if !utf8.ValidString(content) {
		s.curIndex += closeAt - 3
		return NonUTF8ErrorToken
	}
	for i, r := range rest[:closeAt] {
		if r == '\n' {
			s.bumpLine(i)
		}
	}
	s.curIndex += closeAt
	s.stringValue = content
	return TripleQuotedStringToken
}
