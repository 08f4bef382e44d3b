package hoconparser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextToken(t *testing.T) {
	test := func(input string, expectedTokenType TokenType, expected string, extraAssertion ...func(t *testing.T, s *Scanner)) func(*testing.T) {
		return func(t *testing.T) {
			s := NewScanner("test.conf", input)
			tt := s.NextToken()
			assert.Equal(t, expectedTokenType, tt)
			assert.Equal(t, expected, s.Token())
			for _, a := range extraAssertion {
				a(t, s)
			}
		}
	}

	stringValue := func(expected string) func(t *testing.T, s *Scanner) {
		return func(t *testing.T, s *Scanner) {
			assert.Equal(t, expected, s.StringValue())
		}
	}

	t.Run("", test("    ", WhitespaceToken, "    "))
	t.Run("", test("   a   ", WhitespaceToken, "   "))
	t.Run("", test(" \t\n\t a", NewlineToken, " \t\n\t "))
	t.Run("", test("\n\n", NewlineToken, "\n\n"))
	// the BOM is whitespace wherever it appears
	t.Run("", test("\uFEFFfoo", WhitespaceToken, "\uFEFF"))

	t.Run("", test("{", LeftBraceToken, "{"))
	t.Run("", test("}", RightBraceToken, "}"))
	t.Run("", test("[", LeftBracketToken, "["))
	t.Run("", test("]", RightBracketToken, "]"))
	t.Run("", test(",", CommaToken, ","))
	t.Run("", test(":", ColonToken, ":"))
	t.Run("", test("=", EqualToken, "="))
	t.Run("", test(".5", DotToken, "."))
	t.Run("", test("+= 3", PlusEqualToken, "+="))
	t.Run("", test("+3", UnexpectedCharacterErrorToken, "+"))

	t.Run("", test("${foo}", SubstitutionToken, "${"))
	t.Run("", test("${?foo}", OptionalSubstitutionToken, "${?"))
	t.Run("", test("$foo", UnexpectedCharacterErrorToken, "$"))

	t.Run("", test("# comment\nfoo", CommentToken, "# comment"))
	t.Run("", test("# comment", CommentToken, "# comment"))
	t.Run("", test("// comment\nfoo", CommentToken, "// comment"))

	t.Run("", test(`"hello world" after`, QuotedStringToken, `"hello world"`, stringValue("hello world")))
	t.Run("", test(`""`, QuotedStringToken, `""`, stringValue("")))
	t.Run("", test(`"a\tb\nc\\d\"e\/f"`, QuotedStringToken, `"a\tb\nc\\d\"e\/f"`, stringValue("a\tb\nc\\d\"e/f")))
	t.Run("", test(`"Aé"`, QuotedStringToken, `"Aé"`, stringValue("Aé")))
	t.Run("", test(`"😀"`, QuotedStringToken, `"😀"`, stringValue("😀")))
	// surrogate pair reconstructing a supplementary code point
	t.Run("", test(`"\ud83d\ude00"`, QuotedStringToken, `"\ud83d\ude00"`, stringValue("😀")))
	t.Run("", test(`"\ud83d"`, UnpairedSurrogateErrorToken, `"\ud83d`))
	t.Run("", test(`"\ud83dA"`, UnpairedSurrogateErrorToken, `"\ud83d`))
	t.Run("", test(`"\ude00"`, UnpairedSurrogateErrorToken, `"\ude00`))
	t.Run("", test(`"\q"`, InvalidEscapeErrorToken, `"\q`))
	t.Run("", test(`"\u00g1"`, InvalidEscapeErrorToken, `"\u`))
	t.Run("", test(`"abc`, UnterminatedStringErrorToken, `"abc`))
	t.Run("", test("\"ab\ncd\"", UnterminatedStringErrorToken, `"ab`))

	t.Run("", test(`"""multi
line"""x`, TripleQuotedStringToken, `"""multi
line"""`, stringValue("multi\nline")))
	t.Run("", test(`""""""`, TripleQuotedStringToken, `""""""`, stringValue("")))
	// extra quotes belong to the string
	t.Run("", test(`"""a""""`, TripleQuotedStringToken, `"""a""""`, stringValue(`a"`)))
	t.Run("", test(`"""never ends`, UnterminatedStringErrorToken, `"""never ends`))

	t.Run("", test("abc def", UnquotedStringToken, "abc"))
	t.Run("", test("abc,def", UnquotedStringToken, "abc"))
	t.Run("", test("true", UnquotedStringToken, "true"))
	t.Run("", test("10s", UnquotedStringToken, "10s"))
	t.Run("", test("1.5", UnquotedStringToken, "1"))
	t.Run("", test("-12e4", UnquotedStringToken, "-12e4"))
	t.Run("", test("foo/bar", UnquotedStringToken, "foo/bar"))
	t.Run("", test("foo//bar", UnquotedStringToken, "foo"))
	t.Run("", test("a${b}", UnquotedStringToken, "a"))
	t.Run("", test("url(", UnquotedStringToken, "url("))
	t.Run("", test("))", UnquotedStringToken, "))"))

	t.Run("", test("\xff\xfe", NonUTF8ErrorToken, ""))
	t.Run("", test("ab\xffcd", NonUTF8ErrorToken, "ab"))

	t.Run("", test("", EOFToken, ""))
}

func TestScannerPositions(t *testing.T) {
	s := NewScanner("pos.conf", "a = 1\n  b = 2")
	assert.Equal(t, UnquotedStringToken, s.NextToken())
	assert.Equal(t, Pos{File: "pos.conf", Line: 1, Col: 1}, s.Start())

	s.NextToken() // whitespace
	s.NextToken() // =
	assert.Equal(t, Pos{File: "pos.conf", Line: 1, Col: 3}, s.Start())
	s.NextToken() // whitespace
	s.NextToken() // 1
	assert.Equal(t, Pos{File: "pos.conf", Line: 1, Col: 5}, s.Start())

	assert.Equal(t, NewlineToken, s.NextToken())
	assert.Equal(t, UnquotedStringToken, s.NextToken())
	assert.Equal(t, Pos{File: "pos.conf", Line: 2, Col: 3}, s.Start())
}

func TestScannerTokenStream(t *testing.T) {
	// exercise a full small document and make sure tokens tile the input
	input := "foo { bar = [1, 2] // done\n}"
	s := NewScanner("stream.conf", input)
	var rebuilt strings.Builder
	for {
		tt := s.NextToken()
		if tt == EOFToken {
			break
		}
		if !assert.False(t, tt.IsError(), "unexpected error token %s at %q", tt, s.Token()) {
			break
		}
		rebuilt.WriteString(s.Token())
	}
	assert.Equal(t, input, rebuilt.String())
}

func TestScannerClone(t *testing.T) {
	s := NewScanner("clone.conf", "a b")
	s.NextToken()
	c := s.Clone()
	c.NextToken()
	c.NextToken()
	assert.Equal(t, "b", c.Token())
	// the original did not move
	assert.Equal(t, "a", s.Token())
}
