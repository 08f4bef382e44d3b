package hoconparser

const (
	// WhitespaceToken is a run of inline whitespace with no newline in it.
	// Runs containing at least one newline scan as NewlineToken instead,
	// because newlines separate statements while inline whitespace merely
	// separates the pieces of a concatenation.
	WhitespaceToken TokenType = iota + 1
	NewlineToken

	CommentToken

	LeftBraceToken
	RightBraceToken
	LeftBracketToken
	RightBracketToken
	CommaToken
	ColonToken
	EqualToken
	PlusEqualToken
	DotToken

	SubstitutionToken         // ${
	OptionalSubstitutionToken // ${?

	QuotedStringToken
	TripleQuotedStringToken
	UnquotedStringToken

	UnterminatedStringErrorToken
	InvalidEscapeErrorToken
	UnpairedSurrogateErrorToken
	NonUTF8ErrorToken
	UnexpectedCharacterErrorToken

	EOFToken
)

func (tt TokenType) GoString() string {
	return tokenToDescription[tt]
}

func (tt TokenType) String() string {
	return tokenToDescription[tt]
}

// IsError reports whether the token represents a lexical error. The scanner
// reports problems as error tokens rather than error returns; the parser
// promotes them to Error values with KindScan.
func (tt TokenType) IsError() bool {
	switch tt {
	case UnterminatedStringErrorToken, InvalidEscapeErrorToken,
		UnpairedSurrogateErrorToken, NonUTF8ErrorToken,
		UnexpectedCharacterErrorToken:
		return true
	default:
		return false
	}
}

func init() {
	// make sure we panic if a description isn't declared
	for tt := TokenType(1); tt != EOFToken; tt++ {
		if tokenToDescription[tt] == "" {
			panic("you have not updated tokenToDescription")
		}
	}
}

var tokenToDescription = map[TokenType]string{
	WhitespaceToken: "WhitespaceToken",
	NewlineToken:    "NewlineToken",

	CommentToken: "CommentToken",

	LeftBraceToken:    "LeftBraceToken",
	RightBraceToken:   "RightBraceToken",
	LeftBracketToken:  "LeftBracketToken",
	RightBracketToken: "RightBracketToken",
	CommaToken:        "CommaToken",
	ColonToken:        "ColonToken",
	EqualToken:        "EqualToken",
	PlusEqualToken:    "PlusEqualToken",
	DotToken:          "DotToken",

	SubstitutionToken:         "SubstitutionToken",
	OptionalSubstitutionToken: "OptionalSubstitutionToken",

	QuotedStringToken:       "QuotedStringToken",
	TripleQuotedStringToken: "TripleQuotedStringToken",
	UnquotedStringToken:     "UnquotedStringToken",

	UnterminatedStringErrorToken:  "UnterminatedStringErrorToken",
	InvalidEscapeErrorToken:       "InvalidEscapeErrorToken",
	UnpairedSurrogateErrorToken:   "UnpairedSurrogateErrorToken",
	NonUTF8ErrorToken:             "NonUTF8ErrorToken",
	UnexpectedCharacterErrorToken: "UnexpectedCharacterErrorToken",

	EOFToken: "EOFToken",
}
