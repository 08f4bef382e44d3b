// Recursive descent parser for HOCON; produces a raw expression tree with
// substitutions, concatenations, includes and += still unresolved. The tree
// is handed through include expansion and merging before the resolver turns
// it into concrete values.
package hoconparser

import (
	"fmt"
	"regexp"
	"strings"
)

type Parser struct {
	s *Scanner

	depthLimit int
	depth      int
}

// ParseDocument parses a complete HOCON document. The root is an object
// (with or without surrounding braces) or, as in JSON, an array.
//
// CONVENTION:
// All parse functions expect `s` positioned on the first token of what they
// are documented to consume/parse, and return with `s` positioned on the
// first token after it. Whitespace handling is explicit: inline whitespace
// is part of concatenations, newlines separate statements, so no function
// skips whitespace on behalf of its caller.
func ParseDocument(file FileRef, input string, depthLimit int) (Raw, error) {
	if depthLimit <= 0 {
		depthLimit = DefaultRecursionDepthLimit
	}
	p := &Parser{s: NewScanner(file, input), depthLimit: depthLimit}
	p.s.NextToken()
	p.skipIgnorable()

	var root Raw
	var err error
	switch p.s.TokenType() {
	case EOFToken:
		return &ObjectExpr{}, nil
	case LeftBraceToken:
		root, err = p.parseObject()
	case LeftBracketToken:
		root, err = p.parseArray()
	default:
		obj := &ObjectExpr{Pos: p.s.Start()}
		if err := p.parseObjectBody(obj, true); err != nil {
			return nil, err
		}
		return obj, nil
	}
	if err != nil {
		return nil, err
	}
	p.skipIgnorable()
	if p.s.TokenType() != EOFToken {
		return nil, p.parseError("unexpected %s after top-level value", p.s.TokenType())
	}
	return root, nil
}

// DefaultRecursionDepthLimit bounds nesting of objects and arrays.
const DefaultRecursionDepthLimit = 64

// skipInline advances over inline whitespace and comments. Newlines stay,
// they are statement separators.
func (p *Parser) skipInline() {
	for {
		switch p.s.TokenType() {
		case WhitespaceToken, CommentToken:
		default:
			return
		}
		p.s.NextToken()
	}
}

// skipIgnorable advances over whitespace of both kinds and comments.
func (p *Parser) skipIgnorable() {
	for {
		switch p.s.TokenType() {
		case WhitespaceToken, NewlineToken, CommentToken:
		default:
			return
		}
		p.s.NextToken()
	}
}

// skipSeparators is skipIgnorable plus commas; used between statements and
// array elements, where any mix of commas and newlines separates items.
func (p *Parser) skipSeparators() {
	for {
		switch p.s.TokenType() {
		case WhitespaceToken, NewlineToken, CommentToken, CommaToken:
		default:
			return
		}
		p.s.NextToken()
	}
}

func (p *Parser) parseError(format string, args ...any) error {
	return Error{Pos: p.s.Start(), Kind: KindParse, Message: fmt.Sprintf(format, args...)}
}

// scanError promotes the scanner's error token to an Error value.
func (p *Parser) scanError() error {
	var msg string
	switch p.s.TokenType() {
	case UnterminatedStringErrorToken:
		msg = "unterminated string"
	case InvalidEscapeErrorToken:
		msg = "invalid escape sequence"
	case UnpairedSurrogateErrorToken:
		msg = "unpaired surrogate in \\u escape"
	case NonUTF8ErrorToken:
		msg = "input is not valid UTF-8"
	case UnexpectedCharacterErrorToken:
		msg = fmt.Sprintf("unexpected character %q", p.s.Token())
	default:
		msg = "unexpected input"
	}
	return Error{Pos: p.s.Start(), Kind: KindScan, Message: msg}
}

func (p *Parser) enter() error {
	p.depth++
	if p.depth > p.depthLimit {
		return Error{Pos: p.s.Start(), Kind: KindRecursionDepthExceeded,
			Message: fmt.Sprintf("nesting deeper than %d levels", p.depthLimit)}
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// parseObject consumes `{ ... }`.
func (p *Parser) parseObject() (*ObjectExpr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	obj := &ObjectExpr{Pos: p.s.Start()}
	p.s.NextToken()
	if err := p.parseObjectBody(obj, false); err != nil {
		return nil, err
	}
	return obj, nil
}

// parseObjectBody consumes statements up to and including the closing brace
// (or, at top level, EOF).
func (p *Parser) parseObjectBody(obj *ObjectExpr, topLevel bool) error {
	for {
		p.skipSeparators()
		tt := p.s.TokenType()
		switch {
		case tt == RightBraceToken:
			if topLevel {
				return p.parseError("unexpected '}'")
			}
			p.s.NextToken()
			return nil
		case tt == EOFToken:
			if topLevel {
				return nil
			}
			return p.parseError("unexpected end of input, expected '}'")
		case tt.IsError():
			return p.scanError()
		}

		if p.atIncludeDirective() {
			inc, err := p.parseInclude()
			if err != nil {
				return err
			}
			obj.Items = append(obj.Items, inc)
		} else {
			field, err := p.parseField()
			if err != nil {
				return err
			}
			obj.Items = append(obj.Items, field)
		}

		if err := p.expectStatementEnd(); err != nil {
			return err
		}
	}
}

// expectStatementEnd verifies that a statement is followed by a newline,
// comma, closing brace or EOF; it skips only inline whitespace and comments,
// leaving the separator itself to the statement loop.
func (p *Parser) expectStatementEnd() error {
	p.skipInline()
	switch p.s.TokenType() {
	case NewlineToken, CommaToken, RightBraceToken, EOFToken:
		return nil
	default:
		if p.s.TokenType().IsError() {
			return p.scanError()
		}
		return p.parseError("expected newline or comma after value, got %s", p.s.TokenType())
	}
}

// atIncludeDirective distinguishes the `include` directive from `include`
// used as a plain key, by looking ahead for a locator.
func (p *Parser) atIncludeDirective() bool {
	if p.s.TokenType() != UnquotedStringToken || p.s.Token() != "include" {
		return false
	}
	c := p.s.Clone()
	tt := c.NextToken()
	for tt == WhitespaceToken {
		tt = c.NextToken()
	}
	if tt == QuotedStringToken {
		return true
	}
	if tt == UnquotedStringToken {
		// with no spaces, nested wrappers arrive as one token
		// ("required(file("), so match on the first wrapper only
		switch tok, _, _ := strings.Cut(c.Token(), "("); tok {
		case "url", "file", "classpath", "required":
			return strings.Contains(c.Token(), "(")
		}
	}
	return false
}

// parseInclude consumes `include <locator>`. Locators are a bare quoted
// string or url(...), file(...), classpath(...), optionally wrapped in
// required(...).
func (p *Parser) parseInclude() (Include, error) {
	pos := p.s.Start()
	p.s.NextToken()
	p.skipInline()

	inc := Include{Kind: HeuristicInclude, Pos: pos}
	closers := 0
	for inc.Locator == "" {
		switch p.s.TokenType() {
		case QuotedStringToken:
			inc.Locator = p.s.StringValue()
			if inc.Locator == "" {
				return Include{}, p.parseError("empty include locator")
			}
			p.s.NextToken()
		case UnquotedStringToken:
			// nested wrappers written without spaces scan as one token;
			// each piece up to a '(' is one wrapper
			tok := p.s.Token()
			for tok != "" {
				wrapper, rest, found := strings.Cut(tok, "(")
				if !found {
					return Include{}, p.parseError("expected include locator, got %q", p.s.Token())
				}
				switch wrapper {
				case "required":
					inc.Required = true
				case "url":
					inc.Kind = URLInclude
				case "file":
					inc.Kind = FileInclude
				case "classpath":
					inc.Kind = ClasspathInclude
				default:
					return Include{}, p.parseError("expected include locator, got %q", p.s.Token())
				}
				closers++
				tok = rest
			}
			p.s.NextToken()
			p.skipInline()
		default:
			return Include{}, p.parseError("expected include locator, got %s", p.s.TokenType())
		}
	}

	p.skipInline()
	for closers > 0 {
		tok := p.s.Token()
		if p.s.TokenType() != UnquotedStringToken || strings.Count(tok, ")") != len(tok) || len(tok) > closers {
			return Include{}, p.parseError("expected ')' closing include locator")
		}
		closers -= len(tok)
		p.s.NextToken()
		p.skipInline()
	}
	return inc, nil
}

// parseField consumes `key-path <sep> value`, where <sep> is ':', '=', '+='
// or omitted before an object literal.
func (p *Parser) parseField() (Field, error) {
	pos := p.s.Start()
	path, err := p.parseKeyPath()
	if err != nil {
		return Field{}, err
	}

	field := Field{Path: path, Pos: pos}
	switch p.s.TokenType() {
	case ColonToken, EqualToken:
	case PlusEqualToken:
		field.SelfAppend = true
	case LeftBraceToken:
		// `foo { ... }` — the omitted separator is only legal when the
		// value starts with an object literal
		value, err := p.parseValue()
		if err != nil {
			return Field{}, err
		}
		field.Value = value
		return field, nil
	default:
		if p.s.TokenType().IsError() {
			return Field{}, p.scanError()
		}
		return Field{}, p.parseError("expected ':', '=', '+=' or '{' after key, got %s", p.s.TokenType())
	}
	p.s.NextToken()
	p.skipInline()
	value, err := p.parseValue()
	if err != nil {
		return Field{}, err
	}
	field.Value = value
	return field, nil
}

// parseKeyPath consumes a key and canonicalizes it into a Path: unquoted
// text splits at dots, quoted segments stay whole, inline whitespace
// between words is part of the segment (`a b.c` is the segments "a b", "c").
func (p *Parser) parseKeyPath() (Path, error) {
	var path Path
	var cur strings.Builder
	curSet := false
	pendingWs := ""
	for {
		switch p.s.TokenType() {
		case UnquotedStringToken:
			if curSet && pendingWs != "" {
				cur.WriteString(pendingWs)
			}
			pendingWs = ""
			cur.WriteString(p.s.Token())
			curSet = true
		case QuotedStringToken, TripleQuotedStringToken:
			if curSet && pendingWs != "" {
				cur.WriteString(pendingWs)
			}
			pendingWs = ""
			cur.WriteString(p.s.StringValue())
			curSet = true
		case DotToken:
			if !curSet {
				return nil, p.parseError("path expression has an empty segment")
			}
			path = append(path, cur.String())
			cur.Reset()
			curSet = false
			pendingWs = ""
		case WhitespaceToken:
			pendingWs = p.s.Token()
		default:
			if p.s.TokenType().IsError() {
				return nil, p.scanError()
			}
			if !curSet {
				if len(path) > 0 {
					return nil, p.parseError("path expression ends with '.'")
				}
				return nil, p.parseError("expected key, got %s", p.s.TokenType())
			}
			path = append(path, cur.String())
			return path, nil
		}
		p.s.NextToken()
	}
}

// parseValue consumes a value: a single atom, or several atoms joined by
// inline whitespace into a concatenation. The whitespace between atoms is
// recorded verbatim for string concatenation.
func (p *Parser) parseValue() (Raw, error) {
	pos := p.s.Start()
	first, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	parts := []Raw{first}
	var seps []string
	for {
		sep := ""
		for p.s.TokenType() == WhitespaceToken {
			sep += p.s.Token()
			p.s.NextToken()
		}
		if !p.atAtomStart() {
			break
		}
		atom, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		parts = append(parts, atom)
		seps = append(seps, sep)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return Concat{Parts: parts, Seps: seps, Pos: pos}, nil
}

func (p *Parser) atAtomStart() bool {
	switch p.s.TokenType() {
	case QuotedStringToken, TripleQuotedStringToken, UnquotedStringToken, DotToken,
		LeftBraceToken, LeftBracketToken, SubstitutionToken, OptionalSubstitutionToken:
		return true
	default:
		return false
	}
}

var numberRegexp = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// parseAtom consumes one building block of a value.
func (p *Parser) parseAtom() (Raw, error) {
	pos := p.s.Start()
	switch p.s.TokenType() {
	case LeftBraceToken:
		return p.parseObject()
	case LeftBracketToken:
		return p.parseArray()
	case SubstitutionToken, OptionalSubstitutionToken:
		return p.parseSubstitution()
	case QuotedStringToken, TripleQuotedStringToken:
		sv := p.s.StringValue()
		p.s.NextToken()
		return Literal{Val: String(sv), Lexeme: sv, Pos: pos}, nil
	case UnquotedStringToken, DotToken:
		return p.parseWord()
	default:
		if p.s.TokenType().IsError() {
			return nil, p.scanError()
		}
		return nil, p.parseError("expected a value, got %s", p.s.TokenType())
	}
}

// parseWord consumes a run of unquoted text and dots (the scanner splits
// those; `1.5` arrives as three touching tokens) and classifies the joined
// text as null, bool, number or unquoted string.
func (p *Parser) parseWord() (Raw, error) {
	pos := p.s.Start()
	var b strings.Builder
	for {
		tt := p.s.TokenType()
		if tt != UnquotedStringToken && tt != DotToken {
			break
		}
		b.WriteString(p.s.Token())
		p.s.NextToken()
	}
	text := b.String()
	lit := Literal{Lexeme: text, Pos: pos}
	switch {
	case text == "null":
		lit.Val = Null{}
	case text == "true":
		lit.Val = Bool(true)
	case text == "false":
		lit.Val = Bool(false)
	case numberRegexp.MatchString(text):
		n, err := ParseNumber(text)
		if err != nil {
			// matched the number syntax but does not parse; treat as string
			lit.Val = String(text)
		} else {
			lit.Val = n
		}
	default:
		lit.Val = String(text)
	}
	return lit, nil
}

// parseSubstitution consumes `${path}` / `${?path}`.
func (p *Parser) parseSubstitution() (Raw, error) {
	pos := p.s.Start()
	optional := p.s.TokenType() == OptionalSubstitutionToken
	p.s.NextToken()

	var path Path
	var cur strings.Builder
	curSet := false
	wordBreak := false
	for {
		switch p.s.TokenType() {
		case WhitespaceToken:
			if curSet {
				wordBreak = true
			}
		case UnquotedStringToken:
			if wordBreak {
				return nil, p.parseError("whitespace inside substitution path")
			}
			cur.WriteString(p.s.Token())
			curSet = true
		case QuotedStringToken:
			if wordBreak {
				return nil, p.parseError("whitespace inside substitution path")
			}
			cur.WriteString(p.s.StringValue())
			curSet = true
		case DotToken:
			if wordBreak {
				return nil, p.parseError("whitespace inside substitution path")
			}
			if !curSet {
				return nil, p.parseError("substitution path has an empty segment")
			}
			path = append(path, cur.String())
			cur.Reset()
			curSet = false
		case RightBraceToken:
			if !curSet {
				if len(path) > 0 {
					return nil, p.parseError("substitution path ends with '.'")
				}
				return nil, p.parseError("empty substitution path")
			}
			path = append(path, cur.String())
			p.s.NextToken()
			return Substitution{Path: path, Optional: optional, Pos: pos}, nil
		default:
			if p.s.TokenType().IsError() {
				return nil, p.scanError()
			}
			return nil, p.parseError("unterminated substitution, expected '}'")
		}
		p.s.NextToken()
	}
}

// parseArray consumes `[ ... ]`.
func (p *Parser) parseArray() (*ArrayExpr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	arr := &ArrayExpr{Pos: p.s.Start()}
	p.s.NextToken()
	for {
		p.skipSeparators()
		switch {
		case p.s.TokenType() == RightBracketToken:
			p.s.NextToken()
			return arr, nil
		case p.s.TokenType() == EOFToken:
			return nil, p.parseError("unexpected end of input, expected ']'")
		case p.s.TokenType().IsError():
			return nil, p.scanError()
		}
		elem, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		arr.Elems = append(arr.Elems, elem)

		p.skipInline()
		switch p.s.TokenType() {
		case NewlineToken, CommaToken, RightBracketToken:
		default:
			return nil, p.parseError("expected ',' or newline between array elements, got %s", p.s.TokenType())
		}
	}
}
