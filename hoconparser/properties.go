package hoconparser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// ParseProperties parses a Java properties document into the same raw form
// HOCON documents take: dotted keys become path keys, every value is a
// string literal. This is the fallback format for extension-less includes.
func ParseProperties(file FileRef, input string) (*ObjectExpr, error) {
	obj := &ObjectExpr{}
	physical := strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n")
	for lineno := 0; lineno < len(physical); lineno++ {
		startLine := lineno
		line := strings.TrimLeft(physical[lineno], " \t\f")
		if line == "" || line[0] == '#' || line[0] == '!' {
			continue
		}
		// a line ending in an odd number of backslashes continues on the
		// next line, with its leading whitespace stripped
		for endsInOddBackslashes(line) && lineno+1 < len(physical) {
			lineno++
			line = line[:len(line)-1] + strings.TrimLeft(physical[lineno], " \t\f")
		}

		keyText, valueText := splitPropertyLine(line)
		key, err := unescapeProperty(keyText)
		if err != nil {
			return nil, Error{Pos: Pos{File: file, Line: startLine + 1, Col: 1},
				Kind: KindScan, Message: err.Error()}
		}
		value, err := unescapeProperty(valueText)
		if err != nil {
			return nil, Error{Pos: Pos{File: file, Line: startLine + 1, Col: 1},
				Kind: KindScan, Message: err.Error()}
		}
		path := Path(strings.Split(key, "."))
		for _, seg := range path {
			if seg == "" {
				return nil, Error{Pos: Pos{File: file, Line: startLine + 1, Col: 1},
					Kind: KindParse, Message: fmt.Sprintf("property key %q has an empty path segment", key)}
			}
		}
		obj.Items = append(obj.Items, Field{
			Path:  path,
			Value: Literal{Val: String(value), Lexeme: value, Pos: Pos{File: file, Line: startLine + 1, Col: 1}},
			Pos:   Pos{File: file, Line: startLine + 1, Col: 1},
		})
	}
	return obj, nil
}

func endsInOddBackslashes(line string) bool {
	n := 0
	for i := len(line) - 1; i >= 0 && line[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

// splitPropertyLine finds the key terminator: the first unescaped '=', ':'
// or whitespace. Whitespace around an '='/':' separator belongs to neither
// side.
func splitPropertyLine(line string) (key, value string) {
	i := 0
	for i < len(line) {
		c := line[i]
		if c == '\\' {
			i += 2
			continue
		}
		if c == '=' || c == ':' || c == ' ' || c == '\t' || c == '\f' {
			break
		}
		i++
	}
	key = line[:i]
	rest := strings.TrimLeft(line[i:], " \t\f")
	if rest != "" && (rest[0] == '=' || rest[0] == ':') {
		rest = strings.TrimLeft(rest[1:], " \t\f")
	}
	return key, rest
}

func unescapeProperty(s string) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		if !utf8.ValidString(s) {
			return "", fmt.Errorf("property text is not valid UTF-8")
		}
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			break
		}
		switch s[i] {
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'f':
			b.WriteByte('\f')
		case 'u':
			if i+4 >= len(s) {
				return "", fmt.Errorf("truncated \\u escape in property")
			}
			v, err := strconv.ParseUint(s[i+1:i+5], 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid \\u escape in property: %s", err)
			}
			r := rune(v)
			if utf16.IsSurrogate(r) {
				return "", fmt.Errorf("unpaired surrogate in property \\u escape")
			}
			b.WriteRune(r)
			i += 4
		default:
			// properties treat an unknown escape as the escaped character
			b.WriteByte(s[i])
		}
	}
	result := b.String()
	if !utf8.ValidString(result) {
		return "", fmt.Errorf("property text is not valid UTF-8")
	}
	return result, nil
}
