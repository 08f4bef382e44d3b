package hoconparser

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/alecthomas/repr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eval runs the full pipeline without include roots or environment
// fallback, which is what most grammar tests want.
func eval(t *testing.T, input string) Value {
	t.Helper()
	v, err := ParseString("test.conf", input, &LoadOptions{})
	require.NoError(t, err)
	return v
}

// evalJSON additionally renders the result as JSON; object keys come out
// in insertion order, so the expected string pins key ordering too.
func evalJSON(t *testing.T, input string) string {
	t.Helper()
	v := eval(t, input)
	buf, err := json.Marshal(v)
	require.NoError(t, err, repr.String(v))
	return string(buf)
}

func evalErr(t *testing.T, input string) error {
	t.Helper()
	_, err := ParseString("test.conf", input, &LoadOptions{})
	require.Error(t, err)
	return err
}

func TestParseBasics(t *testing.T) {
	test := func(input, expected string) func(*testing.T) {
		return func(t *testing.T) {
			assert.Equal(t, expected, evalJSON(t, input))
		}
	}

	t.Run("", test(``, `{}`))
	t.Run("", test(`{}`, `{}`))
	t.Run("", test(`a = 1`, `{"a":1}`))
	t.Run("", test(`a: 1`, `{"a":1}`))
	t.Run("", test(`{a = 1, a = 2}`, `{"a":2}`))
	t.Run("", test(`a = true`, `{"a":true}`))
	t.Run("", test(`a = false`, `{"a":false}`))
	t.Run("", test(`a = null`, `{"a":null}`))
	t.Run("", test(`a = -1.5e3`, `{"a":-1.5e3}`))
	t.Run("", test(`a = "quoted"`, `{"a":"quoted"}`))
	t.Run("", test(`a = unquoted string`, `{"a":"unquoted string"}`))
	t.Run("", test("a = bare\nb = 2", `{"a":"bare","b":2}`))
	t.Run("", test(`a = [1, 2, 3]`, `{"a":[1,2,3]}`))
	t.Run("", test("a = [1\n2\n3]", `{"a":[1,2,3]}`))
	t.Run("", test("a = [1, 2, 3,]", `{"a":[1,2,3]}`))
	t.Run("", test(`a = []`, `{"a":[]}`))
	t.Run("", test(`a { b: 1 }`, `{"a":{"b":1}}`))
	t.Run("", test("a.b.c = 1\na.b.d = 2", `{"a":{"b":{"c":1,"d":2}}}`))
	t.Run("", test(`"a.b" = 1`, `{"a.b":1}`))
	t.Run("", test(`a = { "0" = x, "1" = y }`, `{"a":["x","y"]}`))
	t.Run("", test("# top comment\na = 1 // trailing\nb = 2", `{"a":1,"b":2}`))
	t.Run("", test("a = \"\"\"multi\nline\"\"\"", `{"a":"multi\nline"}`))
	t.Run("", test(`include = 5`, `{"include":5}`))
	t.Run("", test(`a = 10s`, `{"a":"10s"}`))
	t.Run("", test("key with spaces = 1", `{"key with spaces":1}`))

	// dots inside values re-join into one word
	t.Run("", test(`version = 1.2.3`, `{"version":"1.2.3"}`))

	// top-level array documents, as in JSON
	t.Run("", test(`[1, 2]`, `[1,2]`))
}

func TestParseMerging(t *testing.T) {
	test := func(input, expected string) func(*testing.T) {
		return func(t *testing.T) {
			assert.Equal(t, expected, evalJSON(t, input))
		}
	}

	// later objects merge, first mention fixes key order
	t.Run("", test("a = {x: 1}\na = {y: 2}\na = {x: 3}", `{"a":{"x":3,"y":2}}`))
	// later non-objects replace
	t.Run("", test("a = {x: 1}\na = 2", `{"a":2}`))
	t.Run("", test("a = [1, 2]\na = [3]", `{"a":[3]}`))
	// replacement makes an unresolvable earlier binding irrelevant
	t.Run("", test("a = ${nonexistent}\na = 5", `{"a":5}`))
	// deep merge through path keys
	t.Run("", test("a.b = {x: 1}\na = {b: {y: 2}}", `{"a":{"b":{"x":1,"y":2}}}`))
	// key order across merges follows first mention
	t.Run("", test("b = 1\na = 2\nc = 3\na = 9", `{"b":1,"a":9,"c":3}`))
}

func TestParseConcatenation(t *testing.T) {
	test := func(input, expected string) func(*testing.T) {
		return func(t *testing.T) {
			assert.Equal(t, expected, evalJSON(t, input))
		}
	}

	// inline whitespace between parts is preserved verbatim
	t.Run("", test("a = foo  bar", `{"a":"foo  bar"}`))
	t.Run("", test(`a = "foo"bar`, `{"a":"foobar"}`))
	t.Run("", test(`a = 1 foo`, `{"a":"1 foo"}`))
	t.Run("", test(`a = true foo`, `{"a":"true foo"}`))
	// object concatenation merges
	t.Run("", test(`a = {x: 1} {y: 2}`, `{"a":{"x":1,"y":2}}`))
	// array concatenation appends
	t.Run("", test(`a = [1] [2, 3]`, `{"a":[1,2,3]}`))
}

func TestParseSelfAppend(t *testing.T) {
	assert.Equal(t, `{"x":[1,2,3]}`, evalJSON(t, "x = [1,2]\nx += 3"))
	// += with no prior binding appends to an empty array
	assert.Equal(t, `{"x":[3]}`, evalJSON(t, "x += 3"))
	assert.Equal(t, `{"x":[1,2]}`, evalJSON(t, "x += 1\nx += 2"))
	// nested paths
	assert.Equal(t, `{"a":{"b":[1,2]}}`, evalJSON(t, "a.b = [1]\na.b += 2"))
}

func TestParseJSONSuperset(t *testing.T) {
	// every valid JSON document parses to the same value tree
	inputs := []string{
		`{"a": [1, 2.5, null, true, false], "b": {"c": "x"}, "d": "e"}`,
		`{"nested": {"deep": {"deeper": [{"k": "v"}]}}}`,
		`[1, "two", {"three": 3}]`,
	}
	for _, input := range inputs {
		v := eval(t, input)

		var viaHocon any
		dec := json.NewDecoder(strings.NewReader(mustMarshal(t, v)))
		dec.UseNumber()
		require.NoError(t, dec.Decode(&viaHocon))

		var viaJSON any
		dec = json.NewDecoder(strings.NewReader(input))
		dec.UseNumber()
		require.NoError(t, dec.Decode(&viaJSON))

		if diff := cmp.Diff(viaJSON, viaHocon); diff != "" {
			t.Errorf("parse(%s) diverges from JSON (-want +got):\n%s", input, diff)
		}
	}
}

func mustMarshal(t *testing.T, v Value) string {
	t.Helper()
	buf, err := json.Marshal(v)
	require.NoError(t, err)
	return string(buf)
}

func TestParseDeterministic(t *testing.T) {
	input := "b = 1\na = {z: 1, y: 2}\nc = [3, 2, 1]\na.x = 9"
	first := evalJSON(t, input)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, evalJSON(t, input))
	}
}

func TestParseNumberKinds(t *testing.T) {
	v := eval(t, "a = 1\nb = 1.5\nc = 1e3\nd = 99999999999999999999999999")
	obj := v.(*Object)

	a, _ := obj.Get("a")
	require.IsType(t, Number{}, a)
	assert.True(t, a.(Number).IsInt())
	assert.Equal(t, int64(1), a.(Number).Int64())

	b, _ := obj.Get("b")
	assert.False(t, b.(Number).IsInt())

	c, _ := obj.Get("c")
	assert.False(t, c.(Number).IsInt())

	// integers beyond int64 take the decimal arm without losing digits
	d, _ := obj.Get("d")
	require.IsType(t, Number{}, d)
	assert.False(t, d.(Number).IsInt())
	assert.Equal(t, "99999999999999999999999999", d.(Number).Decimal().String())
}

func TestParseErrors(t *testing.T) {
	test := func(input string, kind ErrorKind) func(*testing.T) {
		return func(t *testing.T) {
			err := evalErr(t, input)
			assert.Equal(t, kind, KindOf(err), "got error: %v", err)
		}
	}

	t.Run("", test(`a = 1 b = 2`, KindParse))
	t.Run("", test(`{a = 1`, KindParse))
	t.Run("", test(`a =`, KindParse))
	t.Run("", test(`a`, KindParse))
	t.Run("", test(`= 1`, KindParse))
	t.Run("", test(`a = [1, 2`, KindParse))
	t.Run("", test(`}`, KindParse))
	t.Run("", test("a = ${x\nb = 1", KindParse))
	t.Run("", test(`a = ${}`, KindParse))
	t.Run("", test(`a..b = 1`, KindParse))
	t.Run("", test(`.a = 1`, KindParse))

	t.Run("", test(`a = "\q"`, KindScan))
	t.Run("", test(`a = "\ud83d"`, KindScan))
	t.Run("", test(`a = "unterminated`, KindScan))
	t.Run("", test("a = \xffbad", KindScan))
	t.Run("", test(`a = b $ c`, KindScan))

	t.Run("", test("a = "+strings.Repeat("[", 100), KindRecursionDepthExceeded))
	t.Run("", test("a = "+strings.Repeat("{b = ", 100), KindRecursionDepthExceeded))
}

func TestParseRecursionDepthLimitConfigurable(t *testing.T) {
	input := "a = [[[[1]]]]"
	_, err := ParseString("test.conf", input, &LoadOptions{RecursionDepthLimit: 3})
	require.Error(t, err)
	assert.Equal(t, KindRecursionDepthExceeded, KindOf(err))

	_, err = ParseString("test.conf", input, &LoadOptions{RecursionDepthLimit: 10})
	assert.NoError(t, err)
}
