package hoconparser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSubstitutions(t *testing.T) {
	test := func(input, expected string) func(*testing.T) {
		return func(t *testing.T) {
			assert.Equal(t, expected, evalJSON(t, input))
		}
	}

	t.Run("", test("name = mikai233\ngreeting = hello ${name}", `{"name":"mikai233","greeting":"hello mikai233"}`))
	// forward references resolve against the final document
	t.Run("", test("greeting = hello ${name}\nname = world", `{"greeting":"hello world","name":"world"}`))
	t.Run("", test("a = ${b}\nb = 42", `{"a":42,"b":42}`))
	t.Run("", test("a = ${b.c}\nb = {c: {d: 1}}", `{"a":{"d":1},"b":{"c":{"d":1}}}`))
	// a reference sees the fully merged target, including later overrides
	t.Run("", test("a = ${b}\nb = {x: 1}\nb = {y: 2}", `{"a":{"x":1,"y":2},"b":{"x":1,"y":2}}`))
	t.Run("", test("a = ${b}\nb = 1\nb = 2", `{"a":2,"b":2}`))
	// chains of indirection
	t.Run("", test("a = ${b}\nb = ${c}\nc = end", `{"a":"end","b":"end","c":"end"}`))
	// substitution of whole objects and arrays into values
	t.Run("", test("defaults = {x: 1}\nmine = ${defaults}", `{"defaults":{"x":1},"mine":{"x":1}}`))
	t.Run("", test("xs = [1, 2]\nys = ${xs}", `{"xs":[1,2],"ys":[1,2]}`))
	// object concatenation with a substitution
	t.Run("", test("defaults = {x: 1}\nmine = ${defaults} {y: 2}", `{"defaults":{"x":1},"mine":{"x":1,"y":2}}`))
	// quoted segments in substitution paths
	t.Run("", test("\"a.b\" = 1\nc = ${\"a.b\"}", `{"a.b":1,"c":1}`))
	// references inside array elements
	t.Run("", test("n = 5\nxs = [${n}, ${n}]", `{"n":5,"xs":[5,5]}`))
	// references between siblings of the same object
	t.Run("", test("a = {b = ${a.c}, c = 1}", `{"a":{"b":1,"c":1}}`))
}

func TestResolveOptionalSubstitutions(t *testing.T) {
	test := func(input, expected string) func(*testing.T) {
		return func(t *testing.T) {
			assert.Equal(t, expected, evalJSON(t, input))
		}
	}

	// a binding whose sole value is an undefined optional reference is
	// absent, not null
	t.Run("", test("a = ${?MISSING}\nb = 1", `{"b":1}`))
	// undefined optionals drop out of concatenations
	t.Run("", test("a = foo ${?missing} bar", `{"a":"foo bar"}`))
	t.Run("", test("a = ${?missing} [1]", `{"a":[1]}`))
	t.Run("", test("a = ${?missing} {x: 1}", `{"a":{"x":1}}`))
	// defined optionals behave like required ones
	t.Run("", test("x = 1\na = ${?x}", `{"x":1,"a":1}`))
	// undefined optional array elements vanish
	t.Run("", test("a = [1, ${?missing}, 2]", `{"a":[1,2]}`))
}

func TestResolveSelfReferences(t *testing.T) {
	test := func(input, expected string) func(*testing.T) {
		return func(t *testing.T) {
			assert.Equal(t, expected, evalJSON(t, input))
		}
	}

	// a self-reference sees the prior binding
	t.Run("", test("path = \"/bin\"\npath = ${path}\":/usr/bin\"", `{"path":"/bin:/usr/bin"}`))
	t.Run("", test("x = [1, 2]\nx = ${x} [3]", `{"x":[1,2,3]}`))
	t.Run("", test("a = {x: 1}\na = ${a} {y: 2}", `{"a":{"x":1,"y":2}}`))
	// self-reference nested inside an array element
	t.Run("", test("a = [1]\na = [${a}, 2]", `{"a":[[1],2]}`))
	// reference to a descendant of the path being defined reads through
	// the prior binding
	t.Run("", test("a = {x: 1}\na = {x2: ${a.x}}", `{"a":{"x":1,"x2":1}}`))
}

func TestResolveEnvironmentFallback(t *testing.T) {
	env := func(name string) (string, bool) {
		vars := map[string]string{
			"HOME":     "/home/mikai",
			"app.port": "8080",
		}
		v, ok := vars[name]
		return v, ok
	}

	v, err := ParseString("test.conf", "home = ${HOME}\nport = ${app.port}", &LoadOptions{Env: env})
	require.NoError(t, err)
	buf := mustMarshal(t, v)
	assert.Equal(t, `{"home":"/home/mikai","port":"8080"}`, buf)

	// document bindings win over the environment
	v, err = ParseString("test.conf", "HOME = /other\nhome = ${HOME}", &LoadOptions{Env: env})
	require.NoError(t, err)
	assert.Equal(t, `{"HOME":"/other","home":"/other"}`, mustMarshal(t, v))

	// optional references still vanish on a miss
	v, err = ParseString("test.conf", "a = ${?NOPE}", &LoadOptions{Env: env})
	require.NoError(t, err)
	assert.Equal(t, `{}`, mustMarshal(t, v))

	// the self-reference idiom over an environment variable
	v, err = ParseString("test.conf", "HOME = ${HOME}\"/sub\"", &LoadOptions{Env: env})
	require.NoError(t, err)
	assert.Equal(t, `{"HOME":"/home/mikai/sub"}`, mustMarshal(t, v))

	// no fallback when disabled
	_, err = ParseString("test.conf", "home = ${HOME}", &LoadOptions{})
	require.Error(t, err)
	assert.Equal(t, KindUnresolvedSubstitution, KindOf(err))
}

func TestResolveErrors(t *testing.T) {
	test := func(input string, kind ErrorKind) func(*testing.T) {
		return func(t *testing.T) {
			err := evalErr(t, input)
			assert.Equal(t, kind, KindOf(err), "got error: %v", err)
		}
	}

	t.Run("", test("a = ${missing}", KindUnresolvedSubstitution))
	t.Run("", test("a = ${b}\nb = ${a}", KindCyclicSubstitution))
	t.Run("", test("a = ${b}\nb = ${c}\nc = ${a}", KindCyclicSubstitution))
	t.Run("", test("a = {b = ${a}}", KindUnresolvedSubstitution))

	t.Run("", test("a = {x: 1} [1]", KindConcatTypeMismatch))
	t.Run("", test("a = [1] {x: 1}", KindConcatTypeMismatch))
	t.Run("", test("a = foo {x: 1}", KindConcatTypeMismatch))
	t.Run("", test("b = [1]\na = str ${b}", KindConcatTypeMismatch))
	// += after the path was retyped to an object is rejected
	t.Run("", test("a = {x: 1}\na += 2", KindConcatTypeMismatch))
}

func TestResolveSubstitutionDepthLimit(t *testing.T) {
	// out comes first so the whole chain resolves in one descent; nothing
	// is cached yet when the hop count peaks
	var b strings.Builder
	b.WriteString("out = ${v20}\n")
	for i := 20; i >= 1; i-- {
		fmt.Fprintf(&b, "v%d = ${v%d}\n", i, i-1)
	}
	b.WriteString("v0 = end\n")

	_, err := ParseString("test.conf", b.String(), &LoadOptions{SubstitutionDepthLimit: 10})
	require.Error(t, err)
	assert.Equal(t, KindSubstitutionDepthExceeded, KindOf(err))

	v, err := ParseString("test.conf", b.String(), &LoadOptions{SubstitutionDepthLimit: 50})
	require.NoError(t, err)
	out, ok := GetByPath(v, "out")
	require.True(t, ok)
	assert.Equal(t, String("end"), out)
}

func TestResolveReleasesRawTree(t *testing.T) {
	// resolution output contains only concrete values, never raw nodes
	v := eval(t, "a = ${b}\nb = {c: [1, null, {d: 1.5}]}")
	var walk func(Value)
	walk = func(v Value) {
		switch v := v.(type) {
		case Array:
			for _, e := range v {
				walk(e)
			}
		case *Object:
			for _, k := range v.Keys() {
				e, _ := v.Get(k)
				walk(e)
			}
		case Null, Bool, Number, String:
		default:
			t.Fatalf("unresolved node %T leaked into the result", v)
		}
	}
	walk(v)
}
