package hoconparser

import "fmt"

// mergedObject is the shape the resolver works on: an insertion-ordered map
// from key to the chain of assignments made to that key in document order.
// Most chains collapse to a single element while merging; a chain grows
// when a later assignment needs resolution before its kind (and with it,
// replace-vs-merge) is known, or may refer back to the earlier binding, and
// when a dotted key descends into a key whose last element is not an
// object (the new object is appended; resolution lets it replace).
type mergedObject struct {
	keys   []string
	fields map[string]*assignChain
}

func (*mergedObject) raw() {}

type assignChain struct {
	elems []Raw
}

func newMergedObject() *mergedObject {
	return &mergedObject{fields: make(map[string]*assignChain)}
}

func (m *mergedObject) chain(key string) *assignChain {
	ch, ok := m.fields[key]
	if !ok {
		ch = &assignChain{}
		m.fields[key] = ch
		m.keys = append(m.keys, key)
	}
	return ch
}

// MergeDocument turns a parsed, include-expanded document into the merged
// form the resolver consumes. Dotted path keys have already been split by
// the parser; here duplicate keys collapse per HOCON's merge rules and +=
// desugars into a self-referencing concatenation, now that the absolute
// path of every assignment is known.
func MergeDocument(root Raw) (Raw, error) {
	switch root := root.(type) {
	case *ObjectExpr:
		return buildMergedObject(root, nil)
	default:
		return normalizeRaw(root, nil)
	}
}

func buildMergedObject(expr *ObjectExpr, base Path) (*mergedObject, error) {
	m := newMergedObject()
	for _, item := range expr.Items {
		field, ok := item.(Field)
		if !ok {
			return nil, fmt.Errorf("internal: include statement survived include expansion")
		}
		if err := addField(m, base, field.Path, field.Value, field.SelfAppend); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func addField(m *mergedObject, base Path, rel Path, value Raw, selfAppend bool) error {
	abs := base
	for _, seg := range rel {
		abs = abs.Child(seg)
	}
	// a dotted key nests: descend into (or create) intermediate objects
	for len(rel) > 1 {
		ch := m.chain(rel[0])
		var inner *mergedObject
		if n := len(ch.elems); n > 0 {
			inner, _ = ch.elems[n-1].(*mergedObject)
		}
		if inner == nil {
			inner = newMergedObject()
			ch.elems = append(ch.elems, inner)
		}
		m, rel = inner, rel[1:]
	}

	v, err := normalizeRaw(value, abs)
	if err != nil {
		return err
	}
	if selfAppend {
		// `p += v` appends to the prior binding of p, or to an empty array
		// when there is none
		v = Concat{
			Parts: []Raw{
				Substitution{Path: abs, Optional: true},
				&ArrayExpr{Elems: []Raw{v}},
			},
			Seps: []string{" "},
		}
	}
	m.chain(rel[0]).add(v)
	return nil
}

// add applies HOCON's duplicate-key rules to one more assignment:
//
//   - object over object merges key-wise,
//   - a fully concrete value replaces whatever came before,
//   - anything still containing deferred nodes stacks onto the chain, since
//     its kind, and any self-references, are only known at resolution time.
func (c *assignChain) add(v Raw) {
	if obj, ok := v.(*mergedObject); ok {
		if n := len(c.elems); n > 0 {
			if last, lok := c.elems[n-1].(*mergedObject); lok {
				mergeInto(last, obj)
				return
			}
			if !hasUnresolved(c.elems[n-1]) {
				// concrete non-object: the later object replaces it
				c.elems = []Raw{obj}
				return
			}
			c.elems = append(c.elems, obj)
			return
		}
		c.elems = []Raw{obj}
		return
	}
	if hasUnresolved(v) {
		c.elems = append(c.elems, v)
		return
	}
	c.elems = []Raw{v}
}

// mergeInto merges src into dst by replaying src's assignments; add is the
// merge operator, so nested duplicate-key semantics fall out.
func mergeInto(dst, src *mergedObject) {
	for _, k := range src.keys {
		ch := dst.chain(k)
		for _, elem := range src.fields[k].elems {
			ch.add(elem)
		}
	}
}

// hasUnresolved reports whether resolution can still change the kind of r
// or consult a prior binding through it. Objects are not asked: they merge
// structurally regardless.
func hasUnresolved(r Raw) bool {
	switch r := r.(type) {
	case Literal:
		return false
	case Substitution, Concat:
		return true
	case *ArrayExpr:
		for _, e := range r.Elems {
			if hasUnresolved(e) {
				return true
			}
		}
		return false
	case *mergedObject:
		return false
	default:
		return true
	}
}

// normalizeRaw rewrites every ObjectExpr under r into merged form. path is
// the absolute path of the value being normalized; objects reached through
// arrays or concatenations keep their enclosing assignment's path, which is
// the closest root-relative name they have.
func normalizeRaw(r Raw, path Path) (Raw, error) {
	switch r := r.(type) {
	case Literal, Substitution:
		return r, nil
	case *ObjectExpr:
		return buildMergedObject(r, path)
	case *ArrayExpr:
		elems := make([]Raw, len(r.Elems))
		for i, e := range r.Elems {
			ne, err := normalizeRaw(e, path)
			if err != nil {
				return nil, err
			}
			elems[i] = ne
		}
		return &ArrayExpr{Elems: elems, Pos: r.Pos}, nil
	case Concat:
		parts := make([]Raw, len(r.Parts))
		for i, p := range r.Parts {
			np, err := normalizeRaw(p, path)
			if err != nil {
				return nil, err
			}
			parts[i] = np
		}
		return Concat{Parts: parts, Seps: r.Seps, Pos: r.Pos}, nil
	case *mergedObject:
		return r, nil
	default:
		return nil, fmt.Errorf("internal: unexpected raw node %T", r)
	}
}
