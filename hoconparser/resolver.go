package hoconparser

import (
	"fmt"
	"strings"
)

// DefaultSubstitutionDepthLimit bounds indirection hops per resolution.
const DefaultSubstitutionDepthLimit = 128

// Resolver replaces every deferred node in a merged document with a
// concrete value. Resolution is lazy and memoized: a path is resolved the
// first time something needs it, in reverse dependency order.
//
// Self-references are recognized lexically: while an assignment chain for
// path p is being folded, a frame for p is on the stack, and a substitution
// targeting p (or a path under p) that occurs lexically inside that
// assignment resolves against the fold's accumulated prior binding.
// Resolutions entered through a path lookup hide the caller's frames
// (lexBase), so a dynamic re-entry of an in-progress path is a genuine
// cycle rather than a self-reference.
type Resolver struct {
	root       *mergedObject
	env        func(string) (string, bool)
	depthLimit int

	depth      int
	frames     []frame
	lexBase    int
	inProgress map[string]bool
	cache      map[string]resolved
}

type frame struct {
	path         Path
	prior        Value
	priorDefined bool
	cur          *mergedObject // set while the chain element being folded is an object
}

type resolved struct {
	v       Value
	defined bool
}

// Resolve evaluates a merged document (the output of MergeDocument) to a
// concrete value. env supplies the environment fallback for substitutions
// and may be nil to disable it.
func Resolve(root Raw, env func(string) (string, bool), depthLimit int) (Value, error) {
	if depthLimit <= 0 {
		depthLimit = DefaultSubstitutionDepthLimit
	}
	r := &Resolver{
		env:        env,
		depthLimit: depthLimit,
		inProgress: make(map[string]bool),
		cache:      make(map[string]resolved),
	}
	obj, ok := root.(*mergedObject)
	if !ok {
		// array root; substitutions inside can only reach the environment
		r.root = newMergedObject()
		v, defined, err := r.resolveRaw(root, nil, false)
		if err != nil {
			return nil, err
		}
		if !defined {
			return Array{}, nil
		}
		return v, nil
	}
	r.root = obj
	v, _, err := r.resolveRaw(obj, nil, true)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func chainKey(path Path) string {
	return strings.Join(path, "\x00")
}

// resolveChain folds one path's assignments in document order: each element
// resolves with the fold-so-far as its prior binding, later objects merge
// over earlier ones, any other defined value replaces, undefined keeps the
// prior.
//
// addressable marks chains reachable from the root by path. Objects nested
// inside arrays and concatenations are anonymous: several of them can carry
// the same approximate path, so their chains stay out of the cache, the
// cycle registry and the self-reference frames.
func (r *Resolver) resolveChain(path Path, ch *assignChain, addressable bool) (Value, bool, error) {
	key := chainKey(path)
	if addressable {
		if c, ok := r.cache[key]; ok {
			return c.v, c.defined, nil
		}
		if r.inProgress[key] {
			return nil, false, Error{Kind: KindCyclicSubstitution,
				Message: fmt.Sprintf("%s depends on itself", path)}
		}
		r.inProgress[key] = true
		defer delete(r.inProgress, key)
	}

	var prior Value
	priorDefined := false
	for _, elem := range ch.elems {
		if addressable {
			cur, _ := elem.(*mergedObject)
			r.frames = append(r.frames, frame{path: path, prior: prior, priorDefined: priorDefined, cur: cur})
		}
		v, defined, err := r.resolveRaw(elem, path, addressable)
		if addressable {
			r.frames = r.frames[:len(r.frames)-1]
		}
		if err != nil {
			return nil, false, err
		}
		if !defined {
			continue
		}
		if priorDefined {
			if po, pok := prior.(*Object); pok {
				if vo, vok := v.(*Object); vok {
					prior = MergeObjects(po, vo)
					continue
				}
			}
		}
		prior = v
		priorDefined = true
	}
	if addressable {
		r.cache[key] = resolved{prior, priorDefined}
	}
	return prior, priorDefined, nil
}

func (r *Resolver) resolveRaw(raw Raw, path Path, addressable bool) (Value, bool, error) {
	switch raw := raw.(type) {
	case Literal:
		return raw.Val, true, nil
	case *mergedObject:
		obj := NewObject()
		for _, k := range raw.keys {
			v, defined, err := r.resolveChain(path.Child(k), raw.fields[k], addressable)
			if err != nil {
				return nil, false, err
			}
			if defined {
				obj.Set(k, v)
			}
		}
		return obj, true, nil
	case *ArrayExpr:
		arr := make(Array, 0, len(raw.Elems))
		for _, e := range raw.Elems {
			v, defined, err := r.resolveRaw(e, path, false)
			if err != nil {
				return nil, false, err
			}
			if defined {
				arr = append(arr, v)
			}
		}
		return arr, true, nil
	case Substitution:
		return r.resolveSubstitution(raw)
	case Concat:
		return r.resolveConcat(raw, path)
	default:
		return nil, false, fmt.Errorf("internal: unexpected raw node %T in resolution", raw)
	}
}

func (r *Resolver) resolveSubstitution(sub Substitution) (Value, bool, error) {
	r.depth++
	defer func() { r.depth-- }()
	if r.depth > r.depthLimit {
		return nil, false, Error{Pos: sub.Pos, Kind: KindSubstitutionDepthExceeded,
			Message: fmt.Sprintf("more than %d indirection hops resolving ${%s}", r.depthLimit, sub.Path)}
	}

	// a reference into an assignment currently being folded is a
	// self-reference; it sees the prior binding, not the final value
	for i := len(r.frames) - 1; i >= r.lexBase; i-- {
		f := r.frames[i]
		if sub.Path.Equal(f.path) {
			if f.priorDefined {
				return f.prior, true, nil
			}
			return r.envFallback(sub)
		}
		if sub.Path.HasPrefix(f.path) {
			rest := sub.Path[len(f.path):]
			if f.cur != nil {
				v, defined, found, err := r.lookupInObject(f.cur, f.path, rest)
				if err != nil {
					return nil, false, err
				}
				if found && defined {
					return v, true, nil
				}
			}
			if f.priorDefined {
				if v, ok := GetByPath(f.prior, rest...); ok {
					return v, true, nil
				}
			}
			return r.envFallback(sub)
		}
	}

	v, defined, found, err := r.lookupPath(sub.Path)
	if err != nil {
		return nil, false, err
	}
	if found && defined {
		return v, true, nil
	}
	return r.envFallback(sub)
}

// envFallback is the last resort for a reference with no binding: the
// process environment, then undefined or an error depending on optionality.
func (r *Resolver) envFallback(sub Substitution) (Value, bool, error) {
	if r.env != nil {
		if s, ok := r.env(sub.Path.String()); ok {
			return String(s), true, nil
		}
	}
	if sub.Optional {
		return nil, false, nil
	}
	return nil, false, Error{Pos: sub.Pos, Kind: KindUnresolvedSubstitution,
		Message: fmt.Sprintf("${%s} is not defined", sub.Path)}
}

// lookupPath resolves q against the document root. The caller's frames are
// hidden for the duration: the target's substitutions get their own lexical
// scope. Descends through single-object chains without resolving them, so
// sibling references inside a partially-built object do not false-cycle.
func (r *Resolver) lookupPath(q Path) (v Value, defined, found bool, err error) {
	saved := r.lexBase
	r.lexBase = len(r.frames)
	defer func() { r.lexBase = saved }()

	cur := r.root
	for i := range q {
		ch, ok := cur.fields[q[i]]
		if !ok {
			return nil, false, false, nil
		}
		if i == len(q)-1 {
			v, defined, err = r.resolveChain(q[:i+1], ch, true)
			return v, defined, true, err
		}
		if len(ch.elems) == 1 {
			if obj, ook := ch.elems[0].(*mergedObject); ook {
				cur = obj
				continue
			}
		}
		v, defined, err = r.resolveChain(q[:i+1], ch, true)
		if err != nil || !defined {
			return nil, false, false, err
		}
		rv, rok := GetByPath(v, q[i+1:]...)
		return rv, rok, rok, nil
	}
	return nil, false, false, nil
}

// lookupInObject navigates rest inside an object literal that is still
// being resolved (the current element of an enclosing fold). In-progress
// chains are skipped rather than reported as cycles; the caller falls back
// to the prior binding for those.
func (r *Resolver) lookupInObject(obj *mergedObject, base Path, rest Path) (v Value, defined, found bool, err error) {
	cur := obj
	abs := base
	for i := range rest {
		ch, ok := cur.fields[rest[i]]
		if !ok {
			return nil, false, false, nil
		}
		abs = abs.Child(rest[i])
		if r.inProgress[chainKey(abs)] {
			return nil, false, false, nil
		}
		if i == len(rest)-1 {
			v, defined, err = r.resolveChain(abs, ch, true)
			return v, defined, true, err
		}
		if len(ch.elems) == 1 {
			if inner, iok := ch.elems[0].(*mergedObject); iok {
				cur = inner
				continue
			}
		}
		v, defined, err = r.resolveChain(abs, ch, true)
		if err != nil || !defined {
			return nil, false, false, err
		}
		rv, rok := GetByPath(v, rest[i+1:]...)
		return rv, rok, rok, nil
	}
	return nil, false, false, nil
}

func valueKindName(v Value) string {
	switch v.(type) {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case *Object:
		return "object"
	default:
		return "value"
	}
}

// resolveConcat evaluates a concatenation: undefined optional parts drop
// out first, then the kind of the remaining parts decides between textual
// concatenation, object merge and array append.
func (r *Resolver) resolveConcat(c Concat, path Path) (Value, bool, error) {
	type part struct {
		v   Value
		sep string
	}
	var parts []part
	for i, praw := range c.Parts {
		v, defined, err := r.resolveRaw(praw, path, false)
		if err != nil {
			return nil, false, err
		}
		if !defined {
			continue
		}
		sep := ""
		if len(parts) > 0 && i > 0 {
			sep = c.Seps[i-1]
		}
		parts = append(parts, part{v, sep})
	}
	if len(parts) == 0 {
		return nil, false, nil
	}
	if len(parts) == 1 {
		return parts[0].v, true, nil
	}

	category := func(v Value) string {
		switch v.(type) {
		case *Object:
			return "object"
		case Array:
			return "array"
		default:
			return "string"
		}
	}
	first := category(parts[0].v)
	for _, p := range parts[1:] {
		if k := category(p.v); k != first {
			return nil, false, Error{Pos: c.Pos, Kind: KindConcatTypeMismatch,
				Message: fmt.Sprintf("cannot concatenate %s with %s",
					valueKindName(parts[0].v), valueKindName(p.v))}
		}
	}
	switch first {
	case "object":
		result := parts[0].v.(*Object)
		for _, p := range parts[1:] {
			result = MergeObjects(result, p.v.(*Object))
		}
		return result, true, nil
	case "array":
		var result Array
		for _, p := range parts {
			result = append(result, p.v.(Array)...)
		}
		return result, true, nil
	default:
		var b strings.Builder
		for i, p := range parts {
			if i > 0 {
				b.WriteString(p.sep)
			}
			b.WriteString(p.v.Render())
		}
		return String(b.String()), true, nil
	}
}
