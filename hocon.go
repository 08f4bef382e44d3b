// Package hocon loads HOCON (Human-Optimized Config Object Notation)
// documents into fully-resolved configuration values: substitutions,
// includes, duplicate-key merging and += are all evaluated, leaving a tree
// of null, booleans, numbers, strings, arrays and insertion-ordered
// objects.
//
// The evaluation pipeline itself lives in the hoconparser package; this
// package is the user-facing surface: loading from files, filesystems and
// strings, plus typed access to the result.
package hocon

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mikai233/hocon-go/hoconparser"
)

// Value is a resolved configuration value; see hoconparser.Value.
type Value = hoconparser.Value

// Options control loading. The zero value matches the documented defaults:
// includes resolve against the working directory, depth limits are the
// package defaults, and ${...} falls back to the process environment.
type Options struct {
	// ClasspathRoots is the ordered list of directories searched for
	// includes. Defaults to ["."] when Roots is empty too; when only Roots
	// is given, the working directory is not searched.
	ClasspathRoots []string

	// Roots are additional include roots given directly as filesystems
	// (an embed.FS, a fstest.MapFS); they are searched after
	// ClasspathRoots.
	Roots []fs.FS

	// RecursionDepthLimit bounds object/array nesting and include
	// nesting. Defaults to hoconparser.DefaultRecursionDepthLimit.
	RecursionDepthLimit int

	// SubstitutionDepthLimit bounds indirection hops per substitution.
	// Defaults to hoconparser.DefaultSubstitutionDepthLimit.
	SubstitutionDepthLimit int

	// ExtensionLessIncludeOrder controls the merge order when an
	// extension-less include matches several formats. The default merges
	// properties first and HOCON last, so HOCON wins on key conflicts.
	ExtensionLessIncludeOrder func(a, b hoconparser.IncludeCandidate) int

	// NoSystemEnvironment disables the process-environment fallback for
	// unresolved substitutions.
	NoSystemEnvironment bool

	// Environment overrides the environment fallback lookup; mostly for
	// tests. Ignored when NoSystemEnvironment is set.
	Environment func(string) (string, bool)

	// Logger receives debug-level tracing of include resolution, tagged
	// with a per-load id. Defaults to the logrus standard logger.
	Logger logrus.FieldLogger
}

// Load parses the HOCON file at filename. Bare includes resolve against the
// file's own directory first, then the configured classpath roots;
// classpath(...) includes see the classpath roots only.
func Load(filename string, opts *Options) (*Config, error) {
	buf, err := os.ReadFile(filename)
	if err != nil {
		return nil, hoconparser.Error{Kind: hoconparser.KindIO,
			Message: fmt.Sprintf("reading %s: %s", filename, err)}
	}
	fileRoots := []fs.FS{os.DirFS(filepath.Dir(filename))}
	return loadString(hoconparser.FileRef(filename), string(buf), fileRoots, includeRoots(opts), opts)
}

// LoadAll parses several HOCON files and merges the resolved documents in
// order, later files winning on key conflicts. Unlike Load it does not stop
// at the first bad file: every file is parsed and all failures come back in
// one ParseErrors value.
func LoadAll(filenames []string, opts *Options) (*Config, error) {
	var errs ParseErrors
	merged := hoconparser.NewObject()
	for _, filename := range filenames {
		cfg, err := Load(filename, opts)
		if err != nil {
			var e Error
			if !errors.As(err, &e) {
				e = Error{Kind: KindIO, Message: err.Error()}
			}
			errs.Errors = append(errs.Errors, e)
			continue
		}
		obj, ok := cfg.Value().(*hoconparser.Object)
		if !ok {
			errs.Errors = append(errs.Errors, Error{Kind: KindParse,
				Message: fmt.Sprintf("%s: document root must be an object to merge with other files", filename)})
			continue
		}
		merged = hoconparser.MergeObjects(merged, obj)
	}
	if len(errs.Errors) > 0 {
		return nil, errs
	}
	return &Config{root: merged}, nil
}

// LoadFS parses a HOCON file out of any fs.FS (an embed.FS works).
// Bare includes resolve against the file's directory within fsys, then fsys
// itself, then the configured roots.
func LoadFS(fsys fs.FS, filename string, opts *Options) (*Config, error) {
	buf, err := fs.ReadFile(fsys, filename)
	if err != nil {
		return nil, hoconparser.Error{Kind: hoconparser.KindIO,
			Message: fmt.Sprintf("reading %s: %s", filename, err)}
	}
	var fileRoots []fs.FS
	if dir := filepath.Dir(filename); dir != "." {
		if sub, err := fs.Sub(fsys, dir); err == nil {
			fileRoots = append(fileRoots, sub)
		}
	}
	fileRoots = append(fileRoots, fsys)
	return loadString(hoconparser.FileRef(filename), string(buf), fileRoots, includeRoots(opts), opts)
}

// LoadString parses an in-memory HOCON document. Includes resolve against
// the classpath roots only.
func LoadString(text string, opts *Options) (*Config, error) {
	return loadString("<string>", text, nil, includeRoots(opts), opts)
}

func includeRoots(opts *Options) []fs.FS {
	if opts == nil {
		return []fs.FS{os.DirFS(".")}
	}
	var roots []fs.FS
	for _, dir := range opts.ClasspathRoots {
		roots = append(roots, os.DirFS(dir))
	}
	if len(opts.ClasspathRoots) == 0 && len(opts.Roots) == 0 {
		roots = append(roots, os.DirFS("."))
	}
	return append(roots, opts.Roots...)
}

func loadString(file hoconparser.FileRef, text string, fileRoots, roots []fs.FS, opts *Options) (*Config, error) {
	if opts == nil {
		opts = &Options{}
	}

	env := opts.Environment
	if env == nil && !opts.NoSystemEnvironment {
		env = os.LookupEnv
	}
	if opts.NoSystemEnvironment {
		env = nil
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	loadID := uuid.Must(uuid.NewV4()).String()
	logger = logger.WithField("load_id", loadID)
	logger.WithField("file", string(file)).Debug("loading configuration")

	value, err := hoconparser.ParseString(file, text, &hoconparser.LoadOptions{
		Roots:                  roots,
		FileRoots:              fileRoots,
		RecursionDepthLimit:    opts.RecursionDepthLimit,
		SubstitutionDepthLimit: opts.SubstitutionDepthLimit,
		IncludeOrder:           opts.ExtensionLessIncludeOrder,
		Env:                    env,
		Logger:                 logger,
	})
	if err != nil {
		return nil, err
	}
	return &Config{root: value}, nil
}

// Config wraps a resolved value with typed, path-based access.
type Config struct {
	root Value
}

// FromValue wraps an already-resolved value.
func FromValue(v Value) *Config {
	return &Config{root: v}
}

// Value returns the underlying resolved tree.
func (c *Config) Value() Value {
	return c.root
}

// Get walks the dotted path and reports whether it exists.
func (c *Config) Get(path string) (Value, bool) {
	return hoconparser.GetByPath(c.root, strings.Split(path, ".")...)
}

func (c *Config) lookup(path string) (Value, error) {
	v, ok := c.Get(path)
	if !ok {
		return nil, fmt.Errorf("no value at path %q", path)
	}
	return v, nil
}

// GetString returns the string at path. Numbers and booleans render with
// their source lexeme, as they would inside a string concatenation.
func (c *Config) GetString(path string) (string, error) {
	v, err := c.lookup(path)
	if err != nil {
		return "", err
	}
	switch v := v.(type) {
	case hoconparser.String:
		return string(v), nil
	case hoconparser.Number, hoconparser.Bool:
		return v.Render(), nil
	default:
		return "", fmt.Errorf("value at %q is a %s, not a string", path, kindName(v))
	}
}

func (c *Config) GetInt(path string) (int64, error) {
	v, err := c.lookup(path)
	if err != nil {
		return 0, err
	}
	n, ok := v.(hoconparser.Number)
	if !ok {
		return 0, fmt.Errorf("value at %q is a %s, not a number", path, kindName(v))
	}
	return n.Int64(), nil
}

func (c *Config) GetFloat(path string) (float64, error) {
	v, err := c.lookup(path)
	if err != nil {
		return 0, err
	}
	n, ok := v.(hoconparser.Number)
	if !ok {
		return 0, fmt.Errorf("value at %q is a %s, not a number", path, kindName(v))
	}
	return n.Float64(), nil
}

func (c *Config) GetBool(path string) (bool, error) {
	v, err := c.lookup(path)
	if err != nil {
		return false, err
	}
	b, ok := v.(hoconparser.Bool)
	if !ok {
		return false, fmt.Errorf("value at %q is a %s, not a boolean", path, kindName(v))
	}
	return bool(b), nil
}

func (c *Config) GetStringList(path string) ([]string, error) {
	v, err := c.lookup(path)
	if err != nil {
		return nil, err
	}
	arr, ok := v.(hoconparser.Array)
	if !ok {
		return nil, fmt.Errorf("value at %q is a %s, not an array", path, kindName(v))
	}
	result := make([]string, len(arr))
	for i, e := range arr {
		switch e := e.(type) {
		case hoconparser.String:
			result[i] = string(e)
		case hoconparser.Number, hoconparser.Bool:
			result[i] = e.Render()
		default:
			return nil, fmt.Errorf("element %d at %q is a %s, not a string", i, path, kindName(e))
		}
	}
	return result, nil
}

// GetConfig returns the object at path wrapped as a Config.
func (c *Config) GetConfig(path string) (*Config, error) {
	v, err := c.lookup(path)
	if err != nil {
		return nil, err
	}
	if _, ok := v.(*hoconparser.Object); !ok {
		return nil, fmt.Errorf("value at %q is a %s, not an object", path, kindName(v))
	}
	return &Config{root: v}, nil
}

func kindName(v Value) string {
	switch v.(type) {
	case hoconparser.Null:
		return "null"
	case hoconparser.Bool:
		return "boolean"
	case hoconparser.Number:
		return "number"
	case hoconparser.String:
		return "string"
	case hoconparser.Array:
		return "array"
	case *hoconparser.Object:
		return "object"
	default:
		return "value"
	}
}
