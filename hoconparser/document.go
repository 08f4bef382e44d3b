package hoconparser

import (
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
)

// LoadOptions carries everything the pipeline needs besides the input
// itself. The zero value works: no include roots, default limits, no
// environment fallback, discarded logs.
type LoadOptions struct {
	// Roots are the classpath roots: searched, in order, by classpath(...)
	// and bare include locators.
	Roots []fs.FS
	// FileRoots are searched before Roots by bare locators only. The
	// loading entry points put the loaded file's own directory here;
	// classpath(...) includes never see it.
	FileRoots []fs.FS
	// RecursionDepthLimit bounds object/array nesting and the include
	// stack. Defaults to DefaultRecursionDepthLimit.
	RecursionDepthLimit int
	// SubstitutionDepthLimit bounds indirection hops per substitution.
	// Defaults to DefaultSubstitutionDepthLimit.
	SubstitutionDepthLimit int
	// IncludeOrder controls the merge order of extension-less include
	// candidates. Defaults to DefaultIncludeOrder.
	IncludeOrder func(a, b IncludeCandidate) int
	// Env is the fallback consulted for substitutions with no binding in
	// the document. nil disables the fallback entirely.
	Env func(string) (string, bool)
	// Logger receives debug-level tracing of include expansion.
	Logger logrus.FieldLogger
}

func (o *LoadOptions) withDefaults() *LoadOptions {
	result := LoadOptions{}
	if o != nil {
		result = *o
	}
	if result.RecursionDepthLimit <= 0 {
		result.RecursionDepthLimit = DefaultRecursionDepthLimit
	}
	if result.SubstitutionDepthLimit <= 0 {
		result.SubstitutionDepthLimit = DefaultSubstitutionDepthLimit
	}
	if result.IncludeOrder == nil {
		result.IncludeOrder = DefaultIncludeOrder
	}
	if result.Logger == nil {
		logger := logrus.New()
		logger.SetOutput(os.Stderr)
		logger.SetLevel(logrus.PanicLevel)
		result.Logger = logger
	}
	return &result
}

// ParseString runs the whole pipeline over an in-memory document: parse,
// include expansion, merge, substitution resolution, array conversion.
func ParseString(file FileRef, input string, o *LoadOptions) (Value, error) {
	o = o.withDefaults()
	raw, err := ParseDocument(file, input, o.RecursionDepthLimit)
	if err != nil {
		return nil, err
	}
	inc := &includer{o: o, log: o.Logger}
	raw, err = inc.expandRaw(raw)
	if err != nil {
		return nil, err
	}
	merged, err := MergeDocument(raw)
	if err != nil {
		return nil, err
	}
	v, err := Resolve(merged, o.Env, o.SubstitutionDepthLimit)
	if err != nil {
		return nil, err
	}
	return ConvertNumericObjects(v), nil
}
