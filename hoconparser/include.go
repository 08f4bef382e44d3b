package hoconparser

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/proxy"
)

type Format int

const (
	FormatHOCON Format = iota + 1
	FormatJSON
	FormatProperties
)

func (f Format) String() string {
	switch f {
	case FormatHOCON:
		return "hocon"
	case FormatJSON:
		return "json"
	case FormatProperties:
		return "properties"
	default:
		return "unknown"
	}
}

// IncludeCandidate is one (path, format) pair considered for an
// extension-less include.
type IncludeCandidate struct {
	Path   string
	Format Format
}

// DefaultIncludeOrder sorts extension-less include candidates so that
// properties parses first and HOCON last; since later parses win on key
// conflicts, HOCON takes precedence over JSON over properties.
func DefaultIncludeOrder(a, b IncludeCandidate) int {
	return formatRank(a.Format) - formatRank(b.Format)
}

func formatRank(f Format) int {
	switch f {
	case FormatProperties:
		return 0
	case FormatJSON:
		return 1
	default:
		return 2
	}
}

func formatForExtension(ext string) Format {
	switch ext {
	case ".json":
		return FormatJSON
	case ".properties":
		return FormatProperties
	default:
		return FormatHOCON
	}
}

// includer expands include sites recursively. Included statements splice in
// place of the directive, so their substitutions resolve in the scope of
// the final merged document, not the including file.
type includer struct {
	o   *LoadOptions
	log logrus.FieldLogger

	// canonical ids of resources currently being expanded, for cycle
	// detection; its length also bounds include nesting
	stack []string
}

func (inc *includer) expandRaw(r Raw) (Raw, error) {
	switch r := r.(type) {
	case *ObjectExpr:
		return inc.expandObject(r)
	case *ArrayExpr:
		elems := make([]Raw, len(r.Elems))
		for i, e := range r.Elems {
			ne, err := inc.expandRaw(e)
			if err != nil {
				return nil, err
			}
			elems[i] = ne
		}
		return &ArrayExpr{Elems: elems, Pos: r.Pos}, nil
	case Concat:
		parts := make([]Raw, len(r.Parts))
		for i, p := range r.Parts {
			np, err := inc.expandRaw(p)
			if err != nil {
				return nil, err
			}
			parts[i] = np
		}
		return Concat{Parts: parts, Seps: r.Seps, Pos: r.Pos}, nil
	default:
		return r, nil
	}
}

func (inc *includer) expandObject(obj *ObjectExpr) (*ObjectExpr, error) {
	out := &ObjectExpr{Pos: obj.Pos}
	for _, item := range obj.Items {
		switch it := item.(type) {
		case Include:
			included, err := inc.load(it)
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, included.Items...)
		case Field:
			v, err := inc.expandRaw(it.Value)
			if err != nil {
				return nil, err
			}
			it.Value = v
			out.Items = append(out.Items, it)
		}
	}
	return out, nil
}

func (inc *includer) load(it Include) (*ObjectExpr, error) {
	inc.log.WithFields(logrus.Fields{
		"locator": it.Locator,
		"kind":    it.Kind.String(),
	}).Debug("resolving include")

	switch {
	case it.Kind == URLInclude,
		it.Kind == HeuristicInclude && strings.Contains(it.Locator, "://"):
		return inc.loadURL(it)
	case it.Kind == FileInclude:
		return inc.loadFile(it)
	case it.Kind == ClasspathInclude:
		// classpath(...) never sees the loaded file's own directory
		return inc.loadFromRoots(it, inc.o.Roots, len(inc.o.FileRoots))
	default:
		roots := make([]fs.FS, 0, len(inc.o.FileRoots)+len(inc.o.Roots))
		roots = append(roots, inc.o.FileRoots...)
		roots = append(roots, inc.o.Roots...)
		return inc.loadFromRoots(it, roots, 0)
	}
}

func (inc *includer) missing(it Include) (*ObjectExpr, error) {
	if it.Required {
		return nil, Error{Pos: it.Pos, Kind: KindMissingRequiredInclude,
			Message: fmt.Sprintf("include %q not found", it.Locator)}
	}
	inc.log.WithField("locator", it.Locator).Debug("optional include not found, skipping")
	return &ObjectExpr{}, nil
}

func (inc *includer) loadFromRoots(it Include, roots []fs.FS, indexBase int) (*ObjectExpr, error) {
	locator := strings.TrimPrefix(path.Clean(it.Locator), "/")
	for i, root := range roots {
		obj, found, err := inc.searchRoot(it, root, locator, fmt.Sprintf("fs[%d]:", indexBase+i))
		if err != nil {
			return nil, err
		}
		if found {
			return obj, nil
		}
	}
	return inc.missing(it)
}

// loadFile resolves a file(...) locator against the OS filesystem directly,
// bypassing the configured roots.
func (inc *includer) loadFile(it Include) (*ObjectExpr, error) {
	locator := path.Clean(it.Locator)
	root, rel, idPrefix := fs.FS(os.DirFS(".")), locator, "file:"
	if strings.HasPrefix(locator, "/") {
		root, rel, idPrefix = os.DirFS("/"), strings.TrimPrefix(locator, "/"), "file:/"
	}
	obj, found, err := inc.searchRoot(it, root, rel, idPrefix)
	if err != nil {
		return nil, err
	}
	if !found {
		return inc.missing(it)
	}
	return obj, nil
}

// searchRoot tries locator within one root: directly when it carries an
// extension, and otherwise every supported format at that path, merging all
// hits with IncludeOrder deciding who wins on conflicts. found reports
// whether the root contained anything at all.
func (inc *includer) searchRoot(it Include, root fs.FS, locator, idPrefix string) (obj *ObjectExpr, found bool, err error) {
	if ext := path.Ext(locator); ext != "" {
		buf, err := fs.ReadFile(root, locator)
		if err != nil {
			if isNotExist(err) {
				return nil, false, nil
			}
			return nil, false, Error{Pos: it.Pos, Kind: KindIO,
				Message: fmt.Sprintf("reading include %q: %s", it.Locator, err)}
		}
		obj, err := inc.parseIncluded(idPrefix+locator, buf, formatForExtension(ext), it)
		return obj, true, err
	}

	candidates := []IncludeCandidate{
		{Path: locator + ".conf", Format: FormatHOCON},
		{Path: locator + ".json", Format: FormatJSON},
		{Path: locator + ".properties", Format: FormatProperties},
	}
	var hits []IncludeCandidate
	for _, c := range candidates {
		if _, err := fs.Stat(root, c.Path); err == nil {
			hits = append(hits, c)
		}
	}
	if len(hits) == 0 {
		return nil, false, nil
	}
	slices.SortStableFunc(hits, inc.o.IncludeOrder)
	combined := &ObjectExpr{}
	for _, c := range hits {
		buf, err := fs.ReadFile(root, c.Path)
		if err != nil {
			return nil, false, Error{Pos: it.Pos, Kind: KindIO,
				Message: fmt.Sprintf("reading include %q: %s", c.Path, err)}
		}
		part, err := inc.parseIncluded(idPrefix+c.Path, buf, c.Format, it)
		if err != nil {
			return nil, false, err
		}
		combined.Items = append(combined.Items, part.Items...)
	}
	return combined, true, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) ||
		// a missing directory component often shows up as a plain
		// "not a directory" instead of fs.ErrNotExist
		strings.Contains(err.Error(), "not a directory")
}

// parseIncluded parses one included resource and recursively expands the
// includes inside it. id is the canonical identity used for cycle
// detection: filesystem index plus cleaned path, or the URL.
func (inc *includer) parseIncluded(id string, buf []byte, format Format, it Include) (*ObjectExpr, error) {
	if slices.Contains(inc.stack, id) {
		return nil, Error{Pos: it.Pos, Kind: KindCyclicInclude,
			Message: fmt.Sprintf("%s includes itself (via %s)", id, strings.Join(inc.stack, " -> "))}
	}
	if len(inc.stack) >= inc.o.RecursionDepthLimit {
		return nil, Error{Pos: it.Pos, Kind: KindRecursionDepthExceeded,
			Message: fmt.Sprintf("includes nested deeper than %d levels", inc.o.RecursionDepthLimit)}
	}
	inc.stack = append(inc.stack, id)
	defer func() { inc.stack = inc.stack[:len(inc.stack)-1] }()

	var doc Raw
	var err error
	if format == FormatProperties {
		doc, err = ParseProperties(FileRef(id), string(buf))
	} else {
		doc, err = ParseDocument(FileRef(id), string(buf), inc.o.RecursionDepthLimit)
	}
	if err != nil {
		return nil, err
	}
	obj, ok := doc.(*ObjectExpr)
	if !ok {
		return nil, Error{Pos: it.Pos, Kind: KindParse,
			Message: fmt.Sprintf("included document %s must be an object", id)}
	}
	return inc.expandObject(obj)
}

func (inc *includer) loadURL(it Include) (*ObjectExpr, error) {
	client, err := inc.httpClient()
	if err != nil {
		return nil, err
	}
	resp, err := client.Get(it.Locator)
	if err != nil {
		return nil, Error{Pos: it.Pos, Kind: KindIO,
			Message: fmt.Sprintf("fetching include %q: %s", it.Locator, err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return inc.missing(it)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, Error{Pos: it.Pos, Kind: KindIO,
			Message: fmt.Sprintf("fetching include %q: status %s", it.Locator, resp.Status)}
	}
	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Error{Pos: it.Pos, Kind: KindIO,
			Message: fmt.Sprintf("fetching include %q: %s", it.Locator, err)}
	}
	format := formatForExtension(path.Ext(it.Locator))
	return inc.parseIncluded(it.Locator, buf, format, it)
}

// httpClient honors a SOCKS5 proxy from the HOCON_SOCKS environment
// variable, for url() includes fetched from behind a bastion.
func (inc *includer) httpClient() (*http.Client, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	socksProxyAddress := os.Getenv("HOCON_SOCKS")
	if socksProxyAddress != "" {
		dialer, err := proxy.SOCKS5("tcp", socksProxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, Error{Kind: KindIO,
				Message: fmt.Sprintf("could not connect with SOCKS5 to %s because of: %s", socksProxyAddress, err)}
		}
		client.Transport = &http.Transport{
			DialContext: dialer.(proxy.ContextDialer).DialContext,
		}
	}
	return client, nil
}
