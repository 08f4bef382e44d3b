package hocon

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mikai233/hocon-go/hoconparser"
)

// Error and ErrorKind re-export the pipeline's error model so that callers
// rarely need to import hoconparser directly.
type Error = hoconparser.Error

type ErrorKind = hoconparser.ErrorKind

const (
	KindIO                        = hoconparser.KindIO
	KindScan                      = hoconparser.KindScan
	KindParse                     = hoconparser.KindParse
	KindRecursionDepthExceeded    = hoconparser.KindRecursionDepthExceeded
	KindCyclicInclude             = hoconparser.KindCyclicInclude
	KindMissingRequiredInclude    = hoconparser.KindMissingRequiredInclude
	KindUnresolvedSubstitution    = hoconparser.KindUnresolvedSubstitution
	KindCyclicSubstitution        = hoconparser.KindCyclicSubstitution
	KindSubstitutionDepthExceeded = hoconparser.KindSubstitutionDepthExceeded
	KindConcatTypeMismatch        = hoconparser.KindConcatTypeMismatch
	KindInvalidUnit               = hoconparser.KindInvalidUnit
)

// ParseErrors collects every failure from a multi-file load, so one bad
// file does not hide problems in the others.
type ParseErrors struct {
	Errors []hoconparser.Error
}

func (e ParseErrors) Error() string {
	var msg strings.Builder
	msg.WriteString("hocon configuration errors:\n\n")
	for _, e := range e.Errors {
		msg.WriteString(fmt.Sprintf("%s\n", e.Error()))
	}
	return msg.String()
}

// IsKind reports whether err is a pipeline Error of the given kind, or a
// ParseErrors containing one.
func IsKind(err error, kind ErrorKind) bool {
	var e Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	var errs ParseErrors
	if errors.As(err, &errs) {
		for _, e := range errs.Errors {
			if e.Kind == kind {
				return true
			}
		}
	}
	return false
}
