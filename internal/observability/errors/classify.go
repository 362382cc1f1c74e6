// Package errors derives stable error class names for metric tags and
// structured log fields.
package errors

import (
	goerrors "errors"
	"reflect"
	"strings"
)

var classScrubber = strings.NewReplacer("*", "", ".", "_")

// Classify reduces an error to a lowercase type name such as
// "pgconn_pgerror" or "errors_errorstring". Wrapped errors are unwound
// first so the tag reflects the root cause rather than the outermost
// fmt.Errorf shell.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	for inner := goerrors.Unwrap(err); inner != nil; inner = goerrors.Unwrap(inner) {
		err = inner
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := classScrubber.Replace(strings.ToLower(t.String()))
	if name == "" {
		return "unknown"
	}
	return name
}
