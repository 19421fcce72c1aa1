// Package schema loads versioned GraphQL schema documents for the data.all
// backend and compiles every query and mutation field into a callable
// operation: a rendered document, a docstring, typed input arguments, and a
// flattened keyword-argument surface.
package schema

import (
	"regexp"
	"strings"
	"sync"
)

// firstCapRe and endCapRe insert a separator at camelCase boundaries.
// firstCapRe splits an uppercase letter followed by a lowercase tail from
// whatever precedes it ("TestCreate" -> "Test_Create"); endCapRe splits a
// lowercase letter or digit directly followed by an uppercase letter
// ("testcreatE" -> "testcreat_E").
var (
	firstCapRe = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	endCapRe   = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

type xformKey struct {
	name string
	sep  string
}

var (
	xformMu    sync.Mutex
	xformCache = map[xformKey]string{}
)

// XformName converts a GraphQL field name to its canonical snake_case form.
func XformName(name string) string {
	return XformNameSep(name, "_")
}

// XformNameSep converts camelCase and mixed-case names to a lowercase form
// joined by sep. A name that already contains the separator is assumed to be
// transformed and is returned untouched. Results are memoized process-wide
// per (name, sep) pair.
func XformNameSep(name, sep string) string {
	if strings.Contains(name, sep) {
		return name
	}
	key := xformKey{name: name, sep: sep}
	xformMu.Lock()
	defer xformMu.Unlock()
	if cached, ok := xformCache[key]; ok {
		return cached
	}
	out := strings.TrimSpace(name)
	out = firstCapRe.ReplaceAllString(out, "${1}"+sep+"${2}")
	out = endCapRe.ReplaceAllString(out, "${1}"+sep+"${2}")
	out = strings.ToLower(out)
	xformCache[key] = out
	return out
}

// ResetXformCache drops every memoized transform. Tests use it to start from
// a known cache state.
func ResetXformCache() {
	xformMu.Lock()
	defer xformMu.Unlock()
	xformCache = map[xformKey]string{}
}
