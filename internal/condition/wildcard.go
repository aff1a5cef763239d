package condition

import (
	"regexp"
	"strings"
	"sync"
)

// Wildcard patterns use `*` for any run of characters and `?` for exactly
// one character. Each pattern is translated once into an anchored regular
// expression; compiled patterns are cached because the same rule is
// typically evaluated across many traversals.

var patternCache sync.Map // pattern string -> *regexp.Regexp

// MatchWildcard reports whether s matches the anchored wildcard pattern
func MatchWildcard(pattern, s string) (bool, error) {
	if cached, ok := patternCache.Load(pattern); ok {
		return cached.(*regexp.Regexp).MatchString(s), nil
	}

	re, err := regexp.Compile(translateWildcard(pattern))
	if err != nil {
		return false, err
	}
	patternCache.Store(pattern, re)
	return re.MatchString(s), nil
}

// translateWildcard converts a wildcard pattern to an anchored regexp source
func translateWildcard(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}
