package rules

import (
	"regexp"
	"strings"
)

var (
	originPattern       = regexp.MustCompile(`(?i)^[a-z][a-z0-9+.\-]*://[^/]*/`)
	pseudoSchemePattern = regexp.MustCompile(`(?i)^[a-z][a-z0-9+.\-]*:`)
)

// ExtractOriginPrefix returns the leading "scheme://host/" part of url,
// or a leading pseudo-scheme such as "about:" for URLs without an
// authority. The url is returned unchanged when neither is present.
func ExtractOriginPrefix(url string) string {
	if m := originPattern.FindString(url); m != "" {
		return m
	}
	if m := pseudoSchemePattern.FindString(url); m != "" && !strings.HasPrefix(url[len(m):], "//") {
		return m
	}
	return url
}

// regexMeta are the characters EscapePattern prefixes with a backslash.
const regexMeta = `-/\^$*+?.()|[]{}`

// EscapePattern backslash-escapes every regular expression metacharacter
// in s so the result matches s literally.
func EscapePattern(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, c := range s {
		if strings.ContainsRune(regexMeta, c) {
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// BuildRuleFromURL returns an enabled exact-match rule for url.
func BuildRuleFromURL(url string) Rule {
	return NewRule(url, false)
}

// BuildRuleFromOrigin returns an enabled regex rule matching every URL
// under the origin of url.
func BuildRuleFromOrigin(url string) Rule {
	return NewRule("^"+EscapePattern(ExtractOriginPrefix(url)), true)
}
