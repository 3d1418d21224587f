package rules

// Matches tests url against a single rule. An empty url or a disabled
// rule never matches. Regex rules are compiled on every call so that an
// edited pattern takes effect immediately; a pattern that fails to
// compile simply does not match.
func Matches(r Rule, url string) bool {
	if url == "" || !r.Enabled {
		return false
	}
	if !r.IsRegex {
		return url == r.Pattern
	}
	re, err := compile(r.Pattern)
	if err != nil {
		return false
	}
	ok, err := re.MatchString(url)
	if err != nil {
		return false
	}
	return ok
}

// FindMatch scans rules in order and returns the first rule matching url
// along with its index. List order is the only precedence: later rules
// that also match are never consulted.
func FindMatch(rs []Rule, url string) (Rule, int, bool) {
	if url == "" {
		return Rule{}, -1, false
	}
	for i, r := range rs {
		if Matches(r, url) {
			return r, i, true
		}
	}
	return Rule{}, -1, false
}

// IsPinnable reports whether any rule matches url.
func IsPinnable(rs []Rule, url string) bool {
	_, _, ok := FindMatch(rs, url)
	return ok
}
