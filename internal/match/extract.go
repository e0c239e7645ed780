package match

import "regexp"

// Extractor reduces a line to an optional normalized key. The stuck,
// no-progress, and regression detectors are all built on this interface;
// new detection strategies are new extractors, not new matcher branches.
type Extractor interface {
	// Extract returns the normalized key for a line. ok is false when the
	// line carries no key and should be ignored by the detector.
	Extract(line string) (key string, ok bool)
}

// IdentityExtractor uses the whole line as the key, after removing any
// strip patterns (timestamps, counters).
type IdentityExtractor struct {
	Strip []*regexp.Regexp
}

func (e IdentityExtractor) Extract(line string) (string, bool) {
	for _, re := range e.Strip {
		line = re.ReplaceAllString(line, "")
	}
	return line, true
}

// RegexExtractor keys on a regex match. With capture groups, the first
// group is the key; otherwise the full match is.
type RegexExtractor struct {
	Pattern *regexp.Regexp
	Strip   []*regexp.Regexp
}

func (e RegexExtractor) Extract(line string) (string, bool) {
	for _, re := range e.Strip {
		line = re.ReplaceAllString(line, "")
	}
	sub := e.Pattern.FindStringSubmatch(line)
	if sub == nil {
		return "", false
	}
	if len(sub) > 1 && sub[1] != "" {
		return sub[1], true
	}
	return sub[0], true
}
