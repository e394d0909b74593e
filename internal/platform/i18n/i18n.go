// Package i18n resolves user locales for page rendering.
package i18n

import "golang.org/x/text/language"

// supported lists the locales the UI ships copy for, in priority order.
var supported = []language.Tag{
	language.English,
	language.BrazilianPortuguese,
}

var matcher = language.NewMatcher(supported)

// DefaultLocale returns the fallback locale used when no preference matches.
func DefaultLocale() language.Tag {
	return supported[0]
}

// ParseLocale parses a stored locale value. The second return reports whether
// the value resolved to a supported locale.
func ParseLocale(value string) (language.Tag, bool) {
	if value == "" {
		return DefaultLocale(), false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return DefaultLocale(), false
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return DefaultLocale(), false
	}
	return supported[index], true
}

// MatchAcceptLanguage picks the best supported locale for an Accept-Language
// header value. Unparseable or empty headers fall back to the default.
func MatchAcceptLanguage(header string) language.Tag {
	if header == "" {
		return DefaultLocale()
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return DefaultLocale()
	}
	_, index, _ := matcher.Match(tags...)
	return supported[index]
}
