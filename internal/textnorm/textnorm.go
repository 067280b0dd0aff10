// Package textnorm holds the string normalizers shared by every extraction stage.
package textnorm

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Normalize lowercases and trims s for comparison purposes.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// decorativeEntities are math/symbol glyph entities that carry no grading
// value. They are removed, not decoded.
var decorativeEntities = []string{
	"&plusmn;", "&times;", "&divide;", "&div;", "&le;", "&ge;", "&ne;",
	"&asymp;", "&equiv;", "&sum;", "&prod;", "&radic;", "&infin;", "&pi;",
	"&alpha;", "&beta;", "&gamma;", "&Delta;", "&theta;", "&int;",
	"&there4;", "&because;", "&perp;", "&parallel;",
}

var entityRemover = func() *strings.Replacer {
	pairs := make([]string, 0, len(decorativeEntities)*2)
	for _, e := range decorativeEntities {
		pairs = append(pairs, e, "")
	}
	return strings.NewReplacer(pairs...)
}()

var (
	decimalEntity = regexp.MustCompile(`&#(\d+);`)
	hexEntity     = regexp.MustCompile(`&#x([0-9a-fA-F]+);`)
)

// StripEntities removes decorative named entities, decodes decimal and hex
// numeric entities to their characters, and trims the result. Numeric
// entities that do not name a valid code point stay as literal text.
func StripEntities(s string) string {
	if s == "" {
		return ""
	}
	out := entityRemover.Replace(s)
	out = decodeNumeric(out, decimalEntity, 10)
	out = decodeNumeric(out, hexEntity, 16)
	return strings.TrimSpace(out)
}

func decodeNumeric(s string, re *regexp.Regexp, base int) string {
	return re.ReplaceAllStringFunc(s, func(match string) string {
		digits := re.FindStringSubmatch(match)[1]
		cp, err := strconv.ParseInt(digits, base, 32)
		if err != nil {
			return match
		}
		r := rune(cp)
		if !utf8.ValidRune(r) {
			return match
		}
		return string(r)
	})
}
