package redis

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/cengkuru/costknowledgehub/internal/domain/search/filter"
)

// BuildQuery renders free text plus a filter expression into DIALECT 2 query syntax.
// Filter clauses are AND-ed, text terms are OR-ed, and an empty query matches everything.
func BuildQuery(text string, expr filter.Expression) string {
	var b strings.Builder
	for _, c := range expr.Conditions() {
		writeCondition(&b, c)
	}
	if terms := textTerms(text); len(terms) > 0 {
		sep(&b)
		if len(terms) == 1 {
			b.WriteString(terms[0])
		} else {
			b.WriteByte('(')
			b.WriteString(strings.Join(terms, " | "))
			b.WriteByte(')')
		}
	}
	if b.Len() == 0 {
		return "*"
	}
	return b.String()
}

// textTerms lowercases text and splits it on anything that is not a letter or digit,
// the same way TEXT fields are tokenized at index time. Terms need no escaping.
func textTerms(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func writeCondition(b *strings.Builder, c filter.Condition) {
	switch {
	case c.IsMatch():
		sep(b)
		b.WriteString(tagClause(c.Key(), c.AnyOf()))
	case c.IsRange():
		sep(b)
		b.WriteString(rangeClause(c.Key(), *c.Range()))
	}
}

func sep(b *strings.Builder) {
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
}

// tagClause renders @key:{v1 | v2}. Values keep their case; TAG fields are case-sensitive.
func tagClause(key string, values []string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = escapeTag(v)
	}
	return "@" + key + ":{" + strings.Join(escaped, " | ") + "}"
}

// rangeClause renders @key:[min max] with "(" marking an exclusive end.
func rangeClause(key string, r filter.Range) string {
	return "@" + key + ":[" + rangeEnd(r.Lower(), "-inf") + " " + rangeEnd(r.Upper(), "+inf") + "]"
}

func rangeEnd(b *filter.Bound, unbounded string) string {
	switch {
	case b == nil:
		return unbounded
	case b.Exclusive:
		return "(" + formatBound(b.Value)
	default:
		return formatBound(b.Value)
	}
}

// formatBound renders without exponent so epoch-second bounds stay readable in slow logs.
func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// escapeTag backslash-escapes every rune that is not a letter, digit or underscore.
// Country names ("Côte d'Ivoire") and themes ("climate & infrastructure") carry spaces and punctuation.
func escapeTag(v string) string {
	var b strings.Builder
	b.Grow(len(v) + 4)
	for _, r := range v {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
