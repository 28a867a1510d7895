package sqlgen

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ForbiddenKeywords are rejected anywhere in a generated statement.
var ForbiddenKeywords = []string{
	"DROP", "DELETE", "INSERT", "UPDATE", "TRUNCATE", "ALTER", "CREATE", "GRANT", "REVOKE",
	"EXEC", "EXECUTE", "MERGE", "INTO",
}

// codeFence matches a fence and an optional language tag, never the SQL after it.
var codeFence = regexp.MustCompile("(?i)```(?:(?:t?sql|sqlite|postgres(?:ql)?)\\b)?")

// Clean strips markdown fences and keeps only the first statement.
func Clean(raw string) string {
	sql := codeFence.ReplaceAllString(strings.TrimSpace(raw), "")
	if idx := strings.Index(sql, ";"); idx >= 0 {
		sql = sql[:idx]
	}
	return strings.TrimSpace(sql)
}

// Validate accepts only statements that start with SELECT and contain none
// of the ForbiddenKeywords as a standalone word.
func Validate(sql string) error {
	upper := strings.ToUpper(strings.TrimSpace(sql))

	if !strings.HasPrefix(upper, "SELECT") || !isWordBoundary(upper, len("SELECT")) {
		return &SecurityError{Kind: KindRefused, Response: sql}
	}

	words := make(map[string]struct{})
	for _, word := range strings.FieldsFunc(upper, isWordSeparator) {
		words[word] = struct{}{}
	}

	for _, keyword := range ForbiddenKeywords {
		if _, found := words[keyword]; found {
			return &SecurityError{Kind: KindForbiddenKeyword, Keyword: keyword, Response: sql}
		}
	}

	return nil
}

// isWordSeparator also splits on the T-SQL sigils @ and #, so INTO#temp still
// yields INTO.
func isWordSeparator(r rune) bool {
	return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
}

func isWordBoundary(s string, idx int) bool {
	if idx >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[idx:])
	return isWordSeparator(r)
}
