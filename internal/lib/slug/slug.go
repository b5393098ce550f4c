// Package slug нормализует slug'и, приходящие из URL.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	invalidChars    = regexp.MustCompile(`[^a-z0-9-]+`)
	multipleHyphens = regexp.MustCompile(`-{2,}`)
	validSlug       = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	// набор символов UID-поля Strapi
	uidChars = regexp.MustCompile(`^[A-Za-z0-9\-_.~]+$`)
)

// Lookup готовит slug из URL к поиску в CMS. Допустимый UID уходит как есть,
// без смены регистра и подчёркиваний; произвольный текст сворачивается через Normalize.
func Lookup(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || uidChars.MatchString(s) {
		return s
	}

	return Normalize(s)
}

// Normalize приводит строку к виду url-safe slug: нижний регистр, без диакритики,
// пробелы и подчёркивания заменяются дефисами.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}

	result = strings.ToLower(strings.TrimSpace(result))
	result = strings.NewReplacer(" ", "-", "_", "-").Replace(result)
	result = invalidChars.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")

	return strings.Trim(result, "-")
}

func IsValid(s string) bool {
	return validSlug.MatchString(s)
}
