package services

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yukikurage/classifieds-api/internal/constants"
)

const maxTagLength = 30

var (
	ErrTooManyTags = fmt.Errorf("a listing can have at most %d tags", constants.MaxListingTags)
	ErrInvalidTag  = fmt.Errorf("tags must be at most %d letters or digits", maxTagLength)
)

// NormalizeTag lowercases name and drops everything that is not a letter or digit.
func NormalizeTag(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// validTagLength reports whether a normalized tag fits, counting characters rather than bytes.
func validTagLength(name string) bool {
	return utf8.RuneCountInString(name) <= maxTagLength
}

// ParseTagList splits a comma separated tag list into normalized, unique tag names.
func ParseTagList(raw string) ([]string, error) {
	names := []string{}
	seen := map[string]bool{}

	for _, part := range strings.Split(raw, ",") {
		name := NormalizeTag(part)
		if name == "" || seen[name] {
			continue
		}
		if !validTagLength(name) {
			return nil, ErrInvalidTag
		}
		seen[name] = true
		names = append(names, name)
	}

	if len(names) > constants.MaxListingTags {
		return nil, ErrTooManyTags
	}
	return names, nil
}
