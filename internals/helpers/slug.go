package helper

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

const DefaultSlugMaxLen = 100

var (
	reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	reHyphen   = regexp.MustCompile(`-+`)
)

// Slugify turns free text into [a-z0-9-]: diacritics stripped, hyphens collapsed,
// trimmed and cut to maxLen (DefaultSlugMaxLen when <= 0). Empty input yields "".
func Slugify(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultSlugMaxLen
	}
	s = strings.ToLower(strings.TrimSpace(s))

	var buf []rune
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		buf = append(buf, r)
	}
	s = string(buf)

	s = reNonAlnum.ReplaceAllString(s, "-")
	s = reHyphen.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if utf8.RuneCountInString(s) > maxLen {
		s = strings.Trim(string([]rune(s)[:maxLen]), "-")
	}
	return s
}

// SlugTaken checks case-insensitively whether slug is used in table.column,
// ignoring the row whose idColumn equals excludeID (pass nil on create).
func SlugTaken(ctx context.Context, db *gorm.DB, table, column, slug, idColumn string, excludeID any) (bool, error) {
	q := db.WithContext(ctx).Table(table).
		Where(fmt.Sprintf("LOWER(%s) = ?", column), strings.ToLower(slug))
	if excludeID != nil {
		q = q.Where(fmt.Sprintf("%s <> ?", idColumn), excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
