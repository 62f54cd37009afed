package service

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// newTurkishCollator compares strings by base letter under Turkish rules, ignoring case and
// accents. Collators are not safe for concurrent use, so callers create one per operation.
func newTurkishCollator() *collate.Collator {
	return collate.New(language.Turkish, collate.IgnoreCase, collate.IgnoreDiacritics)
}

// sameTeacher reports whether two teacher names refer to the same person.
func sameTeacher(col *collate.Collator, a, b string) bool {
	return col.CompareString(strings.TrimSpace(a), strings.TrimSpace(b)) == 0
}

// teacherKey folds a teacher name for use as a map key (İ→i, I→ı).
func teacherKey(name string) string {
	return cases.Lower(language.Turkish).String(strings.TrimSpace(name))
}
