package utils

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/cases"
)

var queryFolder = cases.Fold()

// NormalizeQuery romanizes, collapses whitespace in, and case-folds a search
// query so catalog lookups behave the same for "Amélie", "amelie" and
// " AMELIE ".
func NormalizeQuery(q string) string {
	romanized := strings.TrimSpace(unidecode.Unidecode(q))
	romanized = strings.Join(strings.Fields(romanized), " ")
	return queryFolder.String(romanized)
}
