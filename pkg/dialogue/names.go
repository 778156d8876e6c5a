package dialogue

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName turns a speaker key such as "old_man" into "Old Man".
func DisplayName(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	if len(words) == 0 {
		return ""
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}
