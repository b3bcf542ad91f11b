package validation

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-blockeditor/internal/variance"
)

const rootPath = "$"

// valuePath addresses one stored property value:
// $.contentData[0].values[?(@.alias == 'title' && @.culture == 'en-US' && @.segment == null)].value
func valuePath(itemPath, alias string, culture, segment *string) string {
	return fmt.Sprintf("%s.values[?(@.alias == %s && @.culture == %s && @.segment == %s)].value",
		itemPath, quote(alias), literal(culture), literal(segment))
}

func itemPath(parent, collection string, index int) string {
	return fmt.Sprintf("%s.%s[%d]", parent, collection, index)
}

func literal(value *string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return "null"
	}
	return quote(variance.Deref(value))
}

func quote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `\'`) + "'"
}
