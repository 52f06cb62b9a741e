package render

import (
	"strings"
	"testing"
)

// extractAttrValue returns the double-quoted value of attr in markup.
func extractAttrValue(t *testing.T, markup, attr string) string {
	t.Helper()

	_, rest, ok := strings.Cut(markup, " "+attr+`="`)
	if !ok {
		t.Fatalf("no %s attribute in %q", attr, markup)
	}
	value, _, ok := strings.Cut(rest, `"`)
	if !ok {
		t.Fatalf("unterminated %s attribute in %q", attr, markup)
	}
	return value
}
