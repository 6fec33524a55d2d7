package child

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ClassName applies the child naming convention: the name is split on
// separators ("_", "-", ".", "/", spaces) and every part is title-cased
// without lowering the rest, so "http_client" and "http-client" both become
// "HttpClient" and "userAPI" becomes "UserAPI".
func ClassName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == '/' || unicode.IsSpace(r)
	})
	// A Caser keeps state between calls, so each call gets its own.
	title := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(title.String(p))
	}
	return b.String()
}

// Qualify joins a namespace and a child name into the name a Catalog is
// keyed by: Qualify("app.models", "user_profile") == "app.models.UserProfile".
func Qualify(namespace, name string) string {
	class := ClassName(name)
	namespace = normalizeNamespace(namespace)
	if namespace == "" || class == "" {
		return class
	}
	return namespace + "." + class
}

func normalizeNamespace(ns string) string {
	return strings.Trim(strings.TrimSpace(ns), `.\/`)
}
