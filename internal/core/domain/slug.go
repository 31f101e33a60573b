package domain

import "strings"

// =============================================================================
// Context Path Derivation
// =============================================================================

// ContextPathSegment converts a workspace item name to a context path leaf.
//
// The transformation rules are:
//   - Lowercase letters (a-z) and digits (0-9) are kept as-is
//   - Hyphens, underscores and dots are kept as-is
//   - Uppercase letters (A-Z) are converted to lowercase
//   - Spaces are converted to hyphens
//   - All other characters, including '/', are removed
//
// This is a pure function with no side effects.
//
// Example:
//
//	ContextPathSegment("Shop Web")    // returns "shop-web"
//	ContextPathSegment("billing_2.0") // returns "billing_2.0"
//	ContextPathSegment("a/b")         // returns "ab"
func ContextPathSegment(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + 32)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	return b.String()
}

// ContextPath returns the context path under which an item is deployed.
// An item whose name has no usable characters maps to the root context "/".
func ContextPath(itemName string) string {
	return "/" + ContextPathSegment(itemName)
}

// ValidateContextPath checks that path is non-empty and starts with '/'.
func ValidateContextPath(path string) error {
	if path == "" {
		return NewValidationError("context_path", path, ErrEmptyContextPath)
	}
	if !strings.HasPrefix(path, "/") {
		return NewValidationError("context_path", path, ErrMalformedContextPath)
	}
	return nil
}
