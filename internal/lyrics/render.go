package lyrics

import (
	"fmt"
	"strings"
)

// Render substitutes every placeholder of the template named key with the
// matching form value, or the placeholder default when the value is blank.
// Substitution is a single pass: values are never re-expanded.
func (c *Catalog) Render(key string, fields map[string]string) (string, error) {
	t, ok := c.templates[key]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownTemplate, key)
	}

	pairs := make([]string, 0, 2*len(c.placeholders))
	for _, p := range c.placeholders {
		value := strings.TrimSpace(fields[p.Field])
		if value == "" {
			value = p.Default
		}
		pairs = append(pairs, p.Token, value)
	}

	return strings.NewReplacer(pairs...).Replace(t.Body), nil
}

// Excerpt returns at most n characters of s, counted in runes.
func Excerpt(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
