package completion

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"
)

// ExtractURL finds the first absolute http(s) URL in the response: first in
// the message content, then anywhere in the output field.
func ExtractURL(resp Response) (string, bool) {
	if u, ok := firstURL(resp.Content()); ok {
		return u, true
	}
	if len(resp.Output) == 0 {
		return "", false
	}
	var output any
	if err := json.Unmarshal(resp.Output, &output); err != nil {
		return "", false
	}
	return searchURL(output)
}

// searchURL walks decoded JSON depth-first. Object keys are visited in sorted
// order so the result does not depend on map iteration.
func searchURL(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return firstURL(v)
	case []any:
		for _, item := range v {
			if u, ok := searchURL(item); ok {
				return u, true
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if u, ok := searchURL(v[k]); ok {
				return u, true
			}
		}
	}
	return "", false
}

func firstURL(text string) (string, bool) {
	for _, field := range strings.Fields(text) {
		candidate := strings.Trim(field, "\"'`()[]<>,;")
		if i := strings.Index(candidate, "http"); i > 0 {
			candidate = candidate[i:]
		}
		u, err := url.Parse(candidate)
		if err != nil || u.Host == "" {
			continue
		}
		if u.Scheme == "http" || u.Scheme == "https" {
			return strings.TrimRight(candidate, "."), true
		}
	}
	return "", false
}
