package parse

// stringList returns the string entries of cfg[key] when it is a list; other entries are dropped.
func stringList(cfg map[string]any, key string) ([]string, bool) {
	raw, ok := cfg[key]
	if !ok || raw == nil {
		return nil, false
	}
	switch v := raw.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// singleRune returns cfg[key] when it is a one-character string.
func singleRune(cfg map[string]any, key string) (rune, bool) {
	s, ok := cfg[key].(string)
	if !ok {
		return 0, false
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, false
	}
	return r[0], true
}
