package service

import "strings"

// splitScope splits a space-delimited scope string, dropping empties
// and duplicates while keeping first-seen order.
func splitScope(s string) []string {
	parts := strings.Fields(s)
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}

func joinScope(scopes []string) string {
	return strings.Join(scopes, " ")
}

// scopeDelta returns the requested scopes not yet granted, in request order.
func scopeDelta(requested, granted []string) []string {
	have := make(map[string]struct{}, len(granted))
	for _, g := range granted {
		have[g] = struct{}{}
	}

	var delta []string
	for _, r := range requested {
		if _, ok := have[r]; !ok {
			delta = append(delta, r)
		}
	}
	return delta
}

// unionScopes merges two scope lists, keeping first-seen order.
func unionScopes(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
