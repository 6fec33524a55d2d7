package store

import "maps"

// OverlayObjects is a MergeFunc for stores of decoded JSON values. When both
// values are objects (map[string]any) the incoming keys are laid over a copy
// of the old object, recursively for nested objects. Any other combination
// returns incoming.
func OverlayObjects(old, incoming any) any {
	base, ok := old.(map[string]any)
	if !ok {
		return incoming
	}
	top, ok := incoming.(map[string]any)
	if !ok {
		return incoming
	}
	out := maps.Clone(base)
	for k, v := range top {
		if prev, exists := out[k]; exists {
			out[k] = OverlayObjects(prev, v)
			continue
		}
		out[k] = v
	}
	return out
}
