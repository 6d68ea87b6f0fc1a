// Package report turns fetched records into CSV and JSON report files.
package report

// Flatten flattens nested maps into dot-joined key paths
// ("item.name"). Slices and scalars pass through unchanged. Flattening an
// already-flat map returns an equal map.
func Flatten(d map[string]any) map[string]any {
	out := make(map[string]any, len(d))
	flattenInto(out, d, "")
	return out
}

func flattenInto(out map[string]any, d map[string]any, parent string) {
	for k, v := range d {
		key := k
		if parent != "" {
			key = parent + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenInto(out, nested, key)
			continue
		}
		out[key] = v
	}
}
