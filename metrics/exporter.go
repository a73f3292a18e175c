package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Handler returns an http.Handler serving the registry contents in
// Prometheus text exposition format. Metric names are sanitized to the
// exposition charset; output is sorted for deterministic scrapes.
func (r *Registry) Handler(namespace string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		snap := r.Snapshot()
		names := make([]string, 0, len(snap))
		for name := range snap {
			names = append(names, name)
		}
		sort.Strings(names)

		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		for _, name := range names {
			full := sanitizeMetricName(name)
			if namespace != "" {
				full = sanitizeMetricName(namespace) + "_" + full
			}
			fmt.Fprintf(w, "%s %d\n", full, snap[name])
		}
	})
}

// sanitizeMetricName replaces characters outside [a-zA-Z0-9_] with '_'.
func sanitizeMetricName(name string) string {
	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			b.WriteRune(c)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
