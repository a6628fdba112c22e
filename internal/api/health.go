package api

import "net/http"

const serviceName = "skillsync-api"

// health reports liveness plus the last dependency probe. It answers 200
// while the process runs; status says whether dependencies are reachable.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	deps := map[string]string{}
	if h.Health != nil {
		var ok bool
		deps, ok = h.Health(r.Context())
		if !ok {
			status = "degraded"
		}
	}
	jsonOK(w, map[string]any{
		"status":       status,
		"service":      serviceName,
		"version":      h.Version,
		"dependencies": deps,
	})
}

// info lists every route with its access policy.
func (h *Handler) info(w http.ResponseWriter, r *http.Request) {
	routes := h.routes()
	endpoints := make([]map[string]string, 0, len(routes))
	for _, rt := range routes {
		endpoints = append(endpoints, map[string]string{
			"method": rt.method,
			"path":   rt.pattern,
			"access": rt.policy.String(),
		})
	}
	jsonOK(w, map[string]any{
		"service":   serviceName,
		"version":   h.Version,
		"search":    h.Search != nil,
		"audio":     h.Audio != nil,
		"endpoints": endpoints,
	})
}
