// Package health holds the liveness probe for the poster daemon.
package health

import "net/http"

// Liveness answers 200 as long as the process can serve requests; readiness
// of collaborators (geocoder, Overpass, Redis) is not checked here.
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
