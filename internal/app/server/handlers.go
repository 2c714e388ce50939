package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/cartapress/cartapress/internal/app"
	"github.com/cartapress/cartapress/internal/fault"
	"github.com/cartapress/cartapress/internal/model"
)

type handlers struct {
	app    *app.App
	logger zerolog.Logger
}

type generateResponse struct {
	Path       string           `json:"path"`
	Coordinate model.Coordinate `json:"coordinate"`
	Theme      string           `json:"theme"`
	Warnings   []string         `json:"warnings,omitempty"`
	ElapsedMS  int64            `json:"elapsedMs"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (h *handlers) generate(w http.ResponseWriter, r *http.Request) {
	var req model.Request
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	res, err := h.app.Generator.Generate(r.Context(), req, nil)
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error(), Kind: string(fault.KindOf(err))})
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Path:       res.Path,
		Coordinate: res.Coordinate,
		Theme:      res.Theme,
		Warnings:   res.Warnings,
		ElapsedMS:  res.Elapsed.Milliseconds(),
	})
}

func (h *handlers) listThemes(w http.ResponseWriter, _ *http.Request) {
	names, err := h.app.Themes.List()
	if err != nil {
		h.logger.Error().Err(err).Msg("theme listing failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"themes": names})
}

// statusFor maps the failure taxonomy onto HTTP status codes. Errors outside
// the taxonomy are request validation failures from Normalize.
func statusFor(err error) int {
	switch fault.KindOf(err) {
	case fault.LocationNotFound:
		return http.StatusNotFound
	case fault.ServiceUnavailable:
		return http.StatusServiceUnavailable
	case fault.ThemeLoadError:
		return http.StatusBadRequest
	case fault.ExportError:
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
