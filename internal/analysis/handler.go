package analysis

import (
	"net/http"
	"strings"

	"fxsim/internal/httputil"
)

type Handler struct {
	provider Provider
}

func NewHandler(provider Provider) *Handler {
	return &Handler{provider: provider}
}

type analyzeRequest struct {
	Instrument string `json:"instrument"`
	Prompt     string `json:"prompt"`
}

// Analyze serves POST /analyze.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	if strings.TrimSpace(req.Instrument) == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "instrument is required"})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "prompt is required"})
		return
	}
	res, err := h.provider.Analyze(req.Instrument, req.Prompt)
	if err != nil {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "instrument not supported: " + strings.ToUpper(strings.TrimSpace(req.Instrument))})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}
