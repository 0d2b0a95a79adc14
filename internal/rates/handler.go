package rates

import (
	"net/http"
	"strings"
	"time"

	"fxsim/internal/httputil"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	provider *Provider
}

func NewHandler(provider *Provider) *Handler {
	return &Handler{provider: provider}
}

type ratesResponse struct {
	Rates     []Quote `json:"rates"`
	Timestamp string  `json:"timestamp"`
}

type rateResponse struct {
	Instrument string `json:"instrument"`
	Price      string `json:"price"`
	Timestamp  string `json:"timestamp"`
}

// List serves GET /rates: one fresh quote per supported instrument.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, ratesResponse{
		Rates:     h.provider.Quotes(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Get serves GET /rates/{base}/{quote}. FX symbols carry a slash, so the
// route splits the pair across two path params and rejoins it here.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "base") + "/" + chi.URLParam(r, "quote"))
	price, err := h.provider.Rate(symbol)
	if err != nil {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "instrument not supported: " + symbol})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rateResponse{
		Instrument: symbol,
		Price:      price.String(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}
