package ledger

import (
	"errors"
	"net/http"
	"strings"

	"fxsim/internal/httputil"
	"fxsim/internal/rates"
	"fxsim/internal/types"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type tradeRequest struct {
	Instrument string           `json:"instrument"`
	Direction  string           `json:"direction"`
	Quantity   *decimal.Decimal `json:"quantity"`
	Leverage   *decimal.Decimal `json:"leverage"`
}

// Trade serves POST /trade and opens a position.
func (h *Handler) Trade(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	instrument := strings.ToUpper(strings.TrimSpace(req.Instrument))
	if instrument == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "instrument is required"})
		return
	}
	if strings.TrimSpace(req.Direction) == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "direction is required"})
		return
	}
	if req.Quantity == nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "quantity is required"})
		return
	}
	params := OpenParams{
		Instrument: instrument,
		Direction:  types.Direction(strings.ToUpper(strings.TrimSpace(req.Direction))),
		Quantity:   *req.Quantity,
	}
	if req.Leverage != nil {
		params.Leverage = *req.Leverage
	}
	res, err := h.svc.Open(params)
	if err != nil {
		if errors.Is(err, rates.ErrInstrumentNotFound) {
			httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "instrument not supported: " + instrument})
			return
		}
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

// Positions serves GET /positions with live PnL per position.
func (h *Handler) Positions(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.svc.List())
}

// Close serves POST /positions/{id}/close.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := h.svc.Close(id)
	if err != nil {
		if errors.Is(err, ErrPositionNotFound) {
			httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: err.Error()})
			return
		}
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// Account serves GET /account.
func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.svc.AccountSummary())
}
