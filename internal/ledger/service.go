package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"fxsim/internal/model"
	"fxsim/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidDirection    = errors.New("direction must be BUY or SELL")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInvalidLeverage     = errors.New("leverage must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrPositionNotFound    = errors.New("position not found")
	ErrAlreadyClosed       = errors.New("position already closed")
)

// RateSource is the slice of the rate provider the ledger needs.
type RateSource interface {
	Rate(symbol string) (decimal.Decimal, error)
}

// Service owns the cash balance and the append-only position list. All
// mutating paths run under one mutex so the check-then-mutate sequences in
// Open and Close stay atomic under concurrent requests.
type Service struct {
	rates RateSource

	mu        sync.Mutex
	balance   decimal.Decimal
	positions []*model.Position
	byID      map[string]*model.Position
}

func NewService(rates RateSource, initialBalance decimal.Decimal) *Service {
	return &Service{
		rates:   rates,
		balance: initialBalance,
		byID:    make(map[string]*model.Position),
	}
}

type OpenParams struct {
	Instrument string
	Direction  types.Direction
	Quantity   decimal.Decimal
	Leverage   decimal.Decimal
}

type OpenResult struct {
	Position model.Position  `json:"position"`
	Balance  decimal.Decimal `json:"balance"`
}

// Open validates the request, reserves margin and appends the position.
// Either every effect applies or none does.
func (s *Service) Open(p OpenParams) (OpenResult, error) {
	if !p.Direction.Valid() {
		return OpenResult{}, ErrInvalidDirection
	}
	if !p.Quantity.IsPositive() {
		return OpenResult{}, ErrInvalidQuantity
	}
	leverage := p.Leverage
	if leverage.IsZero() {
		leverage = decimal.NewFromInt(1)
	}
	if !leverage.IsPositive() {
		return OpenResult{}, ErrInvalidLeverage
	}
	rate, err := s.rates.Rate(p.Instrument)
	if err != nil {
		return OpenResult{}, fmt.Errorf("rate for %s: %w", p.Instrument, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	margin := p.Quantity.Mul(rate).Div(leverage)
	if margin.GreaterThan(s.balance) {
		return OpenResult{}, ErrInsufficientBalance
	}
	pos := &model.Position{
		ID:             uuid.NewString(),
		Instrument:     p.Instrument,
		Direction:      p.Direction,
		Quantity:       p.Quantity,
		Leverage:       leverage,
		OpenPrice:      rate,
		OpenTime:       time.Now().UTC(),
		Status:         types.PositionStatusOpen,
		RequiredMargin: margin,
	}
	s.positions = append(s.positions, pos)
	s.byID[pos.ID] = pos
	s.balance = s.balance.Sub(margin)
	return OpenResult{Position: *pos, Balance: s.balance}, nil
}

type PositionView struct {
	model.Position
	CurrentPrice  *decimal.Decimal `json:"current_price,omitempty"`
	UnrealizedPnL decimal.Decimal  `json:"unrealized_pnl"`
}

type ListResult struct {
	Positions []PositionView  `json:"positions"`
	Balance   decimal.Decimal `json:"balance"`
	TotalPnL  decimal.Decimal `json:"total_pnl"`
}

// List returns every position with a freshly fetched price and its live PnL.
// Closed positions contribute their stored realized PnL to the total; a
// position whose instrument the provider can no longer price contributes 0.
func (s *Service) List() ListResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := ListResult{Positions: make([]PositionView, 0, len(s.positions))}
	total := decimal.Decimal{}
	for _, pos := range s.positions {
		view := PositionView{Position: *pos}
		if pos.Status == types.PositionStatusClosed {
			total = total.Add(*pos.RealizedPnL)
			out.Positions = append(out.Positions, view)
			continue
		}
		rate, err := s.rates.Rate(pos.Instrument)
		if err == nil {
			view.CurrentPrice = &rate
			view.UnrealizedPnL = pnl(pos.Direction, pos.OpenPrice, rate, pos.Quantity, pos.Leverage).Round(2)
		}
		total = total.Add(view.UnrealizedPnL)
		out.Positions = append(out.Positions, view)
	}
	out.Balance = s.balance
	out.TotalPnL = total.Round(2)
	return out
}

type CloseResult struct {
	Position model.Position  `json:"position"`
	Balance  decimal.Decimal `json:"balance"`
}

// Close realizes the PnL at the current rate and releases the locked margin
// back into the balance, adjusted by the result.
func (s *Service) Close(id string) (CloseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.byID[id]
	if !ok {
		return CloseResult{}, ErrPositionNotFound
	}
	if pos.Status != types.PositionStatusOpen {
		return CloseResult{}, ErrAlreadyClosed
	}
	// The instrument was valid at open; this only fails if the instrument
	// table changed underneath a live position.
	rate, err := s.rates.Rate(pos.Instrument)
	if err != nil {
		return CloseResult{}, fmt.Errorf("rate for %s: %w", pos.Instrument, err)
	}
	realized := pnl(pos.Direction, pos.OpenPrice, rate, pos.Quantity, pos.Leverage).Round(2)
	now := time.Now().UTC()
	pos.Status = types.PositionStatusClosed
	pos.ClosePrice = &rate
	pos.CloseTime = &now
	pos.RealizedPnL = &realized
	s.balance = s.balance.Add(pos.RequiredMargin).Add(realized)
	return CloseResult{Position: *pos, Balance: s.balance}, nil
}

type Summary struct {
	Balance           decimal.Decimal `json:"balance"`
	Equity            decimal.Decimal `json:"equity"`
	UnrealizedPnL     decimal.Decimal `json:"unrealized_pnl"`
	OpenPositionCount int             `json:"open_position_count"`
	UsedMargin        decimal.Decimal `json:"used_margin"`
}

// AccountSummary aggregates over open positions only. Unrealized PnL is
// summed unrounded and rounded once at the end.
func (s *Service) AccountSummary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	var unrealized, usedMargin decimal.Decimal
	count := 0
	for _, pos := range s.positions {
		if pos.Status != types.PositionStatusOpen {
			continue
		}
		count++
		usedMargin = usedMargin.Add(pos.RequiredMargin)
		rate, err := s.rates.Rate(pos.Instrument)
		if err != nil {
			continue
		}
		unrealized = unrealized.Add(pnl(pos.Direction, pos.OpenPrice, rate, pos.Quantity, pos.Leverage))
	}
	unrealized = unrealized.Round(2)
	return Summary{
		Balance:           s.balance,
		Equity:            s.balance.Add(unrealized),
		UnrealizedPnL:     unrealized,
		OpenPositionCount: count,
		UsedMargin:        usedMargin,
	}
}

// pnl applies the direction-aware formula: priceDiff * quantity * leverage,
// where priceDiff flips sign for SELL positions.
func pnl(direction types.Direction, open, current, qty, leverage decimal.Decimal) decimal.Decimal {
	diff := current.Sub(open)
	if direction == types.DirectionSell {
		diff = open.Sub(current)
	}
	return diff.Mul(qty).Mul(leverage)
}
