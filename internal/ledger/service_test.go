package ledger

import (
	"errors"
	"testing"

	"fxsim/internal/rates"
	"fxsim/internal/types"

	"github.com/shopspring/decimal"
)

type stubRates struct {
	prices map[string]decimal.Decimal
}

func (s *stubRates) Rate(symbol string) (decimal.Decimal, error) {
	p, ok := s.prices[symbol]
	if !ok {
		return decimal.Decimal{}, rates.ErrInstrumentNotFound
	}
	return p, nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestService(price string) (*Service, *stubRates) {
	stub := &stubRates{prices: map[string]decimal.Decimal{"EUR/USD": dec(price)}}
	return NewService(stub, dec("10000")), stub
}

func TestOpen_ReservesMargin(t *testing.T) {
	svc, _ := newTestService("1.085")
	res, err := svc.Open(OpenParams{
		Instrument: "EUR/USD",
		Direction:  types.DirectionBuy,
		Quantity:   dec("1000"),
		Leverage:   dec("10"),
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !res.Position.RequiredMargin.Equal(dec("108.5")) {
		t.Errorf("RequiredMargin = %s, want 108.5", res.Position.RequiredMargin)
	}
	if !res.Balance.Equal(dec("9891.5")) {
		t.Errorf("Balance = %s, want 9891.5", res.Balance)
	}
	if res.Position.Status != types.PositionStatusOpen {
		t.Errorf("Status = %s, want OPEN", res.Position.Status)
	}
	if res.Position.ID == "" {
		t.Error("Position.ID is empty")
	}
	if res.Position.OpenTime.IsZero() {
		t.Error("OpenTime is zero")
	}
	if res.Position.ClosePrice != nil || res.Position.CloseTime != nil || res.Position.RealizedPnL != nil {
		t.Error("close-time fields set on an open position")
	}
}

func TestOpen_DefaultLeverage(t *testing.T) {
	svc, _ := newTestService("2")
	res, err := svc.Open(OpenParams{
		Instrument: "EUR/USD",
		Direction:  types.DirectionBuy,
		Quantity:   dec("100"),
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !res.Position.Leverage.Equal(dec("1")) {
		t.Errorf("Leverage = %s, want default 1", res.Position.Leverage)
	}
	if !res.Position.RequiredMargin.Equal(dec("200")) {
		t.Errorf("RequiredMargin = %s, want 200", res.Position.RequiredMargin)
	}
}

func TestOpen_Validation(t *testing.T) {
	tests := []struct {
		name    string
		params  OpenParams
		wantErr error
	}{
		{
			"invalid direction",
			OpenParams{Instrument: "EUR/USD", Direction: "HOLD", Quantity: dec("1")},
			ErrInvalidDirection,
		},
		{
			"zero quantity",
			OpenParams{Instrument: "EUR/USD", Direction: types.DirectionBuy, Quantity: dec("0")},
			ErrInvalidQuantity,
		},
		{
			"negative quantity",
			OpenParams{Instrument: "EUR/USD", Direction: types.DirectionSell, Quantity: dec("-5")},
			ErrInvalidQuantity,
		},
		{
			"negative leverage",
			OpenParams{Instrument: "EUR/USD", Direction: types.DirectionBuy, Quantity: dec("1"), Leverage: dec("-2")},
			ErrInvalidLeverage,
		},
		{
			"unknown instrument",
			OpenParams{Instrument: "XXX/YYY", Direction: types.DirectionBuy, Quantity: dec("1")},
			rates.ErrInstrumentNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService("1.085")
			_, err := svc.Open(tt.params)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Open() error = %v, want %v", err, tt.wantErr)
			}
			if got := svc.List(); len(got.Positions) != 0 || !got.Balance.Equal(dec("10000")) {
				t.Errorf("failed open mutated state: %d positions, balance %s", len(got.Positions), got.Balance)
			}
		})
	}
}

func TestOpen_InsufficientBalance(t *testing.T) {
	svc, _ := newTestService("1.085")
	_, err := svc.Open(OpenParams{
		Instrument: "EUR/USD",
		Direction:  types.DirectionBuy,
		Quantity:   dec("100000"),
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("Open() error = %v, want ErrInsufficientBalance", err)
	}
	got := svc.List()
	if len(got.Positions) != 0 {
		t.Errorf("positions appended on rejected open: %d", len(got.Positions))
	}
	if !got.Balance.Equal(dec("10000")) {
		t.Errorf("balance changed on rejected open: %s", got.Balance)
	}
}

func TestOpen_MarginEqualToBalanceAllowed(t *testing.T) {
	svc, _ := newTestService("100")
	res, err := svc.Open(OpenParams{
		Instrument: "EUR/USD",
		Direction:  types.DirectionBuy,
		Quantity:   dec("100"),
	})
	if err != nil {
		t.Fatalf("Open() with margin == balance error = %v", err)
	}
	if !res.Balance.IsZero() {
		t.Errorf("Balance = %s, want 0", res.Balance)
	}
}

func TestClose_RealizesPnL(t *testing.T) {
	svc, stub := newTestService("1.085")
	opened, err := svc.Open(OpenParams{
		Instrument: "EUR/USD",
		Direction:  types.DirectionBuy,
		Quantity:   dec("1000"),
		Leverage:   dec("10"),
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	stub.prices["EUR/USD"] = dec("1.095")
	closed, err := svc.Close(opened.Position.ID)
	if err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if closed.Position.Status != types.PositionStatusClosed {
		t.Errorf("Status = %s, want CLOSED", closed.Position.Status)
	}
	if closed.Position.RealizedPnL == nil || !closed.Position.RealizedPnL.Equal(dec("100")) {
		t.Errorf("RealizedPnL = %v, want 100", closed.Position.RealizedPnL)
	}
	if closed.Position.ClosePrice == nil || !closed.Position.ClosePrice.Equal(dec("1.095")) {
		t.Errorf("ClosePrice = %v, want 1.095", closed.Position.ClosePrice)
	}
	if closed.Position.CloseTime == nil {
		t.Error("CloseTime not set")
	}
	// 9891.5 + 108.5 margin back + 100 profit
	if !closed.Balance.Equal(dec("10100")) {
		t.Errorf("Balance = %s, want 10100", closed.Balance)
	}
}

func TestClose_NotFound(t *testing.T) {
	svc, _ := newTestService("1.085")
	if _, err := svc.Close("nope"); !errors.Is(err, ErrPositionNotFound) {
		t.Errorf("Close() error = %v, want ErrPositionNotFound", err)
	}
}

func TestClose_AlreadyClosed(t *testing.T) {
	svc, _ := newTestService("1.085")
	opened, _ := svc.Open(OpenParams{
		Instrument: "EUR/USD",
		Direction:  types.DirectionBuy,
		Quantity:   dec("10"),
	})
	first, err := svc.Close(opened.Position.ID)
	if err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	_, err = svc.Close(opened.Position.ID)
	if !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("second Close() error = %v, want ErrAlreadyClosed", err)
	}
	if got := svc.AccountSummary(); !got.Balance.Equal(first.Balance) {
		t.Errorf("balance changed on rejected close: %s != %s", got.Balance, first.Balance)
	}
}

func TestPnL_SignConventions(t *testing.T) {
	tests := []struct {
		name      string
		direction types.Direction
		open      string
		current   string
		want      string
	}{
		{"buy profits when price rises", types.DirectionBuy, "1.10", "1.20", "100"},
		{"buy loses when price falls", types.DirectionBuy, "1.20", "1.10", "-100"},
		{"sell profits when price falls", types.DirectionSell, "1.20", "1.10", "100"},
		{"sell loses when price rises", types.DirectionSell, "1.10", "1.20", "-100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pnl(tt.direction, dec(tt.open), dec(tt.current), dec("1000"), dec("1"))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("pnl() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClose_RoundsHalfAwayFromZero(t *testing.T) {
	svc, stub := newTestService("1")
	opened, _ := svc.Open(OpenParams{
		Instrument: "EUR/USD",
		Direction:  types.DirectionBuy,
		Quantity:   dec("1"),
	})
	stub.prices["EUR/USD"] = dec("1.005")
	closed, err := svc.Close(opened.Position.ID)
	if err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !closed.Position.RealizedPnL.Equal(dec("0.01")) {
		t.Errorf("RealizedPnL = %s, want 0.01 (half away from zero)", closed.Position.RealizedPnL)
	}
}

func TestList_LivePnLAndTotals(t *testing.T) {
	svc, stub := newTestService("1.085")
	buy, _ := svc.Open(OpenParams{
		Instrument: "EUR/USD",
		Direction:  types.DirectionBuy,
		Quantity:   dec("1000"),
		Leverage:   dec("10"),
	})
	_, err := svc.Open(OpenParams{
		Instrument: "EUR/USD",
		Direction:  types.DirectionSell,
		Quantity:   dec("1000"),
		Leverage:   dec("10"),
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	stub.prices["EUR/USD"] = dec("1.095")
	if _, err := svc.Close(buy.Position.ID); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	got := svc.List()
	if len(got.Positions) != 2 {
		t.Fatalf("List() returned %d positions, want 2", len(got.Positions))
	}
	closedRow := got.Positions[0]
	if closedRow.Status != types.PositionStatusClosed {
		t.Fatalf("first row status = %s, want CLOSED (insertion order)", closedRow.Status)
	}
	if !closedRow.UnrealizedPnL.IsZero() {
		t.Errorf("closed row UnrealizedPnL = %s, want 0", closedRow.UnrealizedPnL)
	}
	openRow := got.Positions[1]
	if openRow.CurrentPrice == nil || !openRow.CurrentPrice.Equal(dec("1.095")) {
		t.Errorf("open row CurrentPrice = %v, want 1.095", openRow.CurrentPrice)
	}
	if !openRow.UnrealizedPnL.Equal(dec("-100")) {
		t.Errorf("open row UnrealizedPnL = %s, want -100", openRow.UnrealizedPnL)
	}
	// realized +100 on the closed buy, live -100 on the open sell
	if !got.TotalPnL.IsZero() {
		t.Errorf("TotalPnL = %s, want 0", got.TotalPnL)
	}
}

func TestList_UnpricedInstrumentContributesZero(t *testing.T) {
	svc, stub := newTestService("1.085")
	_, err := svc.Open(OpenParams{
		Instrument: "EUR/USD",
		Direction:  types.DirectionBuy,
		Quantity:   dec("100"),
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	delete(stub.prices, "EUR/USD")

	got := svc.List()
	if got.Positions[0].CurrentPrice != nil {
		t.Errorf("CurrentPrice = %v, want nil for unpriced instrument", got.Positions[0].CurrentPrice)
	}
	if !got.Positions[0].UnrealizedPnL.IsZero() {
		t.Errorf("UnrealizedPnL = %s, want 0", got.Positions[0].UnrealizedPnL)
	}
	if !got.TotalPnL.IsZero() {
		t.Errorf("TotalPnL = %s, want 0", got.TotalPnL)
	}
}

func TestAccountSummary(t *testing.T) {
	svc, stub := newTestService("1.085")
	_, err := svc.Open(OpenParams{
		Instrument: "EUR/USD",
		Direction:  types.DirectionBuy,
		Quantity:   dec("1000"),
		Leverage:   dec("10"),
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	sell, err := svc.Open(OpenParams{
		Instrument: "EUR/USD",
		Direction:  types.DirectionSell,
		Quantity:   dec("500"),
		Leverage:   dec("5"),
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	stub.prices["EUR/USD"] = dec("1.095")
	got := svc.AccountSummary()

	// balance: 10000 - 108.5 - 108.5
	if !got.Balance.Equal(dec("9783")) {
		t.Errorf("Balance = %s, want 9783", got.Balance)
	}
	if got.OpenPositionCount != 2 {
		t.Errorf("OpenPositionCount = %d, want 2", got.OpenPositionCount)
	}
	if !got.UsedMargin.Equal(dec("217")) {
		t.Errorf("UsedMargin = %s, want 217", got.UsedMargin)
	}
	// buy: +0.01*1000*10 = 100; sell: -0.01*500*5 = -25
	if !got.UnrealizedPnL.Equal(dec("75")) {
		t.Errorf("UnrealizedPnL = %s, want 75", got.UnrealizedPnL)
	}
	if !got.Equity.Equal(dec("9858")) {
		t.Errorf("Equity = %s, want 9858", got.Equity)
	}

	again := svc.AccountSummary()
	if !again.UsedMargin.Equal(got.UsedMargin) || again.OpenPositionCount != got.OpenPositionCount {
		t.Error("AccountSummary() not idempotent under a fixed rate source")
	}

	// summary is over open positions only
	if _, err := svc.Close(sell.Position.ID); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	afterClose := svc.AccountSummary()
	if afterClose.OpenPositionCount != 1 {
		t.Errorf("OpenPositionCount after close = %d, want 1", afterClose.OpenPositionCount)
	}
	if !afterClose.UsedMargin.Equal(dec("108.5")) {
		t.Errorf("UsedMargin after close = %s, want 108.5", afterClose.UsedMargin)
	}
}
