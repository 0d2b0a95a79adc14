package model

import (
	"time"

	"fxsim/internal/types"

	"github.com/shopspring/decimal"
)

// Position is a single leveraged exposure. All fields except status and the
// close-time triple are immutable after creation; close-time fields are set
// exactly once when the position transitions OPEN -> CLOSED.
type Position struct {
	ID             string               `json:"id"`
	Instrument     string               `json:"instrument"`
	Direction      types.Direction      `json:"direction"`
	Quantity       decimal.Decimal      `json:"quantity"`
	Leverage       decimal.Decimal      `json:"leverage"`
	OpenPrice      decimal.Decimal      `json:"open_price"`
	OpenTime       time.Time            `json:"open_time"`
	Status         types.PositionStatus `json:"status"`
	RequiredMargin decimal.Decimal      `json:"required_margin"`
	ClosePrice     *decimal.Decimal     `json:"close_price,omitempty"`
	CloseTime      *time.Time           `json:"close_time,omitempty"`
	RealizedPnL    *decimal.Decimal     `json:"realized_pnl,omitempty"`
}
