package analysis

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// RateSource is the slice of the rate provider the analyzer needs.
type RateSource interface {
	Rate(symbol string) (decimal.Decimal, error)
}

type Result struct {
	Instrument     string          `json:"instrument"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	Sentiment      string          `json:"sentiment"`
	Confidence     float64         `json:"confidence"`
	Reasoning      string          `json:"reasoning"`
	Recommendation string          `json:"recommendation"`
	TargetPrice    decimal.Decimal `json:"target_price"`
	StopLoss       decimal.Decimal `json:"stop_loss"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// Provider produces a sentiment/recommendation payload for an instrument and
// a free-text prompt. The canned implementation below fakes it with fixed
// templates; a real model can sit behind the same contract.
type Provider interface {
	Analyze(instrument, prompt string) (Result, error)
}

type template struct {
	sentiment      string
	confidence     float64
	reasoning      string
	recommendation string
	targetMult     decimal.Decimal
	stopMult       decimal.Decimal
}

var templates = []template{
	{
		sentiment:      "bullish",
		confidence:     0.78,
		reasoning:      "Momentum indicators for %s point upward; buyers are in control on the recent range.",
		recommendation: "BUY",
		targetMult:     decimal.NewFromFloat(1.02),
		stopMult:       decimal.NewFromFloat(0.98),
	},
	{
		sentiment:      "bearish",
		confidence:     0.74,
		reasoning:      "Selling pressure on %s is building and support levels look fragile.",
		recommendation: "SELL",
		targetMult:     decimal.NewFromFloat(0.98),
		stopMult:       decimal.NewFromFloat(1.02),
	},
	{
		sentiment:      "neutral",
		confidence:     0.55,
		reasoning:      "%s is consolidating with no clear directional bias; better entries may come later.",
		recommendation: "HOLD",
		targetMult:     decimal.NewFromInt(1),
		stopMult:       decimal.NewFromFloat(0.99),
	},
}

// Canned selects a template by keyword match on the prompt and parameterizes
// it with a fresh rate from the RateSource.
type Canned struct {
	rates RateSource

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCanned(rates RateSource, rnd *rand.Rand) *Canned {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Canned{rates: rates, rnd: rnd}
}

func (c *Canned) Analyze(instrument, prompt string) (Result, error) {
	symbol := strings.ToUpper(strings.TrimSpace(instrument))
	price, err := c.rates.Rate(symbol)
	if err != nil {
		return Result{}, err
	}
	tpl := c.pick(prompt)
	return Result{
		Instrument:     symbol,
		CurrentPrice:   price,
		Sentiment:      tpl.sentiment,
		Confidence:     tpl.confidence,
		Reasoning:      fmt.Sprintf(tpl.reasoning, symbol),
		Recommendation: tpl.recommendation,
		TargetPrice:    price.Mul(tpl.targetMult),
		StopLoss:       price.Mul(tpl.stopMult),
		GeneratedAt:    time.Now().UTC(),
	}, nil
}

func (c *Canned) pick(prompt string) template {
	p := strings.ToLower(prompt)
	switch {
	case strings.Contains(p, "buy") || strings.Contains(p, "bullish"):
		return templates[0]
	case strings.Contains(p, "sell") || strings.Contains(p, "bearish"):
		return templates[1]
	}
	c.mu.Lock()
	i := c.rnd.Intn(len(templates))
	c.mu.Unlock()
	return templates[i]
}
