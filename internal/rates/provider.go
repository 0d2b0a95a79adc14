package rates

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInstrumentNotFound = errors.New("instrument not found")

// jitterRange bounds the per-call price noise at +-0.1% of the base price.
const jitterRange = 0.001

type instrument struct {
	Symbol string
	Base   float64
}

// Supported instrument table. Order matters: /rates and the quote stream
// report pairs in this order.
var instruments = []instrument{
	{"EUR/USD", 1.085},
	{"USD/JPY", 148.5},
	{"GBP/USD", 1.265},
	{"USD/CHF", 0.8755},
	{"AUD/USD", 0.6545},
	{"USD/CAD", 1.3635},
	{"NZD/USD", 0.6095},
	{"EUR/GBP", 0.8578},
	{"EUR/JPY", 161.15},
	{"GBP/JPY", 187.85},
}

// Provider synthesizes quotes from fixed base prices plus uniform jitter.
// Every call draws a fresh sample; nothing is cached between calls.
type Provider struct {
	mu   sync.Mutex
	rnd  *rand.Rand
	base map[string]float64
}

// NewProvider builds a provider around the given random source. Pass a seeded
// source in tests for deterministic quotes; a nil source falls back to a
// time-seeded one.
func NewProvider(rnd *rand.Rand) *Provider {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	base := make(map[string]float64, len(instruments))
	for _, in := range instruments {
		base[in.Symbol] = in.Base
	}
	return &Provider{rnd: rnd, base: base}
}

// Rate returns the current synthetic price for the instrument. Lookup is
// case-insensitive; unknown symbols return ErrInstrumentNotFound.
func (p *Provider) Rate(symbol string) (decimal.Decimal, error) {
	base, ok := p.base[strings.ToUpper(symbol)]
	if !ok {
		return decimal.Decimal{}, ErrInstrumentNotFound
	}
	return decimal.NewFromFloat(base * (1 + p.jitter())), nil
}

type Quote struct {
	Instrument string          `json:"instrument"`
	Price      decimal.Decimal `json:"price"`
}

// Quotes returns a fresh quote for every supported instrument, in table order.
func (p *Provider) Quotes() []Quote {
	out := make([]Quote, 0, len(instruments))
	for _, in := range instruments {
		out = append(out, Quote{
			Instrument: in.Symbol,
			Price:      decimal.NewFromFloat(in.Base * (1 + p.jitter())),
		})
	}
	return out
}

// Symbols returns the supported instrument symbols in table order.
func (p *Provider) Symbols() []string {
	out := make([]string, 0, len(instruments))
	for _, in := range instruments {
		out = append(out, in.Symbol)
	}
	return out
}

// jitter draws from [-jitterRange, jitterRange). The shared rand source is
// not goroutine safe, hence the lock.
func (p *Provider) jitter() float64 {
	p.mu.Lock()
	j := (p.rnd.Float64()*2 - 1) * jitterRange
	p.mu.Unlock()
	return j
}
