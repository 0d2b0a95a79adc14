package stream

import (
	"time"

	"fxsim/internal/rates"
)

type quotesPayload struct {
	Rates     []rates.Quote `json:"rates"`
	Timestamp int64         `json:"ts"`
}

// StartPublisher starts a background goroutine that samples every supported
// instrument once per tick and publishes the batch to the bus.
func StartPublisher(bus *Bus, provider *rates.Provider, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			bus.Publish(Event{Type: "quotes", Data: quotesPayload{
				Rates:     provider.Quotes(),
				Timestamp: time.Now().UnixMilli(),
			}})
		}
	}()
}
