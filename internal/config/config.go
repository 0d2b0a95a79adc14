package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr        string
	WebSocketOrigin string
	InitialBalance  string
	RandSeed        int64
	InternalToken   string
}

func Load() (Config, error) {
	var c Config
	c.HTTPAddr = os.Getenv("HTTP_ADDR")
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}
	c.WebSocketOrigin = strings.TrimSpace(os.Getenv("WS_ORIGIN"))
	if c.WebSocketOrigin == "" {
		c.WebSocketOrigin = "*"
	}
	balance := os.Getenv("INITIAL_BALANCE")
	if balance == "" {
		balance = "10000"
	}
	c.InitialBalance = balance
	seed := strings.TrimSpace(os.Getenv("RAND_SEED"))
	if seed != "" {
		n, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return c, errors.New("invalid RAND_SEED")
		}
		c.RandSeed = n
	}
	c.InternalToken = os.Getenv("INTERNAL_API_TOKEN")
	return c, nil
}
