// Package config holds the settings shared by every skillbox command. All
// of it is optional, a missing skillbox.json5 means the built-in defaults.
package config

import (
	"errors"
	"fmt"
	"time"

	"skillbox/lib/configutil"

	"dario.cat/mergo"
)

const FileName = "skillbox.json5"

// BrowserUserAgent is the desktop chrome user agent sent to the exchanges and
// goodinfo.
const BrowserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

type HTTP struct {
	TimeoutSeconds int    `json:"timeout_seconds"`
	UserAgent      string `json:"user_agent"`
}

func (h HTTP) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

type Goodinfo struct {
	BaseURL string `json:"base_url"`
	// TZOffsetMinutes is the value of javascript's Date.getTimezoneOffset()
	// that the anti-bot cookie claims to have.
	TZOffsetMinutes  int   `json:"tz_offset_minutes"`
	Retries          int   `json:"retries"`
	BackoffMs        int   `json:"backoff_ms"`
	CloudflareBypass *bool `json:"cloudflare_bypass"`
	// RequestsPerSecond paces the requests of a session, negative disables it.
	RequestsPerSecond float64 `json:"requests_per_second"`
}

func (g Goodinfo) Backoff() time.Duration {
	return time.Duration(g.BackoffMs) * time.Millisecond
}

// UseCloudflareBypass reports whether the browser fingerprint transport should
// be installed, it defaults to true.
func (g Goodinfo) UseCloudflareBypass() bool {
	return g.CloudflareBypass == nil || *g.CloudflareBypass
}

type Exchange struct {
	BaseURL string `json:"base_url"`
}

type Retry struct {
	Retries   int `json:"retries"`
	BackoffMs int `json:"backoff_ms"`
}

func (r Retry) Backoff() time.Duration {
	return time.Duration(r.BackoffMs) * time.Millisecond
}

type Quota struct {
	AntigravityURL string `json:"antigravity_url"`
	CodexURL       string `json:"codex_url"`
	Workers        int    `json:"workers"`
}

type Cnyes struct {
	BaseURL string `json:"base_url"`
	LinkURL string `json:"link_url"`
	Limit   int    `json:"limit"`
	Days    int    `json:"days"`
}

type Moneydj struct {
	BaseURL string `json:"base_url"`
	Pages   int    `json:"pages"`
}

type News struct {
	// IntervalMs is the pause between two requests to the same site, negative
	// disables it.
	IntervalMs   int      `json:"interval_ms"`
	Cnyes        Cnyes    `json:"cnyes"`
	Statementdog Exchange `json:"statementdog"`
	Moneydj      Moneydj  `json:"moneydj"`
}

func (n News) Interval() time.Duration {
	return time.Duration(n.IntervalMs) * time.Millisecond
}

type Research struct {
	BasePath string `json:"base_path"`
}

type Config struct {
	HTTP     HTTP     `json:"http"`
	Goodinfo Goodinfo `json:"goodinfo"`
	TWSE     Exchange `json:"twse"`
	TPEX     Exchange `json:"tpex"`
	Exchange Retry    `json:"exchange"`
	Quota    Quota    `json:"quota"`
	News     News     `json:"news"`
	Research Research `json:"research"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		HTTP: HTTP{
			TimeoutSeconds: 30,
			UserAgent:      BrowserUserAgent,
		},
		Goodinfo: Goodinfo{
			BaseURL:           "https://goodinfo.tw/tw/",
			Retries:           5,
			BackoffMs:         1200,
			RequestsPerSecond: 2,
		},
		TWSE: Exchange{BaseURL: "https://www.twse.com.tw"},
		TPEX: Exchange{BaseURL: "https://www.tpex.org.tw"},
		Exchange: Retry{
			Retries:   3,
			BackoffMs: 1500,
		},
		Quota: Quota{
			AntigravityURL: "https://cloudcode-pa.googleapis.com/v1internal:fetchAvailableModels",
			CodexURL:       "https://chatgpt.com/backend-api/wham/usage",
			Workers:        8,
		},
		News: News{
			IntervalMs: 1000,
			Cnyes: Cnyes{
				BaseURL: "https://api.cnyes.com",
				LinkURL: "https://news.cnyes.com",
				Limit:   100,
				Days:    10,
			},
			Statementdog: Exchange{BaseURL: "https://statementdog.com"},
			Moneydj: Moneydj{
				BaseURL: "https://www.moneydj.com",
				Pages:   50,
			},
		},
		Research: Research{
			BasePath: "~/.openclaw/workspace/tasks/stock-research",
		},
	}
}

// Load reads the config at path, or searches up from the cwd for
// skillbox.json5 when path is empty. Values from the file are merged over
// Default(), zero values in the file keep the default.
func Load(path string) (Config, error) {
	var (
		fromFile Config
		err      error
	)
	if path == "" {
		fromFile, err = configutil.ReadRecursively[Config](FileName)
		if errors.Is(err, configutil.ErrNotFound) {
			return Default(), nil
		}
	} else {
		fromFile, err = configutil.ReadConfig[Config](path)
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return WithDefaults(fromFile)
}

// WithDefaults fills every unset field of c from Default().
func WithDefaults(c Config) (Config, error) {
	err := mergo.Merge(&c, Default())
	if err != nil {
		return Config{}, err
	}
	return c, nil
}
