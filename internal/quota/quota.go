// Package quota reads the remaining model quota of AI coding-assistant
// accounts (Google Antigravity and OpenAI Codex).
package quota

import (
	"errors"
	"math"
	"time"

	"skillbox/internal/components/fault"
)

type Provider string

const (
	ProviderAntigravity Provider = "google-antigravity"
	ProviderCodex       Provider = "openai-codex"
)

// Quota is the state of a single model (or rate limit window).
type Quota struct {
	Model        string   `json:"model"`
	RemainingPct float64  `json:"remaining_pct"`
	UsedPct      float64  `json:"used_pct"`
	ResetTime    *string  `json:"reset_time"`
	ResetHours   *float64 `json:"reset_hours"`
}

// Account is a single set of credentials read from auth-profiles.json.
type Account struct {
	Provider    Provider
	Key         string
	Email       string
	AccessToken string
	ProjectID   string
	AccountID   string
	// Expires is the token expiry in unix milliseconds, 0 if unknown.
	Expires float64
}

// Expired reports whether the token of the account expired before now.
func (a Account) Expired(now time.Time) bool {
	return a.Expires != 0 && a.Expires < float64(now.UnixMilli())
}

// Result is the outcome of checking one account, Error is a short label such
// as "Token expired" or "HTTP 401" when the check failed.
type Result struct {
	Provider     Provider `json:"provider"`
	Email        string   `json:"email"`
	ProjectID    string   `json:"project_id,omitempty"`
	AccountID    string   `json:"account_id,omitempty"`
	PlanType     string   `json:"plan_type,omitempty"`
	LimitReached bool     `json:"limit_reached,omitempty"`
	TokenExpires *string  `json:"token_expires"`
	Error        string   `json:"error,omitempty"`
	Quotas       []Quota  `json:"quotas"`
}

func (r Result) Failed() bool {
	return r.Error != ""
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// errorLabel is the short description of a failed request put into a Result.
func errorLabel(err error) string {
	var ferr *fault.Error
	if !errors.As(err, &ferr) {
		if fault.IsTransport(err) {
			return "Network error"
		}
		return err.Error()
	}
	switch ferr.Kind {
	case fault.KindNetwork:
		return "Network error"
	case fault.KindParse:
		return "Invalid response"
	default:
		return ferr.Message
	}
}
