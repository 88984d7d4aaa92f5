package quota

import (
	"context"
	"encoding/json"
	"time"
)

const report_client_codex = "client.codex"

const (
	WindowSession    = "codex-session-5h"
	WindowWeekly     = "codex-weekly"
	WindowCodeReview = "codex-code-review"
)

type codexWindow struct {
	UsedPercent *float64        `json:"used_percent"`
	ResetAt     json.RawMessage `json:"reset_at"`
}

// empty reports whether the window carries neither a usage nor a reset time,
// ex. `"primary_window": {}`.
func (w *codexWindow) empty() bool {
	return w.UsedPercent == nil && (len(w.ResetAt) == 0 || string(w.ResetAt) == "null")
}

type codexResponse struct {
	PlanType  string `json:"plan_type"`
	RateLimit struct {
		LimitReached    bool         `json:"limit_reached"`
		PrimaryWindow   *codexWindow `json:"primary_window"`
		SecondaryWindow *codexWindow `json:"secondary_window"`
	} `json:"rate_limit"`
	CodeReviewRateLimit struct {
		PrimaryWindow *codexWindow `json:"primary_window"`
	} `json:"code_review_rate_limit"`
}

// CodexUsage is the usage of a Codex account.
type CodexUsage struct {
	Email        string  `json:"email"`
	AccountID    string  `json:"account_id"`
	Plan         string  `json:"plan"`
	LimitReached bool    `json:"limit_reached"`
	Windows      []Quota `json:"windows"`
}

// Codex fetches the rate limit windows of token. When accountID is empty it
// is read from the token claims, as are the email and (if the response
// doesn't say) the plan. The code review window is only included when
// codeReview is set.
func (c Client) Codex(ctx context.Context, token, accountID string, codeReview bool) (CodexUsage, error) {
	claims := decodeClaims(token)
	if accountID == "" {
		accountID = claims.Auth.AccountID
	}

	req := c.request(ctx, token).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "Mozilla/5.0")
	if accountID != "" {
		req.SetHeader("ChatGPT-Account-Id", accountID)
	}

	var data codexResponse
	if err := c.send(req, "GET", c.codexURL, report_client_codex, &data); err != nil {
		return CodexUsage{}, err
	}

	usage := CodexUsage{
		Email:        claims.Profile.Email,
		AccountID:    accountID,
		Plan:         data.PlanType,
		LimitReached: data.RateLimit.LimitReached,
		Windows:      extractCodex(data, c.time.Now(), codeReview),
	}
	if usage.Plan == "" {
		usage.Plan = claims.Auth.PlanType
	}
	return usage, nil
}

func extractCodex(data codexResponse, now time.Time, codeReview bool) []Quota {
	windows := []Quota{}
	add := func(name string, w *codexWindow) {
		if w == nil || w.empty() {
			return
		}
		used := 0.0
		if w.UsedPercent != nil {
			used = *w.UsedPercent
		}
		resetAt, resetHours := parseResetTime(w.ResetAt, now)
		windows = append(windows, Quota{
			Model:        name,
			RemainingPct: round1(100 - used),
			UsedPct:      used,
			ResetTime:    formatResetTime(resetAt),
			ResetHours:   resetHours,
		})
	}

	add(WindowSession, data.RateLimit.PrimaryWindow)
	add(WindowWeekly, data.RateLimit.SecondaryWindow)
	if codeReview {
		add(WindowCodeReview, data.CodeReviewRateLimit.PrimaryWindow)
	}
	return windows
}
