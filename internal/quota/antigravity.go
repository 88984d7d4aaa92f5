package quota

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

const report_client_antigravity = "client.antigravity"

// modelOrder is the display order of the batch report, unknown models go last.
var modelOrder = []string{
	"claude-opus-4-5-thinking",
	"claude-sonnet-4-5-thinking",
	"claude-sonnet-4-5",
	"gemini-3-pro-high",
	"gemini-3-pro-low",
	"gemini-3-pro-image",
	"gemini-3-flash",
	"gemini-2.5-pro",
	"gemini-2.5-flash",
	"gemini-2.5-flash-thinking",
	"gemini-2.5-flash-lite",
	"gpt-oss-120b-medium",
}

type antigravityModels struct {
	Models map[string]struct {
		QuotaInfo struct {
			RemainingFraction *float64      `json:"remainingFraction"`
			ResetTime         json.RawMessage `json:"resetTime"`
		} `json:"quotaInfo"`
	} `json:"models"`
}

type antigravityRequest struct {
	Project string `json:"project,omitempty"`
}

// Antigravity fetches the quotas of every model available to token, sorted
// by usage (most used first).
func (c Client) Antigravity(ctx context.Context, token, projectID string) ([]Quota, error) {
	var data antigravityModels
	err := c.send(
		c.request(ctx, token).
			SetHeader("Content-Type", "application/json").
			SetHeader("User-Agent", "antigravity").
			SetHeader("X-Goog-Api-Client", "google-cloud-sdk vscode_cloudshelleditor/0.1").
			SetBody(antigravityRequest{Project: projectID}),
		"POST",
		c.antigravityURL,
		report_client_antigravity,
		&data,
	)
	if err != nil {
		return nil, err
	}

	quotas := extractAntigravity(data, c.time.Now())
	SortByUsage(quotas)
	return quotas, nil
}

func extractAntigravity(data antigravityModels, now time.Time) []Quota {
	quotas := []Quota{}
	for id, model := range data.Models {
		lower := strings.ToLower(id)
		if strings.Contains(lower, "chat_") || strings.Contains(lower, "tab_") {
			continue
		}

		// a missing fraction means the quota is exhausted
		remaining := 0.0
		if model.QuotaInfo.RemainingFraction != nil {
			remaining = *model.QuotaInfo.RemainingFraction
		}
		resetAt, resetHours := parseResetTime(model.QuotaInfo.ResetTime, now)

		quotas = append(quotas, Quota{
			Model:        id,
			RemainingPct: round1(remaining * 100),
			UsedPct:      round1((1 - remaining) * 100),
			ResetTime:    formatResetTime(resetAt),
			ResetHours:   resetHours,
		})
	}
	return quotas
}

// SortByUsage orders quotas by used percentage, highest first.
func SortByUsage(quotas []Quota) {
	sort.Slice(quotas, func(i, j int) bool {
		if quotas[i].UsedPct != quotas[j].UsedPct {
			return quotas[i].UsedPct > quotas[j].UsedPct
		}
		return quotas[i].Model < quotas[j].Model
	})
}

// SortByModelOrder orders quotas by the fixed model display order.
func SortByModelOrder(quotas []Quota) {
	rank := func(model string) int {
		for i, m := range modelOrder {
			if m == model {
				return i
			}
		}
		return len(modelOrder)
	}
	sort.Slice(quotas, func(i, j int) bool {
		ri, rj := rank(quotas[i].Model), rank(quotas[j].Model)
		if ri != rj {
			return ri < rj
		}
		return quotas[i].Model < quotas[j].Model
	})
}
