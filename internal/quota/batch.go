package quota

import (
	"context"
	"sort"
	"time"

	"skillbox/internal/components/assert"
	"skillbox/internal/components/chrono"
	"skillbox/internal/components/telemetry"

	"golang.org/x/sync/errgroup"
)

const (
	report_checker_check_all = "checker.check-all"
	report_checker_failed    = "checker.failed"
)

const DefaultWorkers = 8

// Checker checks a list of accounts concurrently.
type Checker struct {
	client  Client
	time    chrono.TimeAPI
	workers int
	tel     telemetry.API
}

func NewChecker(client Client, time chrono.TimeAPI, workers int, tel telemetry.API) Checker {
	assert.NotNil(time)
	assert.NotNil(tel)
	if workers < 1 {
		workers = DefaultWorkers
	}
	return Checker{
		client:  client,
		time:    time,
		workers: workers,
		tel:     telemetry.NewScopedAPI("quota", tel),
	}
}

// CheckAll checks every account with at most `workers` requests in flight.
// A failing account never affects the others: the returned slice always has
// one result per account, sorted by provider then email.
func (c Checker) CheckAll(ctx context.Context, accounts []Account) []Result {
	results := make([]Result, len(accounts))

	var group errgroup.Group
	group.SetLimit(c.workers)
	for i, account := range accounts {
		group.Go(func() error {
			results[i] = c.Check(ctx, account)
			return nil
		})
	}
	// the workers never return an error
	_ = group.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Provider != results[j].Provider {
			return results[i].Provider < results[j].Provider
		}
		return results[i].Email < results[j].Email
	})

	var failed int64
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	c.tel.ReportCount(report_checker_check_all, int64(len(results)))
	c.tel.ReportCount(report_checker_failed, failed)

	return results
}

// Check checks a single account, expired tokens are reported without making a
// request.
func (c Checker) Check(ctx context.Context, account Account) Result {
	now := c.time.Now()

	result := Result{
		Provider: account.Provider,
		Email:    account.Email,
		Quotas:   []Quota{},
	}
	if account.Expires != 0 {
		expires := time.UnixMilli(int64(account.Expires)).In(now.Location())
		result.TokenExpires = formatResetTime(&expires)
	}

	switch account.Provider {
	case ProviderAntigravity:
		result.ProjectID = account.ProjectID
	case ProviderCodex:
		result.AccountID = account.AccountID
		if result.Email == "" {
			result.Email = account.AccountID
		}
		if result.Email == "" {
			result.Email = "unknown"
		}
	}

	if account.Expired(now) {
		result.Error = "Token expired"
		return result
	}

	switch account.Provider {
	case ProviderAntigravity:
		quotas, err := c.client.Antigravity(ctx, account.AccessToken, account.ProjectID)
		if err != nil {
			result.Error = errorLabel(err)
			return result
		}
		SortByModelOrder(quotas)
		result.Quotas = quotas
	case ProviderCodex:
		usage, err := c.client.Codex(ctx, account.AccessToken, account.AccountID, false)
		if err != nil {
			result.Error = errorLabel(err)
			return result
		}
		result.PlanType = usage.Plan
		result.LimitReached = usage.LimitReached
		result.Quotas = usage.Windows
	default:
		result.Error = "Unsupported provider"
	}
	return result
}
