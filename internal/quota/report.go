package quota

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// reportModelLimit is the number of models listed per Antigravity account.
const reportModelLimit = 10

var rule = strings.Repeat("=", 60)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	return t
}

func resetLabel(hours *float64, format string) string {
	if hours == nil || *hours == 0 {
		return "-"
	}
	return fmt.Sprintf(format, *hours)
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func writeQuotas(w io.Writer, header string, quotas []Quota, resetFormat string) {
	t := newTable(w)
	t.AppendHeader(table.Row{header, "Used", "Remain", "Reset"})
	for _, q := range quotas {
		t.AppendRow(table.Row{q.Model, pct(q.UsedPct), pct(q.RemainingPct), resetLabel(q.ResetHours, resetFormat)})
	}
	t.Render()
}

// WriteBatchReport prints the results grouped by provider followed by a
// summary.
func WriteBatchReport(w io.Writer, results []Result) {
	var antigravity, codex []Result
	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
		switch r.Provider {
		case ProviderAntigravity:
			antigravity = append(antigravity, r)
		case ProviderCodex:
			codex = append(codex, r)
		}
	}

	if len(antigravity) > 0 {
		fmt.Fprintf(w, "\n%s\n🌐 Google Antigravity Accounts\n%s\n", rule, rule)
		for _, r := range antigravity {
			fmt.Fprintf(w, "\n📧 %s\n", r.Email)
			if writeFailure(w, r) {
				continue
			}
			quotas := r.Quotas
			if len(quotas) > reportModelLimit {
				quotas = quotas[:reportModelLimit]
			}
			writeQuotas(w, "Model", quotas, "%.0fh")
		}
	}

	if len(codex) > 0 {
		fmt.Fprintf(w, "\n%s\n🤖 OpenAI Codex Accounts\n%s\n", rule, rule)
		for _, r := range codex {
			plan := r.PlanType
			if plan == "" {
				plan = "unknown"
			}
			fmt.Fprintf(w, "\n📧 %s (Plan: %s)\n", r.Email, plan)
			if r.LimitReached {
				fmt.Fprintln(w, "   ⚠️ LIMIT REACHED")
			}
			if writeFailure(w, r) {
				continue
			}
			writeQuotas(w, "Quota Type", r.Quotas, "%.0fh")
		}
	}

	fmt.Fprintf(w, "\n%s\n📊 Summary\n", rule)
	fmt.Fprintf(w, "   Google Antigravity: %d accounts\n", len(antigravity))
	fmt.Fprintf(w, "   OpenAI Codex: %d accounts\n", len(codex))
	fmt.Fprintf(w, "   Total: %d accounts\n", len(results))
	fmt.Fprintf(w, "   Errors: %d\n", failed)
}

func writeFailure(w io.Writer, r Result) bool {
	if r.Failed() {
		fmt.Fprintf(w, "   ❌ Error: %s\n", r.Error)
		return true
	}
	if len(r.Quotas) == 0 {
		fmt.Fprintln(w, "   (no quota data)")
		return true
	}
	return false
}

// WriteAntigravityTable prints the quotas of a single Antigravity account.
func WriteAntigravityTable(w io.Writer, quotas []Quota) {
	if len(quotas) == 0 {
		fmt.Fprintln(w, "No quota data available.")
		return
	}
	writeQuotas(w, "Model", quotas, "%.1fh")
}

// WriteCodexUsage prints the usage of a single Codex account.
func WriteCodexUsage(w io.Writer, usage CodexUsage) {
	fmt.Fprintf(w, "📧 Email: %s\n", usage.Email)
	fmt.Fprintf(w, "📋 Plan: %s\n", usage.Plan)
	if usage.LimitReached {
		fmt.Fprintln(w, "⚠️ LIMIT REACHED")
	}
	fmt.Fprintln(w)
	writeQuotas(w, "Window", usage.Windows, "%.1fh")
}
