package notifier

import (
	"fmt"
	"html"
	"strings"

	"EquiSmart/internal/model"
	"EquiSmart/internal/recorder"
	"EquiSmart/internal/strategy"

	"github.com/shopspring/decimal"
)

// maxListedRows keeps batch messages under the Telegram length limit.
const maxListedRows = 25

const croreDivisor = 1e7

// FormatBatchReport formats a batch run for Telegram.
func FormatBatchReport(report *model.BatchReport) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>EquiSmart portfolio screen</b> | %s\n\n", report.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Strategy: %s\n", strategyLabel(report.Strategy)))
	writeSummary(&b, report.Summary, report.Skipped)

	var listed int
	for _, row := range report.Rows {
		if row.Remark != model.RemarkNeedsAveraging {
			continue
		}
		if listed == 0 {
			b.WriteString("\n📉 <b>Needs averaging:</b>\n")
		}
		listed++
		if listed > maxListedRows {
			continue
		}
		b.WriteString(fmt.Sprintf("%s %s: ", allowedIcon(row.Risk.Allowed), html.EscapeString(row.Ticker)))
		if row.SharesToBuy == nil {
			b.WriteString(fmt.Sprintf("target ₹%s not reachable", optional(row.TargetPrice)))
		} else {
			b.WriteString(fmt.Sprintf("buy %d @ ₹%s → avg ₹%s",
				*row.SharesToBuy, money(row.MarketPrice), optional(row.NewAverage)))
		}
		b.WriteString(fmt.Sprintf(" (%s, %s risk)\n", row.Risk.Rating, row.Risk.RiskLevel))
	}
	if listed > maxListedRows {
		b.WriteString(fmt.Sprintf("…and %d more\n", listed-maxListedRows))
	}
	return b.String()
}

// FormatLastRun formats a recorded run.
func FormatLastRun(run *recorder.RunSummary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗂 <b>Last screen</b> | %s\n\n", run.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Strategy: %s\n", strategyLabel(run.Strategy)))
	writeSummary(&b, run.Summary, run.Skipped)

	var allowed []string
	for _, row := range run.Rows {
		if row.Remark == model.RemarkNeedsAveraging && row.Allowed {
			allowed = append(allowed, html.EscapeString(row.Ticker))
		}
	}
	if len(allowed) > 0 {
		b.WriteString(fmt.Sprintf("\n✅ Averaging allowed: %s\n", strings.Join(allowed, ", ")))
	}
	return b.String()
}

// FormatRiskReport formats a single ticker's risk verdict.
func FormatRiskReport(ticker string, ra model.RiskAssessment) string {
	f := ra.Fundamentals
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔎 <b>Risk analyzer: %s</b>\n\n", html.EscapeString(strings.ToUpper(ticker))))
	b.WriteString(fmt.Sprintf("PE Ratio: <b>%s</b>\n", optional(f.PERatio)))
	b.WriteString(fmt.Sprintf("Volatility (1Y): <b>%s</b>\n", optional(ra.Volatility)))
	roe := "N/A"
	if f.ReturnOnEquity != nil {
		roe = money(*f.ReturnOnEquity) + "%"
	}
	b.WriteString(fmt.Sprintf("ROE: <b>%s</b>\n", roe))
	b.WriteString(fmt.Sprintf("EPS: <b>%s</b>\n", optional(f.EPS)))
	b.WriteString(fmt.Sprintf("Market Cap: <b>%s</b>\n", marketCap(f.MarketCap)))
	b.WriteString(fmt.Sprintf("Sector: <b>%s</b>\n", orNA(f.Sector)))
	b.WriteString(fmt.Sprintf("Industry: <b>%s</b>\n", orNA(f.Industry)))
	b.WriteString(fmt.Sprintf("Rating: <b>%s</b> | Risk: <b>%s</b>\n\n", ra.Rating, ra.RiskLevel))

	if ra.Allowed {
		b.WriteString("<b>Recommendation:</b> ✅ Averaging Allowed\n")
		return b.String()
	}
	b.WriteString("<b>Recommendation:</b> ❌ Averaging Not Recommended\n")
	for _, r := range ra.Reasons {
		b.WriteString(html.EscapeString(r) + "\n")
	}
	return b.String()
}

// FormatSolveResult formats the single-position calculator output.
func FormatSolveResult(marketPrice float64, res model.AveragingResult) string {
	if !res.Feasible {
		return "❌ Target average is not reachable with current market price."
	}
	var b strings.Builder
	b.WriteString("📊 Calculation Results\n")
	b.WriteString(fmt.Sprintf("✅ Buy %d shares at ₹%s\n", res.SharesToBuy, money(marketPrice)))
	b.WriteString(fmt.Sprintf("🎯 New average price: ₹%s\n", money(res.NewAverage)))
	b.WriteString(fmt.Sprintf("💰 Estimated profit: ₹%s\n", money(res.ProjectedProfit)))
	return b.String()
}

func writeSummary(b *strings.Builder, s model.BatchSummary, skipped int) {
	b.WriteString(fmt.Sprintf("Total: %d | Profitable: %d | Needs averaging: %d", s.Total, s.Profitable, s.NeedsAveraging))
	if skipped > 0 {
		b.WriteString(fmt.Sprintf(" | Skipped: %d", skipped))
	}
	b.WriteString("\n")
}

func strategyLabel(s model.Strategy) string {
	if s.Kind == model.StrategyManual {
		return fmt.Sprintf("manual (target ₹%s)", money(s.ManualTarget))
	}
	return strategy.Describe(s.Kind)
}

func allowedIcon(ok bool) string {
	if ok {
		return "✅"
	}
	return "⚠️"
}

// marketCap renders a value in crores, e.g. 1.25e13 -> "1250000.00 Cr".
func marketCap(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return decimal.NewFromFloat(*v / croreDivisor).StringFixed(2) + " Cr"
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func optional(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return money(*v)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return html.EscapeString(s)
}
