package portfolio

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"EquiSmart/internal/model"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

const notAvailable = "N/A"

type exportRow struct {
	Stock        string `csv:"Stock"`
	Quantity     string `csv:"Current Quantity"`
	AveragePrice string `csv:"Current Average Price"`
	MarketPrice  string `csv:"Current Market Price"`
	TargetPrice  string `csv:"Target Average Price"`
	SharesToBuy  string `csv:"Shares to Buy"`
	NewAverage   string `csv:"New Average Price"`
	Profit       string `csv:"Estimated Profit"`
	Rating       string `csv:"Fundamentals Rating"`
	RiskLevel    string `csv:"Risk Level"`
	Volatility   string `csv:"Volatility"`
	Allowed      string `csv:"Allowed"`
	Remark       string `csv:"Remark"`
	Reasons      string `csv:"Reasons"`
}

// Export writes the result rows as CSV. Absent values are written as N/A.
func Export(w io.Writer, rows []model.BatchResultRow) error {
	out := make([]*exportRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, toExportRow(r))
	}
	if err := gocsv.Marshal(out, w); err != nil {
		return fmt.Errorf("export results: %w", err)
	}
	return nil
}

// ExportFile writes the result rows to path, replacing any existing file.
func ExportFile(path string, rows []model.BatchResultRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Export(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func toExportRow(r model.BatchResultRow) *exportRow {
	shares := notAvailable
	if r.SharesToBuy != nil {
		shares = strconv.FormatInt(*r.SharesToBuy, 10)
	}
	return &exportRow{
		Stock:        r.Ticker,
		Quantity:     strconv.FormatInt(r.Quantity, 10),
		AveragePrice: money(r.AveragePrice),
		MarketPrice:  money(r.MarketPrice),
		TargetPrice:  optional(r.TargetPrice),
		SharesToBuy:  shares,
		NewAverage:   optional(r.NewAverage),
		Profit:       optional(r.Profit),
		Rating:       string(r.Risk.Rating),
		RiskLevel:    string(r.Risk.RiskLevel),
		Volatility:   optional(r.Risk.Volatility),
		Allowed:      strconv.FormatBool(r.Risk.Allowed),
		Remark:       string(r.Remark),
		Reasons:      strings.Join(r.Risk.Reasons, "; "),
	}
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func optional(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return money(*v)
}
