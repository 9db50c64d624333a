package portfolio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"EquiSmart/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/gocarina/gocsv"
)

// Canonical column names of the portfolio table.
const (
	ColumnStock        = "Stock"
	ColumnQuantity     = "Current Quantity"
	ColumnAveragePrice = "Current Average Price"
	ColumnMarketPrice  = "Current Market Price"
)

// columnAliases maps lower-cased header variants to canonical names.
var columnAliases = map[string]string{
	"stock":                 ColumnStock,
	"stock name":            ColumnStock,
	"current quantity":      ColumnQuantity,
	"quantity":              ColumnQuantity,
	"current average price": ColumnAveragePrice,
	"avg price":             ColumnAveragePrice,
	"average buy price":     ColumnAveragePrice,
	"current market price":  ColumnMarketPrice,
	"market price":          ColumnMarketPrice,
	"closing price":         ColumnMarketPrice,
}

var requiredColumns = []string{ColumnStock, ColumnQuantity, ColumnAveragePrice}

// MalformedInputError rejects a whole portfolio file.
type MalformedInputError struct {
	Missing []string
	Reason  string
}

func (e *MalformedInputError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("portfolio is missing required columns: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("malformed portfolio: %s", e.Reason)
}

// RowIssue describes a data row that was dropped. Line counts the header as line 1.
type RowIssue struct {
	Line   int
	Stock  string
	Reason string
}

func (i RowIssue) String() string {
	if i.Stock == "" {
		return fmt.Sprintf("line %d: %s", i.Line, i.Reason)
	}
	return fmt.Sprintf("line %d (%s): %s", i.Line, i.Stock, i.Reason)
}

var validate = validator.New()

// maxQuantity is 2^63, the first float64 that does not fit an int64.
const maxQuantity = float64(1 << 63)

// fieldColumns names Position fields the way the table does in messages.
var fieldColumns = map[string]string{
	"Ticker":       ColumnStock,
	"Quantity":     ColumnQuantity,
	"AveragePrice": ColumnAveragePrice,
	"MarketPrice":  ColumnMarketPrice,
}

// LoadFile opens path and calls Load.
func LoadFile(path string) ([]model.Position, []RowIssue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open portfolio: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a portfolio CSV. Rows with invalid values are dropped and reported as issues;
// a table without the required columns is rejected with a MalformedInputError.
// A missing or empty market price is returned as 0 so it can be quoted later.
func Load(r io.Reader) ([]model.Position, []RowIssue, error) {
	records, err := gocsv.CSVToMaps(r)
	if err != nil {
		return nil, nil, &MalformedInputError{Reason: err.Error()}
	}
	if len(records) == 0 {
		return nil, nil, &MalformedInputError{Reason: "no rows"}
	}

	if dup := duplicateColumns(records[0]); dup != "" {
		return nil, nil, &MalformedInputError{Reason: dup}
	}
	rows := make([]map[string]string, len(records))
	for i, rec := range records {
		rows[i] = normalize(rec)
	}
	if missing := missingColumns(rows[0]); len(missing) > 0 {
		return nil, nil, &MalformedInputError{Missing: missing}
	}

	positions := make([]model.Position, 0, len(rows))
	var issues []RowIssue
	for i, row := range rows {
		pos, reason := parseRow(row)
		if reason != "" {
			issues = append(issues, RowIssue{Line: i + 2, Stock: row[ColumnStock], Reason: reason})
			continue
		}
		positions = append(positions, pos)
	}
	return positions, issues, nil
}

func canonicalColumn(header string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
	canonical, ok := columnAliases[key]
	return canonical, ok
}

// duplicateColumns describes headers that name the same column more than once.
func duplicateColumns(rec map[string]string) string {
	seen := make(map[string][]string)
	for k := range rec {
		if canonical, ok := canonicalColumn(k); ok {
			seen[canonical] = append(seen[canonical], strings.TrimSpace(strings.TrimPrefix(k, "\ufeff")))
		}
	}
	var dups []string
	for canonical, headers := range seen {
		if len(headers) > 1 {
			sort.Strings(headers)
			dups = append(dups, fmt.Sprintf("%s given as %s", canonical, strings.Join(headers, ", ")))
		}
	}
	if len(dups) == 0 {
		return ""
	}
	sort.Strings(dups)
	return "duplicate columns: " + strings.Join(dups, "; ")
}

func normalize(rec map[string]string) map[string]string {
	out := make(map[string]string, len(rec))
	for k, v := range rec {
		if canonical, ok := canonicalColumn(k); ok {
			out[canonical] = strings.TrimSpace(v)
		}
	}
	return out
}

func missingColumns(row map[string]string) []string {
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := row[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

func parseRow(row map[string]string) (model.Position, string) {
	pos := model.Position{Ticker: strings.ToUpper(row[ColumnStock])}

	qty, err := parseNumber(row[ColumnQuantity])
	if err != nil {
		return pos, fmt.Sprintf("%s: %v", ColumnQuantity, err)
	}
	if qty != math.Trunc(qty) {
		return pos, fmt.Sprintf("%s must be a whole number, got %v", ColumnQuantity, qty)
	}
	if qty >= maxQuantity || qty < -maxQuantity {
		return pos, fmt.Sprintf("%s is out of range: %v", ColumnQuantity, qty)
	}
	pos.Quantity = int64(qty)

	if pos.AveragePrice, err = parseNumber(row[ColumnAveragePrice]); err != nil {
		return pos, fmt.Sprintf("%s: %v", ColumnAveragePrice, err)
	}

	if raw := row[ColumnMarketPrice]; raw != "" {
		if pos.MarketPrice, err = parseNumber(raw); err != nil {
			return pos, fmt.Sprintf("%s: %v", ColumnMarketPrice, err)
		}
	}

	if err := validate.Struct(pos); err != nil {
		return pos, validationMessage(err)
	}
	return pos, ""
}

// parseNumber accepts thousands separators and rejects NaN and infinities.
func parseNumber(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0, errors.New("value is missing")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", raw)
	}
	return v, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, errorMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func errorMessage(fe validator.FieldError) string {
	field := fe.Field()
	if col, ok := fieldColumns[field]; ok {
		field = col
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "min":
		if fe.Type().Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
