// Package sample generates synthetic statement files in the formats the
// importer reads. Output is reproducible for a given seed.
package sample

import (
	"bytes"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"statement-importer/internal/isin"
	"statement-importer/internal/models"
	"statement-importer/internal/parsers"
	"statement-importer/internal/registry"
	"statement-importer/pkg/errors"
)

// Sample is one generated file and what reading it must yield
type Sample struct {
	Source       registry.Source
	Data         []byte
	Rows         int
	Transactions int
	// Balance is the closing balance of a bank statement
	Balance decimal.Decimal
}

// Generator produces statement files
type Generator struct {
	rng      *rand.Rand
	start    time.Time
	resolver *isin.Resolver
	bondIDs  []string
}

// NewGenerator creates a generator whose operations start on start.
// Broker buys use ISINs known to resolver.
func NewGenerator(seed int64, start time.Time, resolver *isin.Resolver) *Generator {
	if resolver == nil {
		resolver = isin.Default()
	}
	return &Generator{
		rng:      rand.New(rand.NewSource(seed)),
		start:    models.Midnight(start),
		resolver: resolver,
		bondIDs:  []string{"EDO0134", "EDO0235", "ROD0136"},
	}
}

// Generate builds a file of count operations for source
func (g *Generator) Generate(source registry.Source, count int) (*Sample, error) {
	if count < 1 {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "count", count,
			fmt.Errorf("at least one operation is required"))
	}

	switch source {
	case registry.MBank:
		return g.BankStatement(count), nil
	case registry.Bossa:
		return g.BrokerExport(count)
	case registry.PolishBonds:
		return g.DispositionWorkbook(count)
	default:
		return nil, errors.UnsupportedServiceError(fmt.Sprint(source), registry.Names())
	}
}

func (g *Generator) day(i int) time.Time {
	return g.start.AddDate(0, 0, i)
}

// cents returns a random amount in [min, max) with two decimal places
func (g *Generator) cents(min, max int64) decimal.Decimal {
	return decimal.New(min+g.rng.Int63n(max-min), -2)
}

var bankDescriptions = []struct {
	description string
	category    string
	incoming    bool
}{
	{"PRZELEW PRZYCHODZĄCY", "Wpływy", true},
	{"WYNAGRODZENIE", "Wpływy", true},
	{"ZAKUP PRZY UŻYCIU KARTY", "Jedzenie", false},
	{"PRZELEW WYCHODZĄCY", "Przelewy", false},
	{"PŁATNOŚĆ BLIK", "Zakupy", false},
}

// BankStatement builds an mBank operation history. Rows are listed newest
// first and the statement starts from a non-zero balance, so reading it
// yields one extra opening balance deposit.
func (g *Generator) BankStatement(count int) *Sample {
	config := parsers.DefaultBankCSVConfig()
	opening := g.cents(10000, 500000)

	type row struct {
		date    time.Time
		kind    int
		value   decimal.Decimal
		balance decimal.Decimal
	}

	rows := make([]row, count)
	balance := opening
	for i := range rows {
		kind := g.rng.Intn(len(bankDescriptions))
		value := g.cents(1, 300000)
		if !bankDescriptions[kind].incoming {
			value = value.Neg()
		}
		balance = balance.Add(value)
		rows[i] = row{date: g.day(i), kind: kind, value: value, balance: balance}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "mBank S.A. Bankowość Detaliczna;\n")
	fmt.Fprintf(&buf, "#Za okres:;%s;%s;\n", rows[0].date.Format("02.01.2006"), rows[count-1].date.Format("02.01.2006"))
	fmt.Fprintf(&buf, "\n")
	fmt.Fprintf(&buf, "%s;#Opis operacji;#Rachunek;#Kategoria;#Kwota;#Saldo po operacji;\n", config.HeaderMarker)
	for i := count - 1; i >= 0; i-- {
		r := rows[i]
		d := bankDescriptions[r.kind]
		fmt.Fprintf(&buf, "%s;%q;%q;%q;%s %s;%s %s;\n", models.FormatDateISO(r.date), d.description, "eKonto",
			d.category, polishAmount(r.value), config.DefaultCurrency, polishAmount(r.balance), config.DefaultCurrency)
	}

	return &Sample{
		Source:       registry.MBank,
		Data:         buf.Bytes(),
		Rows:         count,
		Transactions: count + 1,
		Balance:      balance,
	}
}

// BrokerExport builds a Windows-1250 encoded brokerage cash history with
// deposits, limit refunds and buys of instruments the resolver knows
func (g *Generator) BrokerExport(count int) (*Sample, error) {
	config := parsers.DefaultBrokerCSVConfig()
	isins := g.resolver.ISINs()

	lines := []string{strings.Join([]string{config.DateColumn, config.TitleColumn, config.DetailsColumn, config.AmountColumn}, ";")}
	for i := 0; i < count; i++ {
		date := models.FormatDateISO(g.day(i))
		kind := g.rng.Intn(10)

		switch {
		case kind < 4 || len(isins) == 0:
			lines = append(lines, fmt.Sprintf("%s;%s;;%s", date, config.DepositTitle, commaAmount(g.cents(10000, 1000000))))
		case kind < 5:
			lines = append(lines, fmt.Sprintf("%s;%s %d;;-%s", date, config.RefundPrefix, g.day(i).Year(),
				commaAmount(g.cents(100, 100000))))
		default:
			code := isins[g.rng.Intn(len(isins))]
			quantity := 1 + g.rng.Int63n(20)
			price := decimal.New(50+g.rng.Int63n(500), 0).Add(decimal.New(g.rng.Int63n(10000), -4))
			details := fmt.Sprintf("Instrument %s (%s) %d x %s PLN nr Z%d", code[:2], code, quantity, price.StringFixed(4), 1000+i)
			total := price.Mul(decimal.NewFromInt(quantity)).Round(2)
			lines = append(lines, fmt.Sprintf("%s;%s;%s;-%s", date, config.BuyPrefix, details, commaAmount(total)))
		}
	}

	content := strings.Join(lines, "\r\n") + "\r\n"
	encoded, err := charmap.Windows1250.NewEncoder().String(content)
	if err != nil {
		return nil, errors.InternalError(errors.CodeEncodingError, "encode broker export", err)
	}

	return &Sample{
		Source:       registry.Bossa,
		Data:         []byte(encoded),
		Rows:         count,
		Transactions: count,
	}, nil
}

// DispositionWorkbook builds a bond disposition history. Cancelled
// dispositions and swaps are mixed in; reading skips them.
func (g *Generator) DispositionWorkbook(count int) (*Sample, error) {
	config := parsers.DefaultBondDispositionConfig()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := []interface{}{
		"Data dyspozycji", "Rodzaj dyspozycji", "Kod obligacji", "Rodzaj obligacji",
		"Seria", "Liczba obligacji", "Kwota", "Status",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, errors.InternalError(errors.CodeWorksheet, "write disposition header", err)
	}

	expected := 0
	for i := 0; i < count; i++ {
		kind := config.PurchaseType
		switch n := g.rng.Intn(10); {
		case n >= 8:
			kind = "zamiana obligacji"
		case n >= 6:
			kind = config.RedemptionType
		}
		status := config.CompletedState
		if g.rng.Intn(5) == 0 {
			status = "anulowana"
		}
		if status == config.CompletedState && kind != "zamiana obligacji" {
			expected++
		}

		bond := g.bondIDs[g.rng.Intn(len(g.bondIDs))]
		quantity := 1 + g.rng.Int63n(50)
		row := []interface{}{g.day(i), kind, bond, bond[:3], bond, quantity, quantity * config.FaceValue, status}

		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, errors.InternalError(errors.CodeWorksheet, "locate disposition row", err)
		}
		if err := f.SetSheetRow(sheet, cellName, &row); err != nil {
			return nil, errors.InternalError(errors.CodeWorksheet, "write disposition row", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.InternalError(errors.CodeWorksheet, "write disposition workbook", err)
	}

	return &Sample{
		Source:       registry.PolishBonds,
		Data:         buf.Bytes(),
		Rows:         count,
		Transactions: expected,
	}, nil
}

// polishAmount formats d like "-1 234,56"
func polishAmount(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	whole, frac := fixed[:len(fixed)-3], fixed[len(fixed)-2:]

	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(' ')
		}
		grouped.WriteRune(r)
	}

	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + grouped.String() + "," + frac
}

// commaAmount formats d like "1234,56"
func commaAmount(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}
