// Package seed generates demo sales records from delivery templates.
package seed

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"tally/internal/core"
)

//go:embed templates.yaml
var defaultTemplates []byte

// Template is one recurring delivery used to fill a day.
type Template struct {
	Company  string  `yaml:"company"`
	Type     string  `yaml:"type"`
	Quantity float64 `yaml:"quantity"`
	Driver   string  `yaml:"driver"`
	Plate    string  `yaml:"plate"`
	Hauler   string  `yaml:"hauler"`
	CashPO   string  `yaml:"cash_po"`
	DRISInv  string  `yaml:"dr_is_inv"`
	LoadedBy string  `yaml:"loaded_by"`
	Amount   float64 `yaml:"amount"`
}

// Templates holds the cash and accounts receivable pools.
type Templates struct {
	Cash []Template `yaml:"cash"`
	AR   []Template `yaml:"ar"`
}

// Daily volume ranges, inclusive.
const (
	minCash = 8
	maxCash = 15
	minAR   = 4
	maxAR   = 7
)

func DefaultTemplates() Templates {
	t, err := ParseTemplates(defaultTemplates)
	if err != nil {
		panic(fmt.Sprintf("seed: embedded templates: %v", err))
	}
	return t
}

func ParseTemplates(data []byte) (Templates, error) {
	var t Templates
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Templates{}, fmt.Errorf("parse templates: %w", err)
	}
	if len(t.Cash) == 0 || len(t.AR) == 0 {
		return Templates{}, errors.New("templates need at least one cash and one ar entry")
	}
	return t, nil
}

// LoadTemplates reads templates from a YAML file.
func LoadTemplates(path string) (Templates, error) {
	f, err := os.Open(path)
	if err != nil {
		return Templates{}, fmt.Errorf("open templates: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return Templates{}, fmt.Errorf("read templates: %w", err)
	}
	return ParseTemplates(data)
}

// Generator draws records from templates. The same seed yields the same
// records.
type Generator struct {
	templates Templates
	rng       *rand.Rand
}

func NewGenerator(t Templates, seed uint64) *Generator {
	return &Generator{templates: t, rng: rand.New(rand.NewPCG(seed, seed^0x5eed))}
}

// Generate fills every day from today-days up to today with 8-15 cash and
// 4-7 receivable deliveries.
func (g *Generator) Generate(today time.Time, days int) []core.Record {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	var out []core.Record
	for ago := days; ago >= 0; ago-- {
		date := day.AddDate(0, 0, -ago)
		stamp := date.Format(time.DateOnly)

		nCash := minCash + g.rng.IntN(maxCash-minCash+1)
		for i := 0; i < nCash; i++ {
			t := g.templates.Cash[g.rng.IntN(len(g.templates.Cash))]
			out = append(out, t.record(fmt.Sprintf("%s-cash-%d", stamp, i), date, core.Cash))
		}
		nAR := minAR + g.rng.IntN(maxAR-minAR+1)
		for i := 0; i < nAR; i++ {
			t := g.templates.AR[g.rng.IntN(len(g.templates.AR))]
			out = append(out, t.record(fmt.Sprintf("%s-ar-%d", stamp, i), date, core.AccountsReceivable))
		}
	}
	return out
}

func (t Template) record(id string, date time.Time, pt core.PaymentType) core.Record {
	return core.Record{
		ID:                id,
		SaleDate:          date,
		CompanyName:       t.Company,
		AggregateType:     t.Type,
		AggregateQuantity: decimal.NewFromFloat(t.Quantity),
		DriverName:        t.Driver,
		PlateNumber:       t.Plate,
		Hauler:            t.Hauler,
		CashPONumber:      t.CashPO,
		DRISInvNumber:     t.DRISInv,
		LoadedBy:          t.LoadedBy,
		Amount:            decimal.NewFromFloat(t.Amount),
		PaymentType:       pt,
	}
}
