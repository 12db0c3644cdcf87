// Package reference loads the static datasets the pipeline consumes:
// the monitored ticker universe and the fund holdings used to map
// holdings onto the ETFs that contain them.
package reference

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Company is one entry in the tickers dataset.
type Company struct {
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	Sector  string `json:"sector"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// Universe is the set of monitored symbols with their classification.
type Universe struct {
	companies map[string]Company
}

type tickersFile struct {
	Companies []Company `json:"companies"`
}

// LoadUniverse reads the tickers dataset. Symbols are normalized to upper
// case; a missing "enabled" field means enabled.
func LoadUniverse(path string) (*Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tickers: %w", err)
	}

	var file tickersFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse tickers: %w", err)
	}

	companies := make(map[string]Company, len(file.Companies))
	for _, c := range file.Companies {
		sym := normalize(c.Symbol)
		if sym == "" {
			continue
		}
		c.Symbol = sym
		companies[sym] = c
	}

	return &Universe{companies: companies}, nil
}

// Enabled returns the enabled symbols in sorted order.
func (u *Universe) Enabled() []string {
	out := make([]string, 0, len(u.companies))
	for sym, c := range u.companies {
		if c.Enabled == nil || *c.Enabled {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out
}

// IsETF reports whether symbol is classified as an ETF in the dataset.
func (u *Universe) IsETF(symbol string) bool {
	c, ok := u.companies[normalize(symbol)]
	if !ok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(c.Sector), "ETF")
}

// ETFs returns every enabled ETF symbol in sorted order.
func (u *Universe) ETFs() []string {
	out := make([]string, 0)
	for sym, c := range u.companies {
		if c.Enabled != nil && !*c.Enabled {
			continue
		}
		if u.IsETF(sym) {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
