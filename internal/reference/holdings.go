package reference

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sort"
)

// Holding is one constituent of a fund, ranked by portfolio weight.
type Holding struct {
	Symbol    string  `json:"symbol"`
	WeightPct float64 `json:"weight_pct"`
}

// Fund is one entry in the holdings dataset.
type Fund struct {
	Symbol      string    `json:"symbol"`
	TopHoldings []Holding `json:"top_holdings"`
}

// Index maps each holding to the funds that contain it among their top-K
// holdings, and each fund to those top-K holdings. It is rebuilt from the
// static dataset once per run and never persisted.
type Index struct {
	byHolding map[string][]string
	byFund    map[string][]string
}

// LoadFunds reads the fund holdings dataset. The file may be a raw list or
// an object wrapping the list under "funds", "etfs", "data", or "items".
func LoadFunds(path string) ([]Fund, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read funds: %w", err)
	}

	var funds []Fund
	if err := json.Unmarshal(data, &funds); err == nil {
		return funds, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse funds: %w", err)
	}

	for _, key := range []string{"funds", "etfs", "data", "items"} {
		raw, ok := wrapped[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &funds); err != nil {
			return nil, fmt.Errorf("parse funds %q: %w", key, err)
		}
		return funds, nil
	}

	return nil, fmt.Errorf("parse funds: no recognized envelope key")
}

// BuildIndex inverts fund -> ranked holdings into holding -> funds, keeping
// only the top-K holdings of each fund by descending weight.
func BuildIndex(funds []Fund, topK int) *Index {
	ix := &Index{
		byHolding: make(map[string][]string),
		byFund:    make(map[string][]string),
	}

	for _, f := range funds {
		fund := normalize(f.Symbol)
		if fund == "" || len(f.TopHoldings) == 0 {
			continue
		}

		ranked := make([]Holding, len(f.TopHoldings))
		copy(ranked, f.TopHoldings)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].WeightPct > ranked[j].WeightPct
		})
		if topK > 0 && len(ranked) > topK {
			ranked = ranked[:topK]
		}

		for _, h := range ranked {
			sym := normalize(h.Symbol)
			if sym == "" {
				continue
			}
			ix.byFund[fund] = append(ix.byFund[fund], sym)
			if !slices.Contains(ix.byHolding[sym], fund) {
				ix.byHolding[sym] = append(ix.byHolding[sym], fund)
			}
		}
	}

	return ix
}

// Funds returns the funds holding symbol among their top-K constituents.
func (ix *Index) Funds(symbol string) []string {
	return ix.byHolding[normalize(symbol)]
}

// TopHoldings returns the ranked top-K holdings of fund, heaviest first.
func (ix *Index) TopHoldings(fund string) []string {
	return ix.byFund[normalize(fund)]
}
