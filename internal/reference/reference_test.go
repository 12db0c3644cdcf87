package reference_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/JaimeStill/newsroll/internal/reference"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadUniverse(t *testing.T) {
	path := writeFile(t, "tickers.json", `{
		"companies": [
			{ "symbol": "aapl", "name": "Apple Inc.", "sector": "Technology" },
			{ "symbol": "QQQ", "name": "Invesco QQQ Trust", "sector": "ETF" },
			{ "symbol": "UNH", "name": "UnitedHealth", "sector": "Health Care", "enabled": false },
			{ "symbol": "  ", "name": "blank", "sector": "Nowhere" }
		]
	}`)

	u, err := reference.LoadUniverse(path)
	if err != nil {
		t.Fatalf("LoadUniverse error: %v", err)
	}

	t.Run("symbols normalized and sorted", func(t *testing.T) {
		got := u.Enabled()
		want := []string{"AAPL", "QQQ"}
		if !slices.Equal(got, want) {
			t.Errorf("Enabled = %v, want %v", got, want)
		}
	})

	t.Run("disabled symbols excluded", func(t *testing.T) {
		if slices.Contains(u.Enabled(), "UNH") {
			t.Error("UNH should be excluded")
		}
	})

	t.Run("etf classification case-insensitive on input", func(t *testing.T) {
		if !u.IsETF("qqq") {
			t.Error("IsETF(qqq) = false, want true")
		}
		if u.IsETF("AAPL") {
			t.Error("IsETF(AAPL) = true, want false")
		}
	})

	t.Run("etf list", func(t *testing.T) {
		if got := u.ETFs(); !slices.Equal(got, []string{"QQQ"}) {
			t.Errorf("ETFs = %v, want [QQQ]", got)
		}
	})
}

func TestLoadFunds(t *testing.T) {
	t.Run("enveloped list", func(t *testing.T) {
		path := writeFile(t, "funds.json", `{
			"funds": [
				{ "symbol": "QQQ", "top_holdings": [{ "symbol": "AAPL", "weight_pct": 9.1 }] }
			]
		}`)
		funds, err := reference.LoadFunds(path)
		if err != nil {
			t.Fatalf("LoadFunds error: %v", err)
		}
		if len(funds) != 1 || funds[0].Symbol != "QQQ" {
			t.Errorf("funds = %+v, want single QQQ", funds)
		}
	})

	t.Run("raw list", func(t *testing.T) {
		path := writeFile(t, "funds.json", `[
			{ "symbol": "SPY", "top_holdings": [{ "symbol": "MSFT", "weight_pct": 6.5 }] }
		]`)
		funds, err := reference.LoadFunds(path)
		if err != nil {
			t.Fatalf("LoadFunds error: %v", err)
		}
		if len(funds) != 1 || funds[0].Symbol != "SPY" {
			t.Errorf("funds = %+v, want single SPY", funds)
		}
	})
}

func TestBuildIndex(t *testing.T) {
	funds := []reference.Fund{
		{
			Symbol: "QQQ",
			TopHoldings: []reference.Holding{
				{Symbol: "TSLA", WeightPct: 3.2},
				{Symbol: "AAPL", WeightPct: 9.1},
				{Symbol: "MSFT", WeightPct: 8.7},
				{Symbol: "NVDA", WeightPct: 8.2},
			},
		},
		{
			Symbol: "SPY",
			TopHoldings: []reference.Holding{
				{Symbol: "AAPL", WeightPct: 7.0},
				{Symbol: "JPM", WeightPct: 1.4},
			},
		},
	}
	ix := reference.BuildIndex(funds, 3)

	t.Run("keeps top holdings by weight", func(t *testing.T) {
		got := ix.TopHoldings("QQQ")
		want := []string{"AAPL", "MSFT", "NVDA"}
		if !slices.Equal(got, want) {
			t.Errorf("TopHoldings(QQQ) = %v, want %v", got, want)
		}
	})

	t.Run("low-weight holdings drop out", func(t *testing.T) {
		if slices.Contains(ix.TopHoldings("QQQ"), "TSLA") {
			t.Error("TSLA should fall outside the top 3")
		}
	})

	t.Run("inverted membership", func(t *testing.T) {
		got := ix.Funds("AAPL")
		slices.Sort(got)
		if !slices.Equal(got, []string{"QQQ", "SPY"}) {
			t.Errorf("Funds(AAPL) = %v, want [QQQ SPY]", got)
		}
	})

	t.Run("unknown symbol has no funds", func(t *testing.T) {
		if got := ix.Funds("XOM"); len(got) != 0 {
			t.Errorf("Funds(XOM) = %v, want empty", got)
		}
	})
}
