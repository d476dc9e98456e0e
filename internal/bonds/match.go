package bonds

import (
	"sort"

	"statement-importer/pkg/logger"
)

// MatchResult pairs held symbols with the issues they refer to
type MatchResult struct {
	Matched   map[string]*Bond `json:"matched"`
	Unmatched []string         `json:"unmatched"`
}

// Symbols returns the matched symbols in sorted order
func (m *MatchResult) Symbols() []string {
	symbols := make([]string, 0, len(m.Matched))
	for symbol := range m.Matched {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// Match looks up each symbol among the EDO issues first, then the ROD issues.
// Symbols naming no known issue are reported as unmatched.
func Match(all *AllBonds, symbols []string) *MatchResult {
	log := logger.GetGlobalLogger().WithComponent("bond_matcher")
	result := &MatchResult{Matched: make(map[string]*Bond)}

	seen := make(map[string]bool, len(symbols))
	for _, symbol := range symbols {
		if seen[symbol] {
			continue
		}
		seen[symbol] = true

		if bond, ok := all.Get(BondID(symbol)); ok {
			result.Matched[symbol] = bond
			continue
		}

		log.WithField("symbol", symbol).Warn("No bond issue found for symbol")
		result.Unmatched = append(result.Unmatched, symbol)
	}

	sort.Strings(result.Unmatched)
	return result
}

// IsBondSymbol reports whether a symbol belongs to one of the bond families
func IsBondSymbol(symbol string) bool {
	for _, f := range Families() {
		if f.Owns(symbol) {
			return true
		}
	}
	return false
}
