// Package isin maps security identifiers (ISIN) to the trading symbols used by
// the host portfolio.
package isin

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"statement-importer/pkg/errors"
)

var isinPattern = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)

// Resolver is an immutable ISIN to ticker table. It is built once and shared
// by reference with the parsers that need it.
type Resolver struct {
	tickers map[string]string
}

// NewResolver builds a resolver from the given table. The table is copied.
func NewResolver(table map[string]string) (*Resolver, error) {
	tickers := make(map[string]string, len(table))
	for isin, ticker := range table {
		isin = strings.ToUpper(strings.TrimSpace(isin))
		ticker = strings.TrimSpace(ticker)
		if !isinPattern.MatchString(isin) {
			return nil, fmt.Errorf("invalid ISIN %q", isin)
		}
		if ticker == "" {
			return nil, fmt.Errorf("empty ticker for ISIN %s", isin)
		}
		tickers[isin] = ticker
	}
	return &Resolver{tickers: tickers}, nil
}

// Default returns the resolver holding the built-in table
func Default() *Resolver {
	r, err := NewResolver(builtinTickers)
	if err != nil {
		panic(fmt.Sprintf("built-in ISIN table is invalid: %v", err))
	}
	return r
}

// Lookup returns the ticker of an ISIN or a LookupError when it is unmapped
func (r *Resolver) Lookup(isin string) (string, error) {
	if ticker, ok := r.tickers[isin]; ok {
		return ticker, nil
	}
	return "", errors.LookupError(isin)
}

// Len returns the number of mapped ISINs
func (r *Resolver) Len() int {
	return len(r.tickers)
}

// ISINs returns the mapped identifiers in sorted order
func (r *Resolver) ISINs() []string {
	out := make([]string, 0, len(r.tickers))
	for isin := range r.tickers {
		out = append(out, isin)
	}
	sort.Strings(out)
	return out
}

// mappingFile is the YAML layout of an ISIN mapping file:
//
//	tickers:
//	  IE00BFMXXD54: VUAA.DE
type mappingFile struct {
	Tickers map[string]string `yaml:"tickers"`
}

// Extend returns a new resolver holding r's table overlaid with extra
func (r *Resolver) Extend(extra map[string]string) (*Resolver, error) {
	merged := make(map[string]string, len(r.tickers)+len(extra))
	for isin, ticker := range r.tickers {
		merged[isin] = ticker
	}
	for isin, ticker := range extra {
		merged[isin] = ticker
	}
	return NewResolver(merged)
}

// LoadFile returns a new resolver holding r's table overlaid with the YAML
// mapping file at path.
func (r *Resolver) LoadFile(path string) (*Resolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		return nil, errors.FileError(errors.CodeFilePermission, path, err)
	}

	var file mappingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "isin.map_file", path, err)
	}

	extended, err := r.Extend(file.Tickers)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "isin.map_file", path, err)
	}
	return extended, nil
}
