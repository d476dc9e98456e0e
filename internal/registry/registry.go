// Package registry maps statement source names to their parsers.
package registry

import (
	"fmt"
	"strings"

	"statement-importer/internal/isin"
	"statement-importer/internal/parsers"
	"statement-importer/pkg/errors"
)

// Source is a supported statement source. The set is closed: only the values
// declared in this package implement it, and Registry.Reader switches over
// all of them.
type Source interface {
	Name() string
	Description() string
	source()
}

type polishBonds struct{}
type mBank struct{}
type bossa struct{}

func (polishBonds) Name() string        { return "POLISH_BONDS" }
func (polishBonds) Description() string { return "Polish Bonds" }
func (polishBonds) source()             {}

func (mBank) Name() string        { return "MBANK" }
func (mBank) Description() string { return "mBank" }
func (mBank) source()             {}

func (bossa) Name() string        { return "BOSSA" }
func (bossa) Description() string { return "BOSSA/DM BOŚ" }
func (bossa) source()             {}

var (
	PolishBonds Source = polishBonds{}
	MBank       Source = mBank{}
	Bossa       Source = bossa{}
)

// Sources returns every supported source in display order
func Sources() []Source {
	return []Source{PolishBonds, MBank, Bossa}
}

// Names returns the names of every supported source
func Names() []string {
	sources := Sources()
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name()
	}
	return names
}

// ParseSource returns the source with the given name, case-insensitively
func ParseSource(name string) (Source, error) {
	for _, s := range Sources() {
		if strings.EqualFold(strings.TrimSpace(name), s.Name()) {
			return s, nil
		}
	}
	return nil, errors.UnsupportedServiceError(name, Names())
}

// Registry holds one parser per source, built once
type Registry struct {
	bonds  *parsers.BondDispositionParser
	bank   *parsers.BankCSVParser
	broker *parsers.BrokerCSVParser
}

// New creates the parsers of every source. The resolver is shared with the
// broker parser.
func New(resolver *isin.Resolver) (*Registry, error) {
	bonds, err := parsers.NewBondDispositionParser(nil)
	if err != nil {
		return nil, err
	}
	bank, err := parsers.NewBankCSVParser(nil)
	if err != nil {
		return nil, err
	}
	broker, err := parsers.NewBrokerCSVParser(nil, resolver)
	if err != nil {
		return nil, err
	}

	return &Registry{bonds: bonds, bank: bank, broker: broker}, nil
}

// Reader returns the parser of a source
func (r *Registry) Reader(s Source) parsers.Reader {
	switch s.(type) {
	case polishBonds:
		return r.bonds
	case mBank:
		return r.bank
	case bossa:
		return r.broker
	}
	panic(fmt.Sprintf("registry: unhandled source %T", s))
}

// ReaderFor resolves a source name and returns its parser
func (r *Registry) ReaderFor(name string) (parsers.Reader, Source, error) {
	s, err := ParseSource(name)
	if err != nil {
		return nil, nil, err
	}
	return r.Reader(s), s, nil
}
