// Package providers defines the fetcher boundary: the scoring engine never
// calls out to chains or APIs itself, it consumes raw asset configs delivered
// by a MetricProvider. Live per-protocol fetchers live outside this repo;
// a static fixture provider ships for offline runs and tests.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// MetricProvider delivers the raw (JSON-shaped) per-asset config that the
// engine normalizes and scores.
type MetricProvider interface {
	FetchAssetConfig(ctx context.Context, symbol string) (map[string]interface{}, error)
}

// ErrUnknownAsset is returned when a provider has no config for a symbol.
var ErrUnknownAsset = fmt.Errorf("unknown asset")

// StaticProvider serves asset configs from an in-memory map, keyed by symbol.
type StaticProvider struct {
	configs map[string]map[string]interface{}
}

// NewStaticProvider wraps an existing config map.
func NewStaticProvider(configs map[string]map[string]interface{}) *StaticProvider {
	if configs == nil {
		configs = map[string]map[string]interface{}{}
	}
	return &StaticProvider{configs: configs}
}

// LoadStaticProvider reads a JSON file of {"SYMBOL": {config...}, ...}.
func LoadStaticProvider(path string) (*StaticProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset config file %s: %w", path, err)
	}
	var configs map[string]map[string]interface{}
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("failed to parse asset config file %s: %w", path, err)
	}
	return NewStaticProvider(configs), nil
}

// FetchAssetConfig returns the stored config for the symbol.
func (p *StaticProvider) FetchAssetConfig(_ context.Context, symbol string) (map[string]interface{}, error) {
	cfg, ok := p.configs[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, symbol)
	}
	return cfg, nil
}

// Symbols lists every asset the provider knows about.
func (p *StaticProvider) Symbols() []string {
	out := make([]string, 0, len(p.configs))
	for sym := range p.configs {
		out = append(out, sym)
	}
	return out
}
