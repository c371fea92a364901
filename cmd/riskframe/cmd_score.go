package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/protocolchecker/riskframe/internal/engine"
	"github.com/protocolchecker/riskframe/internal/registry"
)

func newScoreCmd() *cobra.Command {
	var (
		configPath   string
		registryPath string
		weightFlags  []string
		breakerFlags []string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one asset config and print the result as JSON",
		Long: `Reads a single asset's raw metric config (JSON) and runs the full
two-stage scoring pipeline. Custom weights must still sum to 1.0 after
merging with defaults.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return fmt.Errorf("failed to read asset config %s: %w", configPath, err)
			}
			var rawConfig map[string]interface{}
			if err := json.Unmarshal(data, &rawConfig); err != nil {
				return fmt.Errorf("failed to parse asset config: %w", err)
			}

			reg := registry.Default()
			if registryPath != "" {
				reg, err = registry.Load(registryPath)
				if err != nil {
					return err
				}
			}

			var opts []engine.Option
			if len(weightFlags) > 0 {
				weights, err := parseFloatPairs(weightFlags)
				if err != nil {
					return fmt.Errorf("invalid --weight: %w", err)
				}
				opts = append(opts, engine.WithCustomWeights(weights))
			}
			if len(breakerFlags) > 0 {
				toggles, err := parseBoolPairs(breakerFlags)
				if err != nil {
					return fmt.Errorf("invalid --breaker: %w", err)
				}
				opts = append(opts, engine.WithBreakerToggles(toggles))
			}

			result, err := engine.New(reg).CalculateAssetRiskScore(rawConfig, opts...)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to asset config JSON (required)")
	cmd.Flags().StringVar(&registryPath, "registry", "", "path to registry YAML (default: built-in)")
	cmd.Flags().StringArrayVar(&weightFlags, "weight", nil, "custom category weight, e.g. smart_contract=0.40 (repeatable)")
	cmd.Flags().StringArrayVar(&breakerFlags, "breaker", nil, "breaker toggle, e.g. no_audit=false (repeatable)")
	cmd.MarkFlagRequired("config")

	return cmd
}

func parseFloatPairs(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		key, value, err := splitPair(pair)
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", pair, err)
		}
		out[key] = f
	}
	return out, nil
}

func parseBoolPairs(pairs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(pairs))
	for _, pair := range pairs {
		key, value, err := splitPair(pair)
		if err != nil {
			return nil, err
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", pair, err)
		}
		out[key] = b
	}
	return out, nil
}

func splitPair(pair string) (string, string, error) {
	key, value, found := strings.Cut(pair, "=")
	if !found || key == "" || value == "" {
		return "", "", fmt.Errorf("expected key=value, got %q", pair)
	}
	return key, value, nil
}
