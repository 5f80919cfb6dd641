package report

import (
	"encoding/json"
	"fmt"
	"os"
)

// configFile is the on-disk shape of the classification tables. Multipliers
// nest as group -> channel -> factor.
type configFile struct {
	RetailSites       []string                      `json:"retail_sites"`
	WholesaleSites    []string                      `json:"wholesale_sites"`
	PrimarySites      []string                      `json:"primary_sites"`
	PartnerSites      []string                      `json:"partner_sites"`
	OtherSites        []string                      `json:"other_sites"`
	SeriesRules       []SeriesRule                  `json:"series_rules"`
	SurpriseBoxSeries string                        `json:"surprise_box_series"`
	FallbackSeries    string                        `json:"fallback_series"`
	Multipliers       map[string]map[string]float64 `json:"multipliers"`
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// LoadConfigFile reads classification tables from a JSON file. An empty path
// yields an empty config: every site classifies as none, every multiplier
// defaults to 1.
func LoadConfigFile(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: read classifier config: %w", err)
	}
	var file configFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("report: parse classifier config: %w", err)
	}

	cfg := &Config{
		RetailSites:       toSet(file.RetailSites),
		WholesaleSites:    toSet(file.WholesaleSites),
		PrimarySites:      toSet(file.PrimarySites),
		PartnerSites:      toSet(file.PartnerSites),
		OtherSites:        toSet(file.OtherSites),
		SeriesRules:       file.SeriesRules,
		SurpriseBoxSeries: file.SurpriseBoxSeries,
		FallbackSeries:    file.FallbackSeries,
		Multipliers:       make(map[MultiplierKey]float64),
	}
	for group, channels := range file.Multipliers {
		for channel, factor := range channels {
			if factor <= 0 {
				return nil, fmt.Errorf("report: multiplier for %s/%s must be positive", group, channel)
			}
			cfg.Multipliers[MultiplierKey{Group: group, Channel: ChannelType(channel)}] = factor
		}
	}
	return cfg, nil
}
