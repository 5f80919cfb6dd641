package report

import (
	"strings"

	"github.com/meridian-ops/meridian-ops/internal/orders"
)

// ChannelType classifies a sales site as retail or wholesale.
type ChannelType string

const (
	ChannelRetail    ChannelType = "retail"
	ChannelWholesale ChannelType = "wholesale"
	// ChannelNone marks sites outside the channel tables. Such orders stay in
	// the unfiltered totals but are dropped from channel-keyed breakdowns.
	ChannelNone ChannelType = "none"
)

// BrandGroup classifies a sales site under a marketing brand.
type BrandGroup string

const (
	BrandPrimary BrandGroup = "primary"
	BrandPartner BrandGroup = "partner"
	BrandOther   BrandGroup = "other"
	// BrandNone marks sites outside every brand table. They are excluded from
	// brand slices and from the grand-total slice, but not from "all".
	BrandNone BrandGroup = "none"
)

// SeriesRule maps item names onto a canonical product group (SPU). Match is a
// case-insensitive substring test applied in declaration order.
type SeriesRule struct {
	Match  string
	Series string
}

// MultiplierKey addresses the quantity conversion table.
type MultiplierKey struct {
	Group   string
	Channel ChannelType
}

// Config carries the classification tables. All lookups are pure functions of
// the input, so the tables can be swapped without touching aggregation.
type Config struct {
	RetailSites    map[string]bool
	WholesaleSites map[string]bool

	PrimarySites map[string]bool
	PartnerSites map[string]bool
	OtherSites   map[string]bool

	SeriesRules []SeriesRule
	// SurpriseBoxSeries is the sentinel product group flagged separately for
	// multiplier lookup. Defaults to "Surprise Box".
	SurpriseBoxSeries string

	// Multipliers converts raw unit counts into normalized quantity. Missing
	// entries default to 1.
	Multipliers map[MultiplierKey]float64

	// FallbackSeries is used when no rule matches and the item name is blank.
	FallbackSeries string
}

// ChannelType resolves the sales channel for a site display name.
func (c *Config) ChannelType(siteName string) ChannelType {
	switch {
	case c.RetailSites[siteName]:
		return ChannelRetail
	case c.WholesaleSites[siteName]:
		return ChannelWholesale
	default:
		return ChannelNone
	}
}

// BrandGroup resolves the marketing brand for a site display name. Brand
// slicing is independent of channel slicing and applies to the unfiltered
// order set.
func (c *Config) BrandGroup(siteName string) BrandGroup {
	switch {
	case c.PrimarySites[siteName]:
		return BrandPrimary
	case c.PartnerSites[siteName]:
		return BrandPartner
	case c.OtherSites[siteName]:
		return BrandOther
	default:
		return BrandNone
	}
}

func (c *Config) surpriseBox() string {
	if c.SurpriseBoxSeries != "" {
		return c.SurpriseBoxSeries
	}
	return "Surprise Box"
}

// ProductGroup derives the canonical product group key for a line item and
// reports whether it is the surprise-box sentinel group.
func (c *Config) ProductGroup(item orders.LineItem) (string, bool) {
	name := strings.TrimSpace(item.Name)
	haystack := strings.ToLower(name + " " + item.SKU)
	for _, rule := range c.SeriesRules {
		if rule.Match == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(rule.Match)) {
			return rule.Series, rule.Series == c.surpriseBox()
		}
	}
	if strings.Contains(haystack, "surprise box") {
		return c.surpriseBox(), true
	}
	if name == "" {
		if c.FallbackSeries != "" {
			return c.FallbackSeries, false
		}
		return "Uncategorized", false
	}
	return name, false
}

// Multiplier returns the quantity conversion factor for a product group on a
// channel, defaulting to 1.
func (c *Config) Multiplier(group string, channel ChannelType) float64 {
	if m, ok := c.Multipliers[MultiplierKey{Group: group, Channel: channel}]; ok && m > 0 {
		return m
	}
	return 1
}
