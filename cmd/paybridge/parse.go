package main

import (
	"strconv"
	"strings"

	"github.com/mstgnz/paybridge/provider"
)

// parseMeta turns repeated k=v flags into ordered metadata
func parseMeta(pairs []string) (provider.Metadata, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(provider.Metadata, 0, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, provider.InvalidRequestf("parse_flags", "metadata %q must be key=value", pair)
		}
		meta = append(meta, provider.MetadataItem{Key: k, Value: v})
	}
	return meta, nil
}

// parseExtra turns repeated k=v flags into a parameter map
func parseExtra(pairs []string) (map[string]string, error) {
	meta, err := parseMeta(pairs)
	if err != nil {
		return nil, err
	}
	return meta.Map(), nil
}

// parseItem reads name:sku:price:qty, price in major units
func parseItem(value, currency string) (provider.LineItem, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 4 {
		return provider.LineItem{}, provider.InvalidRequestf("parse_flags", "item %q must be name:sku:price:qty", value)
	}

	price, err := provider.ParseAmount(parts[2], currency)
	if err != nil {
		return provider.LineItem{}, err
	}
	qty, err := strconv.Atoi(parts[3])
	if err != nil || qty <= 0 {
		return provider.LineItem{}, provider.InvalidRequestf("parse_flags", "item %q has an invalid quantity", value)
	}

	return provider.LineItem{Name: parts[0], SKU: parts[1], UnitPrice: price, Quantity: qty}, nil
}

// parseOptionalAmount parses a decimal amount, "" meaning zero
func parseOptionalAmount(value, currency string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	return provider.ParseAmount(value, currency)
}
