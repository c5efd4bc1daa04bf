// Package catalog assembles the built-in metric keys into a registry.
package catalog

import (
	"cmp"
	"slices"

	"github.com/Sumatoshi-tech/oometrics/pkg/analyzers/cohesion"
	"github.com/Sumatoshi-tech/oometrics/pkg/analyzers/complexity"
	"github.com/Sumatoshi-tech/oometrics/pkg/analyzers/size"
	"github.com/Sumatoshi-tech/oometrics/pkg/metrics"
)

// Entry describes one key for listings.
type Entry struct {
	Name        string   `json:"name"         yaml:"name"`
	DisplayName string   `json:"display_name" yaml:"display_name"`
	Category    string   `json:"category"     yaml:"category"`
	Group       string   `json:"group"        yaml:"group"`
	Versions    []string `json:"versions"     yaml:"versions"`
	Description string   `json:"description"  yaml:"description"`
}

// Default returns a registry with every built-in key: operation keys first,
// then type keys.
func Default() *metrics.Registry {
	var keys []*metrics.Key

	keys = append(keys, complexity.Keys()...)
	keys = append(keys, size.Keys()...)
	keys = append(keys, cohesion.Keys()...)

	return metrics.NewRegistry(sortByCategory(keys)...)
}

// Describe lists the keys of reg in registration order.
func Describe(reg *metrics.Registry) []Entry {
	keys := reg.Keys()
	entries := make([]Entry, 0, len(keys))

	for _, key := range keys {
		metric := key.Metric()
		versions := metrics.VersionsOf(metric)

		names := make([]string, 0, len(versions))
		for _, version := range versions {
			names = append(names, string(version))
		}

		entries = append(entries, Entry{
			Name:        key.Name(),
			DisplayName: metric.DisplayName(),
			Category:    key.Category().String(),
			Group:       metric.Type(),
			Versions:    names,
			Description: metric.Description(),
		})
	}

	return entries
}

// sortByCategory orders keys by descending category (operation, type,
// package) and keeps the relative order inside a category.
func sortByCategory(keys []*metrics.Key) []*metrics.Key {
	slices.SortStableFunc(keys, func(a, b *metrics.Key) int {
		return cmp.Compare(b.Category(), a.Category())
	})

	return keys
}
