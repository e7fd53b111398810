// Package directory holds the static landmark table used to enrich
// recognition results with a curated display name and location.
package directory

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

const (
	// CountryLabel is the location used when a landmark is not in the table.
	CountryLabel = "Maroc"

	mapSearchURL = "https://www.google.com/maps/search/?api=1&query="
	mapQualifier = "Morocco"
)

// Entry maps a canonical recognition label to its display fields.
type Entry struct {
	Label       string `mapstructure:"label"`
	DisplayName string `mapstructure:"display_name"`
	Location    string `mapstructure:"location"`
}

// Directory is ordered; the first matching entry wins.
type Directory []Entry

type Resolution struct {
	DisplayName string
	Location    string
	Matched     bool
}

func Default() Directory {
	return Directory{
		{Label: "Hassan II Mosque", DisplayName: "Mosquée Hassan II", Location: "Casablanca, Maroc"},
		{Label: "Koutoubia Mosque", DisplayName: "Mosquée Koutoubia", Location: "Marrakech, Maroc"},
		{Label: "Hassan Tower", DisplayName: "Tour Hassan", Location: "Rabat, Maroc"},
		{Label: "Jardin Majorelle", DisplayName: "Jardin Majorelle", Location: "Marrakech, Maroc"},
	}
}

// Load reads a directory file (yaml, json or toml) with a top-level
// "landmarks" list.
func Load(path string) (Directory, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var entries []Entry
	if err := v.UnmarshalKey("landmarks", &entries); err != nil {
		return nil, fmt.Errorf("decode directory: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("directory %s has no landmarks", path)
	}

	d := make(Directory, 0, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.Label) == "" && strings.TrimSpace(e.DisplayName) == "" {
			return nil, fmt.Errorf("landmark %d: label or display_name required", i)
		}
		if e.DisplayName == "" {
			e.DisplayName = e.Label
		}
		d = append(d, e)
	}
	return d, nil
}

// Lookup returns the first entry whose label or display name contains the
// candidate, or is contained by it.
func (d Directory) Lookup(candidate string) (Entry, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return Entry{}, false
	}
	for _, e := range d {
		if related(candidate, e.Label) || related(candidate, e.DisplayName) {
			return e, true
		}
	}
	return Entry{}, false
}

func related(a, b string) bool {
	b = strings.TrimSpace(b)
	if b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Resolve falls back to the raw name and CountryLabel when nothing matches.
func (d Directory) Resolve(name string) Resolution {
	if e, ok := d.Lookup(name); ok {
		return Resolution{DisplayName: e.DisplayName, Location: e.Location, Matched: true}
	}
	return Resolution{DisplayName: name, Location: CountryLabel}
}

// componentEscaper turns query escaping into URI component escaping: spaces
// become %20 and the marks !'()* stay literal.
var componentEscaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// MapLink builds the map search URL for a recognised name.
func MapLink(name string) string {
	return mapSearchURL + componentEscaper.Replace(url.QueryEscape(name+" "+mapQualifier))
}
