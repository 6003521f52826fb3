// Package catalog serves the bundled track metadata and inspirational quotes.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/tracks.yaml data/quotes.json
var bundled embed.FS

// LoopPolicy decides whether a track repeats during a timed session.
type LoopPolicy string

const (
	LoopAlways    LoopPolicy = "always"
	LoopIfShorter LoopPolicy = "if_shorter"
	LoopNever     LoopPolicy = "never"
)

// Track is one playable audio item.
type Track struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Category    string     `yaml:"category" json:"category"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Duration    int        `yaml:"duration" json:"duration"`
	Frequency   int        `yaml:"frequency,omitempty" json:"frequency,omitempty"`
	YouTubeURL  string     `yaml:"youtube_url,omitempty" json:"-"`
	YouTubeID   string     `yaml:"-" json:"youtube_id,omitempty"`
	Path        string     `yaml:"path" json:"-"`
	URL         string     `yaml:"-" json:"url"`
	Loop        LoopPolicy `yaml:"loop" json:"loop"`
}

// FormattedDuration renders Duration with FormatDuration.
func (t Track) FormattedDuration() string {
	return FormatDuration(t.Duration)
}

// Quote is a bundled inspirational quote.
type Quote struct {
	ID       int    `json:"id"`
	Text     string `json:"text"`
	Author   string `json:"author"`
	Category string `json:"category"`
}

// Catalog holds the parsed bundled content.
type Catalog struct {
	tracks          []Track
	quotes          []Quote
	quoteCategories []string
}

// Load parses the bundled files and resolves track paths against audioBaseURL.
func Load(audioBaseURL string) (*Catalog, error) {
	base, err := url.Parse(strings.TrimRight(audioBaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse audio base url: %w", err)
	}

	rawTracks, err := bundled.ReadFile("data/tracks.yaml")
	if err != nil {
		return nil, err
	}
	var trackFile struct {
		Tracks []Track `yaml:"tracks"`
	}
	if err := yaml.Unmarshal(rawTracks, &trackFile); err != nil {
		return nil, fmt.Errorf("decode tracks: %w", err)
	}

	seen := make(map[string]struct{}, len(trackFile.Tracks))
	for i := range trackFile.Tracks {
		track := &trackFile.Tracks[i]
		if _, dup := seen[track.ID]; dup {
			return nil, fmt.Errorf("duplicate track id %q", track.ID)
		}
		seen[track.ID] = struct{}{}

		switch track.Loop {
		case LoopAlways, LoopIfShorter, LoopNever:
		case "":
			track.Loop = LoopNever
		default:
			return nil, fmt.Errorf("track %q: unknown loop policy %q", track.ID, track.Loop)
		}

		ref, err := url.Parse(track.Path)
		if err != nil {
			return nil, fmt.Errorf("track %q: %w", track.ID, err)
		}
		track.URL = base.ResolveReference(ref).String()
		track.YouTubeID = ExtractYouTubeID(track.YouTubeURL)
	}

	rawQuotes, err := bundled.ReadFile("data/quotes.json")
	if err != nil {
		return nil, err
	}
	var quoteFile struct {
		Categories []string `json:"categories"`
		Quotes     []Quote  `json:"quotes"`
	}
	if err := json.Unmarshal(rawQuotes, &quoteFile); err != nil {
		return nil, fmt.Errorf("decode quotes: %w", err)
	}

	categories := make(map[string]struct{})
	for _, c := range quoteFile.Categories {
		categories[c] = struct{}{}
	}
	for _, q := range quoteFile.Quotes {
		categories[q.Category] = struct{}{}
	}
	sorted := make([]string, 0, len(categories))
	for c := range categories {
		sorted = append(sorted, c)
	}
	sort.Strings(sorted)

	return &Catalog{tracks: trackFile.Tracks, quotes: quoteFile.Quotes, quoteCategories: sorted}, nil
}

func matchesAll(category string) bool {
	category = strings.TrimSpace(strings.ToLower(category))
	return category == "" || category == "all" || category == "all quotes"
}

// Tracks lists tracks in bundle order, optionally filtered by category.
func (c *Catalog) Tracks(category string) []Track {
	out := make([]Track, 0, len(c.tracks))
	for _, t := range c.tracks {
		if matchesAll(category) || strings.EqualFold(t.Category, category) {
			out = append(out, t)
		}
	}
	return out
}

// Track looks a track up by id.
func (c *Catalog) Track(id string) (Track, bool) {
	for _, t := range c.tracks {
		if t.ID == id {
			return t, true
		}
	}
	return Track{}, false
}

// Quotes lists quotes, optionally filtered by category.
func (c *Catalog) Quotes(category string) []Quote {
	out := make([]Quote, 0, len(c.quotes))
	for _, q := range c.quotes {
		if matchesAll(category) || strings.EqualFold(q.Category, category) {
			out = append(out, q)
		}
	}
	return out
}

// QuoteCategories returns the sorted unique quote categories.
func (c *Catalog) QuoteCategories() []string {
	return append([]string(nil), c.quoteCategories...)
}
