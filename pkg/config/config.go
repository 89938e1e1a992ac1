// Package config loads the feed registry definition. Feeds are declared
// once in a YAML file and turned into backend instances at startup.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/nextstop/nextstop/pkg/util"
	iso8601 "github.com/senseyeio/duration"
	"gopkg.in/yaml.v3"
)

const defaultRealtimeTTL = 15 * time.Second

type Config struct {
	Feeds []FeedConfig `yaml:"feeds"`
}

type FeedConfig struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`

	// GTFS-RT trip update feed. Empty means the feed is schedule-only.
	RealtimeURL string `yaml:"realtime_url"`

	// ISO8601 duration (eg PT15S) the raw realtime response stays cached
	RealtimeTTL string `yaml:"realtime_ttl"`

	// Accept realtime trip ids that are substrings of scheduled ones
	FuzzyTripMatching bool `yaml:"fuzzy_trip_matching"`
}

func (f *FeedConfig) RealtimeTTLDuration() (time.Duration, error) {
	if f.RealtimeTTL == "" {
		return defaultRealtimeTTL, nil
	}

	parsed, err := iso8601.ParseISO8601(f.RealtimeTTL)
	if err != nil {
		return 0, fmt.Errorf("feed %s has invalid realtime_ttl: %w", f.Code, err)
	}

	reference := time.Now()
	return parsed.Shift(reference).Sub(reference), nil
}

func Load(path string) (*Config, error) {
	if path == "" {
		env := util.GetEnvironmentVariables()
		path = env["NEXTSTOP_FEEDS_CONFIG"]
	}
	if path == "" {
		path = "feeds.yaml"
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(contents, &config); err != nil {
		return nil, err
	}

	for _, feed := range config.Feeds {
		if feed.Code == "" {
			return nil, fmt.Errorf("feed declared without a code in %s", path)
		}
	}

	return &config, nil
}
