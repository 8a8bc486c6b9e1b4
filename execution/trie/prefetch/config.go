// Copyright 2025 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package prefetch

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	// StorageRootWorkers is the number of storage roots computed at once.
	// 1 computes them in order on the calling goroutine.
	StorageRootWorkers int
	// DedupCacheSize bounds every dedup namespace to this many keys, least
	// recently added first out. 0 never evicts.
	DedupCacheSize int
	// DedupCacheTTL forgets dedup keys this long after they were added.
	// Takes precedence over DedupCacheSize, which then caps the key count.
	DedupCacheTTL  time.Duration
	MetricsEnabled bool
	LogPrefix      string
}

func DefaultConfig() Config {
	return Config{
		StorageRootWorkers: 1,
		LogPrefix:          "trie_prefetch",
	}
}

func (c Config) Validate() error {
	if c.StorageRootWorkers < 1 {
		return fmt.Errorf("storage root workers must be positive, got %d", c.StorageRootWorkers)
	}
	if c.DedupCacheSize < 0 {
		return fmt.Errorf("dedup cache size must not be negative, got %d", c.DedupCacheSize)
	}
	if c.DedupCacheTTL < 0 {
		return fmt.Errorf("dedup cache ttl must not be negative, got %s", c.DedupCacheTTL)
	}
	return nil
}

type fileConfig struct {
	StorageRootWorkers *int    `toml:"storage_root_workers"`
	DedupCacheSize     *int    `toml:"dedup_cache_size"`
	DedupCacheTTL      *string `toml:"dedup_cache_ttl"`
	MetricsEnabled     *bool   `toml:"metrics_enabled"`
	LogPrefix          *string `toml:"log_prefix"`
}

// LoadConfig reads a TOML file on top of DefaultConfig. Durations are
// strings such as "10m".
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (Config, error) {
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("parse trie prefetch config: %w", err)
	}
	cfg := DefaultConfig()
	if fc.StorageRootWorkers != nil {
		cfg.StorageRootWorkers = *fc.StorageRootWorkers
	}
	if fc.DedupCacheSize != nil {
		cfg.DedupCacheSize = *fc.DedupCacheSize
	}
	if fc.DedupCacheTTL != nil {
		ttl, err := time.ParseDuration(*fc.DedupCacheTTL)
		if err != nil {
			return Config{}, fmt.Errorf("parse dedup_cache_ttl: %w", err)
		}
		cfg.DedupCacheTTL = ttl
	}
	if fc.MetricsEnabled != nil {
		cfg.MetricsEnabled = *fc.MetricsEnabled
	}
	if fc.LogPrefix != nil {
		cfg.LogPrefix = *fc.LogPrefix
	}
	return cfg, cfg.Validate()
}
