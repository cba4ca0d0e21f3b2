/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package history

import (
	"context"
	"fmt"

	"github.com/carverauto/netpoll/pkg/logger"
	"github.com/carverauto/netpoll/pkg/models"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config selects and sizes the history backend.
type Config struct {
	Backend string `json:"backend,omitempty"`
	// Keep is the per-device depth of the memory backend.
	Keep int `json:"keep,omitempty"`
	// Retention is the age limit of the postgres backend.
	Retention models.Duration        `json:"retention,omitempty"`
	Database  *models.DatabaseConfig `json:"database,omitempty"`
}

// Validate fills defaults and checks the backend choice.
func (c *Config) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}

	if c.Keep <= 0 {
		c.Keep = DefaultKeep
	}

	if c.Retention <= 0 {
		c.Retention = models.Duration(DefaultRetention)
	}

	switch c.Backend {
	case BackendMemory:
		return nil
	case BackendPostgres:
		if c.Database == nil {
			return ErrNoDatabase
		}

		if c.Database.Host == "" {
			return ErrDatabaseHost
		}

		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
}

// Open builds the configured store. The returned close function releases
// any database pool and is never nil.
func Open(ctx context.Context, cfg Config, log logger.Logger) (Store, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, func() {}, err
	}

	if cfg.Backend == BackendMemory {
		return NewMemoryStore(cfg.Keep), func() {}, nil
	}

	pool, err := NewPool(ctx, cfg.Database, log)
	if err != nil {
		return nil, func() {}, err
	}

	store := NewPostgresStore(pool, cfg.Retention.Std(), log)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, func() {}, err
	}

	return store, pool.Close, nil
}
