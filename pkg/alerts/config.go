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

package alerts

import (
	"fmt"
	"time"

	"github.com/carverauto/netpoll/pkg/models"
)

const (
	DefaultCriticalCooldown = 15 * time.Minute
	DefaultWarningCooldown  = 30 * time.Minute
	DefaultInfoCooldown     = time.Hour
)

// Config controls which conditions alert and how often they re-deliver.
type Config struct {
	// Cooldowns is the re-delivery window per severity.
	Cooldowns map[models.Severity]models.Duration `json:"cooldowns,omitempty"`
	// Domains lists the change domains that raise an alert on any Delta.
	Domains []models.Domain `json:"domains,omitempty"`
	// DomainSeverity overrides the warning severity of a domain's alerts.
	DomainSeverity map[models.Domain]models.Severity `json:"domain_severity,omitempty"`
}

// DefaultConfig alerts on config changes and interface flaps.
func DefaultConfig() Config {
	return Config{
		Cooldowns: map[models.Severity]models.Duration{
			models.SeverityCritical: models.Duration(DefaultCriticalCooldown),
			models.SeverityWarning:  models.Duration(DefaultWarningCooldown),
			models.SeverityInfo:     models.Duration(DefaultInfoCooldown),
		},
		Domains: []models.Domain{models.DomainConfig, models.DomainInterface},
	}
}

// WithDefaults fills missing cooldowns. A nil Domains list takes the default
// domains; an empty non-nil list disables change alerts.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()

	cooldowns := make(map[models.Severity]models.Duration, len(def.Cooldowns))
	for sev, d := range def.Cooldowns {
		cooldowns[sev] = d
	}

	for sev, d := range c.Cooldowns {
		cooldowns[sev] = d
	}

	c.Cooldowns = cooldowns

	if c.Domains == nil {
		c.Domains = def.Domains
	}

	return c
}

// Validate rejects unknown severities and domains.
func (c Config) Validate() error {
	for sev, d := range c.Cooldowns {
		if sev.Rank() == 0 {
			return fmt.Errorf("%w: cooldown for %q", ErrUnknownSeverity, sev)
		}

		if d < 0 {
			return fmt.Errorf("%w: %s", ErrNegativeCooldown, sev)
		}
	}

	for _, d := range c.Domains {
		if !knownDomain(d) {
			return fmt.Errorf("%w: %q", ErrUnknownDomain, d)
		}
	}

	for d, sev := range c.DomainSeverity {
		if !knownDomain(d) {
			return fmt.Errorf("%w: %q", ErrUnknownDomain, d)
		}

		if sev.Rank() == 0 {
			return fmt.Errorf("%w: %q for domain %s", ErrUnknownSeverity, sev, d)
		}
	}

	return nil
}

func knownDomain(d models.Domain) bool {
	switch d {
	case models.DomainConfig, models.DomainInterface, models.DomainMAC, models.DomainRouting:
		return true
	default:
		return false
	}
}

func (c Config) cooldown(sev models.Severity) time.Duration {
	return c.Cooldowns[sev].Std()
}

func (c Config) alertWorthy(d models.Domain) bool {
	for _, want := range c.Domains {
		if want == d {
			return true
		}
	}

	return false
}

func (c Config) domainSeverity(d models.Domain) models.Severity {
	if sev, ok := c.DomainSeverity[d]; ok {
		return sev
	}

	return models.SeverityWarning
}
