// Copyright (C) 2025 the ai-vulns authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package services

import (
	"log/slog"
	"time"

	"github.com/IDEAS-AI-Vulns/ai-vulns/database/models"
	"github.com/IDEAS-AI-Vulns/ai-vulns/monitoring"
	"github.com/IDEAS-AI-Vulns/ai-vulns/shared"
	"github.com/IDEAS-AI-Vulns/ai-vulns/utils"
	"github.com/IDEAS-AI-Vulns/ai-vulns/vulndb"
	"github.com/pkg/errors"
)

// how many vulnerabilities get enriched concurrently during a batch run
const enrichmentConcurrency = 10

// EnrichmentService refreshes vulnerabilities from the external database.
// External data is authoritative for the externally sourced fields, internal
// fields are never touched by an enrichment.
type EnrichmentService struct {
	vulnerabilityRepository           shared.VulnerabilityRepository
	vulnerableConfigurationRepository shared.VulnerableConfigurationRepository
	fetcher                           shared.CVEFetcher
	clock                             shared.Clock

	// serializes concurrent enrichment of the same vulnerability
	enrichmentMutex utils.KeyedMutex
}

func NewEnrichmentService(
	vulnerabilityRepository shared.VulnerabilityRepository,
	vulnerableConfigurationRepository shared.VulnerableConfigurationRepository,
	fetcher shared.CVEFetcher,
	clock shared.Clock,
) *EnrichmentService {
	return &EnrichmentService{
		vulnerabilityRepository:           vulnerabilityRepository,
		vulnerableConfigurationRepository: vulnerableConfigurationRepository,
		fetcher:                           fetcher,
		clock:                             clock,
	}
}

// EnrichOne refreshes a single vulnerability. An unknown name surfaces as
// gorm.ErrRecordNotFound, a vulnerability whose external record is
// unavailable keeps its prior state.
func (service *EnrichmentService) EnrichOne(name string) (models.Vulnerability, error) {
	unlock := service.enrichmentMutex.Lock(name)
	defer unlock()

	vulnerability, err := service.vulnerabilityRepository.FindByName(name)
	if err != nil {
		return models.Vulnerability{}, err
	}

	vulnerability, _, err = service.enrich(vulnerability)
	return vulnerability, err
}

// EnrichAllEligible refreshes every CVE named vulnerability. Items fail
// independently - a single broken record never stops the batch.
func (service *EnrichmentService) EnrichAllEligible() ([]models.Vulnerability, error) {
	vulnerabilities, err := service.vulnerabilityRepository.AllWithCVEPrefix()
	if err != nil {
		return nil, errors.Wrap(err, "could not load vulnerabilities for batch enrichment")
	}

	group := utils.ErrGroup[*models.Vulnerability](enrichmentConcurrency)
	for _, vulnerability := range vulnerabilities {
		group.Go(func() (*models.Vulnerability, error) {
			unlock := service.enrichmentMutex.Lock(vulnerability.Name)
			defer unlock()

			enriched, available, err := service.enrich(vulnerability)
			if err != nil {
				// failed items are dropped from the result, not from the store
				slog.Error("could not enrich vulnerability", "vulnerability", vulnerability.Name, "err", err)
				return nil, nil
			}
			if !available {
				// the prior state stays in the store but an item we could not
				// refresh does not count as enriched
				return nil, nil
			}
			return &enriched, nil
		})
	}

	results, err := group.WaitAndCollect()
	if err != nil {
		return nil, err
	}
	return utils.Map(utils.Filter(results, func(vulnerability *models.Vulnerability) bool {
		return vulnerability != nil
	}), func(vulnerability *models.Vulnerability) models.Vulnerability {
		return *vulnerability
	}), nil
}

// enrich refreshes one vulnerability. The second return value reports whether
// the vulnerability carries current external data afterwards - false means the
// external record was unavailable and the prior state was kept.
func (service *EnrichmentService) enrich(vulnerability models.Vulnerability) (models.Vulnerability, bool, error) {
	if !vulnerability.IsCVE() {
		return vulnerability, true, nil
	}
	if !service.needsRefresh(vulnerability) {
		// already enriched today - zero external calls
		return vulnerability, true, nil
	}

	monitoring.EnrichmentAmount.Inc()
	begin := time.Now()
	defer func() {
		monitoring.EnrichmentDuration.Observe(time.Since(begin).Seconds())
	}()

	fetched, configurations, err := service.fetcher.FetchCVEWithRetry(vulnerability.Name)
	if err != nil {
		if vulndb.IsUnavailable(err) {
			monitoring.EnrichmentUnavailable.Inc()
			slog.Debug("external record unavailable, keeping prior state", "vulnerability", vulnerability.Name, "err", err)
			return vulnerability, false, nil
		}
		return models.Vulnerability{}, false, err
	}

	applyExternalRecord(&vulnerability, fetched)
	now := service.clock.Now()
	vulnerability.UpdatedDate = &now

	err = service.vulnerabilityRepository.Transaction(func(tx shared.DB) error {
		if err := service.vulnerabilityRepository.Save(tx, &vulnerability); err != nil {
			return err
		}
		return service.vulnerableConfigurationRepository.ReplaceForVulnerability(tx, vulnerability.Name, configurations)
	})
	if err != nil {
		return models.Vulnerability{}, false, errors.Wrap(err, "could not persist enriched vulnerability")
	}

	monitoring.EnrichmentSuccess.Inc()
	vulnerability.VulnerableConfigurations = configurations
	return vulnerability, true, nil
}

// needsRefresh compares calendar dates, not durations: an enrichment from
// 23:59 is still fresh at 00:01 the same day but stale the day after.
func (service *EnrichmentService) needsRefresh(vulnerability models.Vulnerability) bool {
	if vulnerability.UpdatedDate == nil {
		return true
	}

	y1, m1, d1 := vulnerability.UpdatedDate.Date()
	y2, m2, d2 := service.clock.Now().Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}

// applyExternalRecord copies the externally sourced fields only - name,
// timestamps of our own processing and all internal fields stay untouched.
func applyExternalRecord(vulnerability *models.Vulnerability, fetched models.Vulnerability) {
	vulnerability.Description = fetched.Description
	vulnerability.Severity = fetched.Severity
	vulnerability.Vector = fetched.Vector
	vulnerability.BaseScore = fetched.BaseScore
	vulnerability.ExploitabilityScore = fetched.ExploitabilityScore
	vulnerability.ImpactScore = fetched.ImpactScore
	vulnerability.Weaknesses = fetched.Weaknesses
	vulnerability.References = fetched.References
	vulnerability.DatePublished = fetched.DatePublished
	vulnerability.DateLastModified = fetched.DateLastModified
}
