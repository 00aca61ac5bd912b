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

package shared

import (
	"github.com/IDEAS-AI-Vulns/ai-vulns/database/models"
	"github.com/google/uuid"
)

type VulnerabilityRepository interface {
	All() ([]models.Vulnerability, error)
	FindByName(name string) (models.Vulnerability, error)
	AllWithCVEPrefix() ([]models.Vulnerability, error)
	Save(tx DB, vulnerability *models.Vulnerability) error
	Transaction(fn func(tx DB) error) error
	GetDB(tx DB) DB
}

type VulnerableConfigurationRepository interface {
	// ReplaceForVulnerability swaps the whole configuration set of a
	// vulnerability. Must run inside the caller's transaction - a partial
	// replacement is a consistency violation.
	ReplaceForVulnerability(tx DB, vulnerabilityName string, configurations []models.VulnerableConfiguration) error
}

type ConstraintRepository interface {
	All() ([]models.Constraint, error)
	Create(tx DB, constraint *models.Constraint) error
	// FindByVulnerability returns the constraints attached to a
	// vulnerability in definition order.
	FindByVulnerability(vulnerabilityName string) ([]models.Constraint, error)
	AttachToVulnerability(tx DB, constraintID uuid.UUID, vulnerabilityName string) error
}

type ConfigRepository interface {
	Save(tx DB, config *models.Config) error
	GetDB(tx DB) DB
}

type FindingRepository interface {
	FindByVulnerability(vulnerabilityName string) ([]models.Finding, error)
	Save(tx DB, finding *models.Finding) error
}

type VulnerabilityEnricher interface {
	EnrichOne(name string) (models.Vulnerability, error)
	EnrichAllEligible() ([]models.Vulnerability, error)
}

type CVEFetcher interface {
	FetchCVEWithRetry(cveID string) (models.Vulnerability, []models.VulnerableConfiguration, error)
}

type ConstraintEvaluator interface {
	EvaluateForVulnerability(vulnerabilityName string) (EvaluationReport, error)
	ReevaluateAll() error
}

type EvaluationReport struct {
	VulnerabilityName string  `json:"vulnerabilityName"`
	Probability       float64 `json:"probability"`
	Exploitable       bool    `json:"exploitable"`
	Rationale         string  `json:"rationale"`

	AppliedConstraints []uuid.UUID `json:"appliedConstraints"`
}
