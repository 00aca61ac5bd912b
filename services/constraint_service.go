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
	"strconv"
	"strings"

	"github.com/IDEAS-AI-Vulns/ai-vulns/database/models"
	"github.com/IDEAS-AI-Vulns/ai-vulns/monitoring"
	"github.com/IDEAS-AI-Vulns/ai-vulns/shared"
	"github.com/IDEAS-AI-Vulns/ai-vulns/utils"
	"github.com/google/uuid"
	gocvss20 "github.com/pandatix/go-cvss/20"
	gocvss30 "github.com/pandatix/go-cvss/30"
	gocvss31 "github.com/pandatix/go-cvss/31"
	"github.com/pkg/errors"
)

const (
	// every applicable constraint narrows the exploitation probability by
	// this factor. Constraints can only narrow, never widen.
	narrowingFactor = 0.85
	// findings at or above this adjusted probability count as exploitable
	exploitableThreshold = 0.5

	evaluationConcurrency = 10
)

// ConstraintService evaluates the applicability constraints attached to
// vulnerabilities and writes the outcome onto the findings.
type ConstraintService struct {
	vulnerabilityRepository shared.VulnerabilityRepository
	constraintRepository    shared.ConstraintRepository
	findingRepository       shared.FindingRepository
}

func NewConstraintService(
	vulnerabilityRepository shared.VulnerabilityRepository,
	constraintRepository shared.ConstraintRepository,
	findingRepository shared.FindingRepository,
) *ConstraintService {
	return &ConstraintService{
		vulnerabilityRepository: vulnerabilityRepository,
		constraintRepository:    constraintRepository,
		findingRepository:       findingRepository,
	}
}

// baselineProbability derives the starting probability from the CVSS vector.
// Falls back to the stored base score text when the vector is absent or does
// not parse.
func baselineProbability(vulnerability models.Vulnerability) float64 {
	vector := vulnerability.Vector
	switch {
	case strings.HasPrefix(vector, "CVSS:3.0"):
		if cvss, err := gocvss30.ParseVector(vector); err == nil {
			return cvss.BaseScore() / 10
		}
	case strings.HasPrefix(vector, "CVSS:3.1"):
		if cvss, err := gocvss31.ParseVector(vector); err == nil {
			return cvss.BaseScore() / 10
		}
	case vector != "":
		if cvss, err := gocvss20.ParseVector(vector); err == nil {
			return cvss.BaseScore() / 10
		}
	}

	if score, err := strconv.ParseFloat(vulnerability.BaseScore, 64); err == nil && score >= 0 && score <= 10 {
		return score / 10
	}

	slog.Warn("vulnerability has no usable score, assuming zero probability", "vulnerability", vulnerability.Name)
	return 0
}

// Evaluate is the pure core of the engine. Constraints are applied in
// definition order and each one multiplies the running probability by the
// narrowing factor. The rationale collects the texts of the constraints that
// actually altered the outcome. Same input, byte identical output.
func Evaluate(vulnerability models.Vulnerability, constraints []models.Constraint) shared.EvaluationReport {
	probability := baselineProbability(vulnerability)

	applied := []uuid.UUID{}
	rationale := []string{}
	for _, constraint := range constraints {
		adjusted := probability * narrowingFactor
		if adjusted != probability {
			applied = append(applied, constraint.ID)
			rationale = append(rationale, constraint.Text)
		}
		probability = adjusted
	}

	// two decimals, truncating - keeps repeated evaluations byte identical
	probability = float64(int(probability*100)) / 100

	return shared.EvaluationReport{
		VulnerabilityName:  vulnerability.Name,
		Probability:        probability,
		Exploitable:        probability >= exploitableThreshold,
		Rationale:          strings.Join(rationale, "; "),
		AppliedConstraints: applied,
	}
}

// EvaluateForVulnerability evaluates one vulnerability and persists the
// outcome onto its findings.
func (service *ConstraintService) EvaluateForVulnerability(vulnerabilityName string) (shared.EvaluationReport, error) {
	vulnerability, err := service.vulnerabilityRepository.FindByName(vulnerabilityName)
	if err != nil {
		return shared.EvaluationReport{}, err
	}

	constraints, err := service.constraintRepository.FindByVulnerability(vulnerabilityName)
	if err != nil {
		return shared.EvaluationReport{}, errors.Wrap(err, "could not load constraints")
	}

	report := Evaluate(vulnerability, constraints)
	monitoring.ConstraintEvaluations.Inc()

	if err := service.persistReport(report); err != nil {
		return shared.EvaluationReport{}, err
	}
	return report, nil
}

// ReevaluateAll refreshes the constraint outcome of every vulnerability. The
// operation is idempotent - running it twice in a row changes nothing.
func (service *ConstraintService) ReevaluateAll() error {
	vulnerabilities, err := service.vulnerabilityRepository.All()
	if err != nil {
		return errors.Wrap(err, "could not load vulnerabilities for reevaluation")
	}

	group := utils.ErrGroup[any](evaluationConcurrency)
	for _, vulnerability := range vulnerabilities {
		group.Go(func() (any, error) {
			_, err := service.EvaluateForVulnerability(vulnerability.Name)
			if err != nil {
				slog.Error("could not evaluate constraints", "vulnerability", vulnerability.Name, "err", err)
			}
			return nil, nil
		})
	}
	_, err = group.WaitAndCollect()
	return err
}

func (service *ConstraintService) persistReport(report shared.EvaluationReport) error {
	findings, err := service.findingRepository.FindByVulnerability(report.VulnerabilityName)
	if err != nil {
		return errors.Wrap(err, "could not load findings")
	}

	for i := range findings {
		findings[i].Probability = utils.Ptr(report.Probability)
		findings[i].Exploitable = utils.Ptr(report.Exploitable)
		findings[i].Rationale = report.Rationale
		if err := service.findingRepository.Save(nil, &findings[i]); err != nil {
			return errors.Wrap(err, "could not persist finding")
		}
	}
	return nil
}
