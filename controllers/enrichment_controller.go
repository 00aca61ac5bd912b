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

package controllers

import (
	"github.com/IDEAS-AI-Vulns/ai-vulns/dtos"
	"github.com/IDEAS-AI-Vulns/ai-vulns/shared"
	"github.com/IDEAS-AI-Vulns/ai-vulns/utils"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type EnrichmentController struct {
	enricher shared.VulnerabilityEnricher
}

func NewEnrichmentController(enricher shared.VulnerabilityEnricher) *EnrichmentController {
	return &EnrichmentController{
		enricher: enricher,
	}
}

// Enrich refreshes a single vulnerability from the external database and
// returns its current state. An unavailable external record is not an error -
// the prior state comes back.
func (c EnrichmentController) Enrich(ctx shared.Context) error {
	vulnerability, err := c.enricher.EnrichOne(ctx.Param("name"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(404, "vulnerability not found")
		}
		return echo.NewHTTPError(500, "could not enrich vulnerability").WithInternal(err)
	}

	return ctx.JSON(200, dtos.VulnerabilityToDTO(vulnerability))
}

// EnrichAll refreshes every eligible vulnerability and returns the resulting
// states.
func (c EnrichmentController) EnrichAll(ctx shared.Context) error {
	vulnerabilities, err := c.enricher.EnrichAllEligible()
	if err != nil {
		return echo.NewHTTPError(500, "could not enrich vulnerabilities").WithInternal(err)
	}

	return ctx.JSON(200, utils.Map(vulnerabilities, dtos.VulnerabilityToDTO))
}
