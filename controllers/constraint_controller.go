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
	"github.com/IDEAS-AI-Vulns/ai-vulns/database/models"
	"github.com/IDEAS-AI-Vulns/ai-vulns/dtos"
	"github.com/IDEAS-AI-Vulns/ai-vulns/shared"
	"github.com/IDEAS-AI-Vulns/ai-vulns/utils"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ConstraintController struct {
	constraintRepository shared.ConstraintRepository
	evaluator            shared.ConstraintEvaluator
}

func NewConstraintController(constraintRepository shared.ConstraintRepository, evaluator shared.ConstraintEvaluator) *ConstraintController {
	return &ConstraintController{
		constraintRepository: constraintRepository,
		evaluator:            evaluator,
	}
}

func (c ConstraintController) List(ctx shared.Context) error {
	constraints, err := c.constraintRepository.All()
	if err != nil {
		return echo.NewHTTPError(500, "could not list constraints").WithInternal(err)
	}

	return ctx.JSON(200, utils.Map(constraints, dtos.ConstraintToDTO))
}

func (c ConstraintController) Create(ctx shared.Context) error {
	var req dtos.CreateConstraintRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(400, "unable to process request").WithInternal(err)
	}
	if err := shared.V.Struct(req); err != nil {
		return echo.NewHTTPError(400, err.Error())
	}

	constraint := models.Constraint{
		Text: req.Text,
	}
	if err := c.constraintRepository.Create(nil, &constraint); err != nil {
		return echo.NewHTTPError(500, "could not create constraint").WithInternal(err)
	}

	for _, vulnerabilityName := range req.VulnerabilityNames {
		if err := c.constraintRepository.AttachToVulnerability(nil, constraint.ID, vulnerabilityName); err != nil {
			return echo.NewHTTPError(500, "could not attach constraint to vulnerability").WithInternal(err)
		}
	}

	return ctx.JSON(201, dtos.ConstraintToDTO(constraint))
}

// Update re-evaluates all constraints over all vulnerabilities. Idempotent
// administrative refresh - safe to trigger at any time.
func (c ConstraintController) Update(ctx shared.Context) error {
	if err := c.evaluator.ReevaluateAll(); err != nil {
		return echo.NewHTTPError(500, "could not reevaluate constraints").WithInternal(err)
	}

	return ctx.JSON(200, map[string]string{"status": "ok"})
}

func (c ConstraintController) Evaluate(ctx shared.Context) error {
	report, err := c.evaluator.EvaluateForVulnerability(ctx.Param("name"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(404, "vulnerability not found")
		}
		return echo.NewHTTPError(500, "could not evaluate constraints").WithInternal(err)
	}

	return ctx.JSON(200, report)
}
