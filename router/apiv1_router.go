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

package router

import (
	"github.com/IDEAS-AI-Vulns/ai-vulns/controllers"
	"github.com/IDEAS-AI-Vulns/ai-vulns/shared"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type APIV1Router struct {
	*echo.Group
}

func NewAPIV1Router(
	e *echo.Echo,
	db shared.DB,
	enrichmentController *controllers.EnrichmentController,
	constraintController *controllers.ConstraintController,
) APIV1Router {
	apiV1Router := e.Group("/api/v1")

	nvdRouter := apiV1Router.Group("/nvd")
	nvdRouter.GET("", enrichmentController.EnrichAll)
	nvdRouter.GET("/:name", enrichmentController.Enrich)

	constraintRouter := apiV1Router.Group("/constraints")
	constraintRouter.GET("", constraintController.List)
	constraintRouter.POST("", constraintController.Create)
	constraintRouter.GET("/update", constraintController.Update)
	constraintRouter.GET("/evaluate/:name", constraintController.Evaluate)

	apiV1Router.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	apiV1Router.GET("/health", func(ctx echo.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return ctx.JSON(503, map[string]string{
				"status": "unhealthy",
				"error":  "failed to get database instance",
			})
		}
		if err := sqlDB.Ping(); err != nil {
			return ctx.JSON(503, map[string]string{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
		}
		return ctx.JSON(200, map[string]string{"status": "ok"})
	})

	return APIV1Router{Group: apiV1Router}
}
