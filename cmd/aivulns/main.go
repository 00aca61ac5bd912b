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

package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/IDEAS-AI-Vulns/ai-vulns/controllers"
	"github.com/IDEAS-AI-Vulns/ai-vulns/database"
	"github.com/IDEAS-AI-Vulns/ai-vulns/database/repositories"
	"github.com/IDEAS-AI-Vulns/ai-vulns/router"
	"github.com/IDEAS-AI-Vulns/ai-vulns/services"
	"github.com/IDEAS-AI-Vulns/ai-vulns/shared"
	"github.com/IDEAS-AI-Vulns/ai-vulns/vulndb"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "github.com/lib/pq"
)

var release string // Will be filled at build time

func main() {
	shared.LoadConfig() // nolint: errcheck
	shared.InitLogger()

	if os.Getenv("ERROR_TRACKING_DSN") != "" {
		initSentry()

		// Catch panics
		defer func() {
			if err := recover(); err != nil {
				sentry.CurrentHub().Recover(err)
				// Wait for events to be send to server
				sentry.Flush(time.Second * 5)
			}
		}()
	}

	db, err := shared.DatabaseFactory()
	if err != nil {
		slog.Error("failed to setup database connection", "err", err)
		os.Exit(1)
	}

	if os.Getenv("DISABLE_AUTOMIGRATE") != "true" {
		slog.Info("running database migrations...")
		if err := database.AutoMigrate(db); err != nil {
			slog.Error("failed to run database migrations", "err", err)
			os.Exit(1)
		}
	}

	vulnerabilityRepository := repositories.NewVulnerabilityRepository(db)
	vulnerableConfigurationRepository := repositories.NewVulnerableConfigurationRepository(db)
	constraintRepository := repositories.NewConstraintRepository(db)
	findingRepository := repositories.NewFindingRepository(db)

	configService := services.NewConfigService(db)
	credentials := configService.GetNVDCredentials()
	nvdService := vulndb.NewNVDService(credentials.APIKey, credentials.BaseURL)

	enrichmentService := services.NewEnrichmentService(
		vulnerabilityRepository,
		vulnerableConfigurationRepository,
		nvdService,
		shared.SystemClock{},
	)
	constraintService := services.NewConstraintService(
		vulnerabilityRepository,
		constraintRepository,
		findingRepository,
	)

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	router.NewAPIV1Router(
		e,
		db,
		controllers.NewEnrichmentController(enrichmentService),
		controllers.NewConstraintController(constraintRepository, constraintService),
	)

	slog.Error("failed to start server", "err", e.Start(":8080").Error())
}

func initSentry() {
	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = "dev"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         os.Getenv("ERROR_TRACKING_DSN"),
		Environment: environment,
		Release:     release,

		Debug: environment == "dev",

		AttachStacktrace: true,

		// If this flag is enabled, certain personally identifiable information (PII) is added by active integrations.
		// By default, no such data is sent.
		SendDefaultPII: false,
	})
	if err != nil {
		slog.Error("failed to init error tracking", "err", err)
	}
}
