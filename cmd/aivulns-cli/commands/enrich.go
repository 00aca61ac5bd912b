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

package commands

import (
	"log/slog"
	"time"

	"github.com/IDEAS-AI-Vulns/ai-vulns/database/repositories"
	"github.com/IDEAS-AI-Vulns/ai-vulns/services"
	"github.com/IDEAS-AI-Vulns/ai-vulns/shared"
	"github.com/IDEAS-AI-Vulns/ai-vulns/vulndb"
	"github.com/spf13/cobra"
)

func newEnrichmentService(db shared.DB) *services.EnrichmentService {
	credentials := services.NewConfigService(db).GetNVDCredentials()
	return services.NewEnrichmentService(
		repositories.NewVulnerabilityRepository(db),
		repositories.NewVulnerableConfigurationRepository(db),
		vulndb.NewNVDService(credentials.APIKey, credentials.BaseURL),
		shared.SystemClock{},
	)
}

func NewEnrichCommand() *cobra.Command {
	enrichCmd := cobra.Command{
		Use:   "enrich [cve-id...]",
		Short: "Enrich vulnerabilities from the national vulnerability database",
		Long: `Refreshes the given vulnerabilities from the national vulnerability database.
Without arguments every CVE named vulnerability which was not already enriched today gets refreshed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := bootstrapDB()
			if err != nil {
				return err
			}
			enrichmentService := newEnrichmentService(db)

			now := time.Now()
			if len(args) == 0 {
				enriched, err := enrichmentService.EnrichAllEligible()
				if err != nil {
					return err
				}
				slog.Info("finished batch enrichment", "vulnerabilities", len(enriched), "duration", time.Since(now))
				return nil
			}

			for _, name := range args {
				if _, err := enrichmentService.EnrichOne(name); err != nil {
					slog.Error("could not enrich vulnerability", "vulnerability", name, "err", err)
					continue
				}
				slog.Info("enriched vulnerability", "vulnerability", name)
			}
			slog.Info("finished enrichment", "duration", time.Since(now))
			return nil
		},
	}
	return &enrichCmd
}
