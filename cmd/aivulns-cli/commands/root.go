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
	"os"

	"github.com/IDEAS-AI-Vulns/ai-vulns/database"
	"github.com/IDEAS-AI-Vulns/ai-vulns/shared"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aivulns-cli",
	Short: "Management cli",
	Long:  `The aivulns cli can be used to manage the vulnerability enrichment and constraint engine.`,
}

func GetRootCmd() *cobra.Command {
	return rootCmd
}

func bootstrapDB() (shared.DB, error) {
	shared.LoadConfig() // nolint

	db, err := shared.DatabaseFactory()
	if err != nil {
		return nil, err
	}

	if os.Getenv("DISABLE_AUTOMIGRATE") != "true" {
		if err := database.AutoMigrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}
