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
	"fmt"
	"log/slog"
	"time"

	"github.com/IDEAS-AI-Vulns/ai-vulns/database/models"
	"github.com/IDEAS-AI-Vulns/ai-vulns/database/repositories"
	"github.com/IDEAS-AI-Vulns/ai-vulns/services"
	"github.com/IDEAS-AI-Vulns/ai-vulns/shared"
	"github.com/spf13/cobra"
)

func NewConstraintsCommand() *cobra.Command {
	constraintsCmd := cobra.Command{
		Use:   "constraints",
		Short: "Manage applicability constraints",
		Long:  `Commands for listing, creating and evaluating the applicability constraints attached to vulnerabilities.`,
	}

	constraintsCmd.AddCommand(newConstraintsListCommand())
	constraintsCmd.AddCommand(newConstraintsAddCommand())
	constraintsCmd.AddCommand(newConstraintsEvaluateCommand())
	return &constraintsCmd
}

func newConstraintService(db shared.DB) *services.ConstraintService {
	return services.NewConstraintService(
		repositories.NewVulnerabilityRepository(db),
		repositories.NewConstraintRepository(db),
		repositories.NewFindingRepository(db),
	)
}

func newConstraintsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all constraints in definition order",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := bootstrapDB()
			if err != nil {
				return err
			}

			constraints, err := repositories.NewConstraintRepository(db).All()
			if err != nil {
				return err
			}

			for _, constraint := range constraints {
				fmt.Printf("%s\t%s\t%s\n", constraint.ID, constraint.CreatedAt.Format(time.DateOnly), constraint.Text)
			}
			return nil
		},
	}
}

func newConstraintsAddCommand() *cobra.Command {
	addCmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Create a constraint and optionally attach it to vulnerabilities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vulnerabilityNames, _ := cmd.Flags().GetStringArray("vulnerability")

			db, err := bootstrapDB()
			if err != nil {
				return err
			}
			constraintRepository := repositories.NewConstraintRepository(db)

			constraint := models.Constraint{Text: args[0]}
			if err := constraintRepository.Create(nil, &constraint); err != nil {
				return err
			}
			for _, vulnerabilityName := range vulnerabilityNames {
				if err := constraintRepository.AttachToVulnerability(nil, constraint.ID, vulnerabilityName); err != nil {
					return err
				}
			}

			slog.Info("created constraint", "id", constraint.ID, "attachedTo", len(vulnerabilityNames))
			return nil
		},
	}
	addCmd.Flags().StringArray("vulnerability", []string{}, "vulnerability names the constraint applies to")
	return addCmd
}

func newConstraintsEvaluateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Re-evaluate all constraints over all vulnerabilities",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := bootstrapDB()
			if err != nil {
				return err
			}

			now := time.Now()
			if err := newConstraintService(db).ReevaluateAll(); err != nil {
				return err
			}
			slog.Info("finished constraint evaluation", "duration", time.Since(now))
			return nil
		},
	}
}
