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

package repositories

import (
	"github.com/IDEAS-AI-Vulns/ai-vulns/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type vulnerabilityRepository struct {
	db *gorm.DB
	*GormRepository[string, models.Vulnerability]
}

func NewVulnerabilityRepository(db *gorm.DB) *vulnerabilityRepository {
	return &vulnerabilityRepository{
		db:             db,
		GormRepository: newGormRepository[string, models.Vulnerability](db),
	}
}

func (r *vulnerabilityRepository) FindByName(name string) (models.Vulnerability, error) {
	var vulnerability models.Vulnerability
	err := r.db.Preload("VulnerableConfigurations").First(&vulnerability, "name = ?", name).Error
	return vulnerability, err
}

// AllWithCVEPrefix returns the vulnerabilities eligible for enrichment -
// internally named findings never had a record in the external database.
// Configurations are preloaded so batch results carry the same shape as a
// single lookup.
func (r *vulnerabilityRepository) AllWithCVEPrefix() ([]models.Vulnerability, error) {
	var vulnerabilities []models.Vulnerability
	err := r.db.Preload("VulnerableConfigurations").Where("name LIKE ?", models.CVEPrefix+"%").Find(&vulnerabilities).Error
	return vulnerabilities, err
}

// Save upserts the vulnerability row itself. Associations are owned by their
// repositories and deliberately omitted here.
func (r *vulnerabilityRepository) Save(tx *gorm.DB, vulnerability *models.Vulnerability) error {
	return r.GetDB(tx).Omit(clause.Associations).Clauses(clause.OnConflict{UpdateAll: true}).Save(vulnerability).Error
}
