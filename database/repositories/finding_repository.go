package repositories

import (
	"github.com/IDEAS-AI-Vulns/ai-vulns/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type findingRepository struct {
	db *gorm.DB
	*GormRepository[uuid.UUID, models.Finding]
}

func NewFindingRepository(db *gorm.DB) *findingRepository {
	return &findingRepository{
		db:             db,
		GormRepository: newGormRepository[uuid.UUID, models.Finding](db),
	}
}

func (r *findingRepository) FindByVulnerability(vulnerabilityName string) ([]models.Finding, error) {
	var findings []models.Finding
	err := r.db.Where("vulnerability_name = ?", vulnerabilityName).Order("created_at ASC").Find(&findings).Error
	return findings, err
}
