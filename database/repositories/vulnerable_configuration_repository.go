package repositories

import (
	"github.com/IDEAS-AI-Vulns/ai-vulns/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type vulnerableConfigurationRepository struct {
	db *gorm.DB
	*GormRepository[uuid.UUID, models.VulnerableConfiguration]
}

func NewVulnerableConfigurationRepository(db *gorm.DB) *vulnerableConfigurationRepository {
	return &vulnerableConfigurationRepository{
		db:             db,
		GormRepository: newGormRepository[uuid.UUID, models.VulnerableConfiguration](db),
	}
}

// ReplaceForVulnerability swaps the complete configuration set. The caller
// has to pass its transaction - deleting without inserting would leave the
// vulnerability without any version ranges.
func (r *vulnerableConfigurationRepository) ReplaceForVulnerability(tx *gorm.DB, vulnerabilityName string, configurations []models.VulnerableConfiguration) error {
	if err := r.GetDB(tx).Where("vulnerability_name = ?", vulnerabilityName).Delete(&models.VulnerableConfiguration{}).Error; err != nil {
		return err
	}

	for i := range configurations {
		configurations[i].VulnerabilityName = vulnerabilityName
	}
	return r.CreateBatch(tx, configurations)
}
