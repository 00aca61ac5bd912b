package repositories

import (
	"github.com/IDEAS-AI-Vulns/ai-vulns/database/models"
	"gorm.io/gorm"
)

type configRepository struct {
	db *gorm.DB
	*GormRepository[string, models.Config]
}

func NewConfigRepository(db *gorm.DB) *configRepository {
	return &configRepository{
		db:             db,
		GormRepository: newGormRepository[string, models.Config](db),
	}
}
