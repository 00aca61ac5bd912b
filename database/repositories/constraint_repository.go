package repositories

import (
	"github.com/IDEAS-AI-Vulns/ai-vulns/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type constraintRepository struct {
	db *gorm.DB
	*GormRepository[uuid.UUID, models.Constraint]
}

func NewConstraintRepository(db *gorm.DB) *constraintRepository {
	return &constraintRepository{
		db:             db,
		GormRepository: newGormRepository[uuid.UUID, models.Constraint](db),
	}
}

// definition order is creation order - the evaluation engine relies on it for
// a deterministic rationale
func (r *constraintRepository) All() ([]models.Constraint, error) {
	var constraints []models.Constraint
	err := r.db.Order("created_at ASC").Find(&constraints).Error
	return constraints, err
}

func (r *constraintRepository) FindByVulnerability(vulnerabilityName string) ([]models.Constraint, error) {
	var constraints []models.Constraint
	err := r.db.
		Joins("JOIN vulnerability_constraints vc ON vc.constraint_id = constraints.id").
		Where("vc.vulnerability_name = ?", vulnerabilityName).
		Order("constraints.created_at ASC").
		Find(&constraints).Error
	return constraints, err
}

func (r *constraintRepository) AttachToVulnerability(tx *gorm.DB, constraintID uuid.UUID, vulnerabilityName string) error {
	return r.GetDB(tx).
		Model(&models.Vulnerability{Name: vulnerabilityName}).
		Association("Constraints").
		Append(&models.Constraint{ID: constraintID})
}
