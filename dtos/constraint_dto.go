package dtos

import (
	"time"

	"github.com/IDEAS-AI-Vulns/ai-vulns/database/models"
	"github.com/google/uuid"
)

type ConstraintDTO struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Text      string    `json:"text"`
}

func ConstraintToDTO(constraint models.Constraint) ConstraintDTO {
	return ConstraintDTO{
		ID:        constraint.ID,
		CreatedAt: constraint.CreatedAt,
		Text:      constraint.Text,
	}
}

type CreateConstraintRequest struct {
	Text string `json:"text" validate:"required"`
	// names of the vulnerabilities the constraint applies to
	VulnerabilityNames []string `json:"vulnerabilityNames"`
}
