package models

import (
	"time"

	"github.com/google/uuid"
)

// Finding references a vulnerability discovered in a scanned artifact. The
// constraint engine writes its adjusted judgment onto it - the engine itself
// never creates or deletes findings.
type Finding struct {
	ID uuid.UUID `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid();"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	VulnerabilityName string        `json:"vulnerabilityName" gorm:"not null;type:text;index;"`
	Vulnerability     Vulnerability `json:"-" gorm:"foreignKey:VulnerabilityName;references:Name;"`

	Location    string `json:"location" gorm:"type:text;"`
	Explanation string `json:"explanation" gorm:"type:text;"`

	// adjusted judgment, written by the constraint engine
	Probability *float64 `json:"probability" gorm:"type:decimal(4,3);"`
	Exploitable *bool    `json:"exploitable"`
	Rationale   string   `json:"rationale" gorm:"type:text;"`
}

func (m Finding) TableName() string {
	return "findings"
}
