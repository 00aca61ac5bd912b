package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Vulnerability is identified by its public name - a CVE id for everything
// coming from the national vulnerability database, an internal name for
// findings which never got a CVE assigned. Only CVE named vulnerabilities are
// ever enriched.
type Vulnerability struct {
	Name string `json:"name" gorm:"primaryKey;not null;type:text;"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Description    string `json:"description" gorm:"type:text;"`
	Recommendation string `json:"recommendation" gorm:"type:text;"`

	Severity Severity `json:"severity"`
	Vector   string   `json:"vector" gorm:"type:text;"`
	// stored as text to avoid locale/precision drift of the external data.
	// must always parse as a decimal in [0.0, 10.0].
	BaseScore           string  `json:"baseScore" gorm:"type:text;"`
	ExploitabilityScore float32 `json:"exploitabilityScore" gorm:"type:decimal(4,2);"`
	ImpactScore         float32 `json:"impactScore" gorm:"type:decimal(4,2);"`

	// semicolon-joined CWE ids, flattened from the external weakness list
	Weaknesses string         `json:"weaknesses" gorm:"type:text;"`
	References datatypes.JSON `json:"references"`

	DatePublished    *time.Time `json:"datePublished"`
	DateLastModified *time.Time `json:"dateLastModified"`
	// time of the last successful enrichment. Never older than
	// DateLastModified - we stamp it with the processing time.
	UpdatedDate *time.Time `json:"updatedDate"`

	VulnerableConfigurations []VulnerableConfiguration `json:"vulnerableConfigurations" gorm:"foreignKey:VulnerabilityName;references:Name;constraint:OnDelete:CASCADE;"`
	Constraints              []Constraint              `json:"constraints" gorm:"many2many:vulnerability_constraints;"`
}

func (m Vulnerability) TableName() string {
	return "vulnerabilities"
}

const CVEPrefix = "CVE"

func (m Vulnerability) IsCVE() bool {
	return strings.HasPrefix(m.Name, CVEPrefix)
}
