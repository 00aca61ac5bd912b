package models

import (
	"time"

	"github.com/google/uuid"
)

// Constraint is a short natural-language assertion narrowing under which
// conditions a vulnerability actually applies, e.g. "only exploitable when
// the component is reachable from network input". Constraints are attached
// to vulnerabilities through an explicit join relation so reporting can
// audit which constraints fired.
type Constraint struct {
	ID uuid.UUID `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid();"`

	CreatedAt time.Time `json:"createdAt"`

	Text string `json:"text" gorm:"type:text;not null;"`

	Vulnerabilities []*Vulnerability `json:"-" gorm:"many2many:vulnerability_constraints;"`
}

func (m Constraint) TableName() string {
	return "constraints"
}
