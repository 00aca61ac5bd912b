package models

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// VulnerableConfiguration is one affected-software version range of a
// vulnerability: a CPE criteria string plus an optional inclusive lower and
// exclusive upper version bound. The rows of a vulnerability are replaced
// wholesale on every successful enrichment - they are never patched in place.
type VulnerableConfiguration struct {
	ID uuid.UUID `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid();"`

	VulnerabilityName string `json:"vulnerabilityName" gorm:"not null;type:text;index;"`

	Criteria              string  `json:"criteria" gorm:"type:text;not null;"`
	VersionStartIncluding *string `json:"versionStartIncluding" gorm:"type:text;"`
	VersionEndExcluding   *string `json:"versionEndExcluding" gorm:"type:text;"`
}

func (m VulnerableConfiguration) TableName() string {
	return "vulnerable_configurations"
}

// AppliesTo checks whether a discovered component falls into this
// configuration. Without any bounds the criteria string alone decides
// (exact-match mode). With bounds the version has to satisfy
// start <= version < end under segment-wise version ordering.
func (m VulnerableConfiguration) AppliesTo(criteria, version string) bool {
	start := dereference(m.VersionStartIncluding)
	end := dereference(m.VersionEndExcluding)

	if start == "" && end == "" {
		return m.Criteria == criteria
	}

	if start != "" && CompareVersions(version, start) < 0 {
		return false
	}
	if end != "" && CompareVersions(version, end) >= 0 {
		return false
	}
	return true
}

func dereference(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CompareVersions compares two versions field by field as dot-separated
// numeric segments. A missing segment counts as zero, so "1.2" == "1.2.0".
// Non-numeric segments fall back to lexicographic ordering.
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}

	for i := 0; i < n; i++ {
		av, bv := "0", "0"
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}

		an, aerr := strconv.Atoi(av)
		bn, berr := strconv.Atoi(bv)
		if aerr != nil || berr != nil {
			if cmp := strings.Compare(av, bv); cmp != 0 {
				return cmp
			}
			continue
		}

		if an != bn {
			if an < bn {
				return -1
			}
			return 1
		}
	}
	return 0
}
