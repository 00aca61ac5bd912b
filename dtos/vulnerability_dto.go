package dtos

import (
	"time"

	"github.com/IDEAS-AI-Vulns/ai-vulns/database/models"
	"github.com/IDEAS-AI-Vulns/ai-vulns/utils"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type VulnerableConfigurationDTO struct {
	ID                    uuid.UUID `json:"id"`
	Criteria              string    `json:"criteria"`
	VersionStartIncluding *string   `json:"versionStartIncluding"`
	VersionEndExcluding   *string   `json:"versionEndExcluding"`
}

type VulnerabilityDTO struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`

	Severity            models.Severity `json:"severity"`
	Vector              string          `json:"vector"`
	BaseScore           string          `json:"baseScore"`
	ExploitabilityScore float32         `json:"exploitabilityScore"`
	ImpactScore         float32         `json:"impactScore"`

	Weaknesses string         `json:"weaknesses"`
	References datatypes.JSON `json:"references"`

	DatePublished    *time.Time `json:"datePublished"`
	DateLastModified *time.Time `json:"dateLastModified"`
	UpdatedDate      *time.Time `json:"updatedDate"`

	VulnerableConfigurations []VulnerableConfigurationDTO `json:"vulnerableConfigurations"`
}

func VulnerabilityToDTO(vulnerability models.Vulnerability) VulnerabilityDTO {
	return VulnerabilityDTO{
		Name:           vulnerability.Name,
		Description:    vulnerability.Description,
		Recommendation: vulnerability.Recommendation,

		Severity:            vulnerability.Severity,
		Vector:              vulnerability.Vector,
		BaseScore:           vulnerability.BaseScore,
		ExploitabilityScore: vulnerability.ExploitabilityScore,
		ImpactScore:         vulnerability.ImpactScore,

		Weaknesses: vulnerability.Weaknesses,
		References: vulnerability.References,

		DatePublished:    vulnerability.DatePublished,
		DateLastModified: vulnerability.DateLastModified,
		UpdatedDate:      vulnerability.UpdatedDate,

		VulnerableConfigurations: utils.Map(vulnerability.VulnerableConfigurations, func(configuration models.VulnerableConfiguration) VulnerableConfigurationDTO {
			return VulnerableConfigurationDTO{
				ID:                    configuration.ID,
				Criteria:              configuration.Criteria,
				VersionStartIncluding: configuration.VersionStartIncluding,
				VersionEndExcluding:   configuration.VersionEndExcluding,
			}
		}),
	}
}
