package vulndb

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/IDEAS-AI-Vulns/ai-vulns/database/models"
	"github.com/IDEAS-AI-Vulns/ai-vulns/utils"
)

type cvssMetric struct {
	Severity            models.Severity
	Vector              string
	BaseScore           float64
	ExploitabilityScore float64
	ImpactScore         float64
}

// prefer cvss v3.1 over v3.0 over v2 - newer metrics are the more accurate
// description of the vulnerability
func getCVSSMetric(nvdCVE *nvdCVE) cvssMetric {
	if len(nvdCVE.Metrics.CvssMetricV31) > 0 {
		m := nvdCVE.Metrics.CvssMetricV31[0]
		return cvssMetric{
			Severity:            models.Severity(strings.ToLower(m.CvssData.BaseSeverity)),
			Vector:              m.CvssData.VectorString,
			BaseScore:           m.CvssData.BaseScore,
			ExploitabilityScore: m.ExploitabilityScore,
			ImpactScore:         m.ImpactScore,
		}
	}

	if len(nvdCVE.Metrics.CvssMetricV30) > 0 {
		m := nvdCVE.Metrics.CvssMetricV30[0]
		return cvssMetric{
			Severity:            models.Severity(strings.ToLower(m.CvssData.BaseSeverity)),
			Vector:              m.CvssData.VectorString,
			BaseScore:           m.CvssData.BaseScore,
			ExploitabilityScore: m.ExploitabilityScore,
			ImpactScore:         m.ImpactScore,
		}
	}

	if len(nvdCVE.Metrics.CvssMetricV2) > 0 {
		m := nvdCVE.Metrics.CvssMetricV2[0]
		return cvssMetric{
			Severity:            models.Severity(strings.ToLower(m.BaseSeverity)),
			Vector:              m.CvssData.VectorString,
			BaseScore:           m.CvssData.BaseScore,
			ExploitabilityScore: m.ExploitabilityScore,
			ImpactScore:         m.ImpactScore,
		}
	}

	return cvssMetric{}
}

func getDescription(nvdCVE *nvdCVE) string {
	for _, description := range nvdCVE.Descriptions {
		if description.Lang == "en" {
			return description.Value
		}
	}
	if len(nvdCVE.Descriptions) > 0 {
		return nvdCVE.Descriptions[0].Value
	}
	return ""
}

func getWeaknesses(nvdCVE *nvdCVE) string {
	cwes := []string{}
	for _, weakness := range nvdCVE.Weaknesses {
		for _, description := range weakness.Description {
			if description.Lang != "en" {
				continue
			}
			if !strings.HasPrefix(description.Value, "CWE-") {
				continue
			}
			cwes = append(cwes, description.Value)
		}
	}

	return strings.Join(utils.UniqBy(cwes, func(cwe string) string {
		return cwe
	}), ";")
}

func getVulnerableConfigurations(nvdCVE *nvdCVE) []models.VulnerableConfiguration {
	configurations := []models.VulnerableConfiguration{}
	for _, configuration := range nvdCVE.Configurations {
		for _, node := range configuration.Nodes {
			if node.Negate {
				// negated nodes describe what is NOT affected
				continue
			}
			for _, match := range node.CpeMatch {
				if !match.Vulnerable || match.Criteria == "" {
					continue
				}

				if match.VersionStartIncluding != "" && match.VersionEndExcluding != "" &&
					models.CompareVersions(match.VersionStartIncluding, match.VersionEndExcluding) >= 0 {
					slog.Warn("skipping vulnerable configuration with an empty version range",
						"cveID", nvdCVE.ID,
						"criteria", match.Criteria,
						"versionStartIncluding", match.VersionStartIncluding,
						"versionEndExcluding", match.VersionEndExcluding)
					continue
				}

				configurations = append(configurations, models.VulnerableConfiguration{
					Criteria:              match.Criteria,
					VersionStartIncluding: utils.EmptyThenNil(match.VersionStartIncluding),
					VersionEndExcluding:   utils.EmptyThenNil(match.VersionEndExcluding),
				})
			}
		}
	}

	// the same match can show up in multiple nodes of the configuration tree
	return utils.UniqBy(configurations, func(c models.VulnerableConfiguration) string {
		return c.Criteria + "|" + utils.SafeDereference(c.VersionStartIncluding) + "|" + utils.SafeDereference(c.VersionEndExcluding)
	})
}

func parseDate(nvdCVE *nvdCVE, value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(utils.ISO8601Format, value)
	if err != nil {
		slog.Error("could not parse timestamp of external cve record", "cveID", nvdCVE.ID, "value", value, "err", err)
		return nil
	}
	return &t
}

// fromNVDCVE maps an external record onto the internal model. It only fills
// the externally sourced fields - the caller owns Name based identity merging
// and the UpdatedDate stamp.
func fromNVDCVE(nvdCVE nvdCVE) (models.Vulnerability, []models.VulnerableConfiguration, error) {
	description := getDescription(&nvdCVE)
	if nvdCVE.ID == "" || description == "" {
		return models.Vulnerability{}, nil, ErrMalformedCVE
	}

	metric := getCVSSMetric(&nvdCVE)
	baseScore := ""
	if metric.Vector != "" {
		if metric.BaseScore < 0 || metric.BaseScore > 10 {
			return models.Vulnerability{}, nil, ErrMalformedCVE
		}
		baseScore = strconv.FormatFloat(metric.BaseScore, 'f', -1, 64)
	}

	references, err := json.Marshal(nvdCVE.References)
	if err != nil {
		return models.Vulnerability{}, nil, ErrMalformedCVE
	}

	vulnerability := models.Vulnerability{
		Name:        nvdCVE.ID,
		Description: description,

		Severity:            metric.Severity,
		Vector:              metric.Vector,
		BaseScore:           baseScore,
		ExploitabilityScore: float32(metric.ExploitabilityScore),
		ImpactScore:         float32(metric.ImpactScore),

		Weaknesses: getWeaknesses(&nvdCVE),
		References: references,

		DatePublished:    parseDate(&nvdCVE, nvdCVE.Published),
		DateLastModified: parseDate(&nvdCVE, nvdCVE.LastModified),
	}

	configurations := getVulnerableConfigurations(&nvdCVE)
	for i := range configurations {
		configurations[i].VulnerabilityName = nvdCVE.ID
	}

	return vulnerability, configurations, nil
}
