package vulndb

import (
	"encoding/json"
	"testing"

	"github.com/IDEAS-AI-Vulns/ai-vulns/database/models"
	"github.com/IDEAS-AI-Vulns/ai-vulns/utils"
	"github.com/stretchr/testify/assert"
)

func completeRecord() nvdCVE {
	var record nvdCVE
	err := json.Unmarshal([]byte(`{
		"id": "CVE-2023-1234",
		"published": "2023-03-06T23:15:11.203",
		"lastModified": "2023-03-13T16:02:47.930",
		"descriptions": [
			{"lang": "es", "value": "Desbordamiento de buffer."},
			{"lang": "en", "value": "Heap-based buffer overflow in the parser."}
		],
		"metrics": {
			"cvssMetricV31": [{
				"cvssData": {
					"version": "3.1",
					"vectorString": "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
					"baseScore": 9.8,
					"baseSeverity": "CRITICAL"
				},
				"exploitabilityScore": 3.9,
				"impactScore": 5.9
			}],
			"cvssMetricV2": [{
				"cvssData": {"version": "2.0", "vectorString": "AV:N/AC:L/Au:N/C:P/I:P/A:P", "baseScore": 7.5},
				"baseSeverity": "HIGH"
			}]
		},
		"weaknesses": [
			{"description": [{"lang": "en", "value": "CWE-787"}]},
			{"description": [{"lang": "en", "value": "CWE-122"}, {"lang": "en", "value": "CWE-787"}]},
			{"description": [{"lang": "en", "value": "NVD-CWE-noinfo"}]}
		],
		"configurations": [{
			"nodes": [{
				"operator": "OR",
				"negate": false,
				"cpeMatch": [{
					"vulnerable": true,
					"criteria": "cpe:2.3:a:example:parser:*:*:*:*:*:*:*:*",
					"versionEndExcluding": "2.0.0",
					"matchCriteriaId": "F1A2"
				}]
			}]
		}]
	}`), &record)
	if err != nil {
		panic(err)
	}
	return record
}

func TestFromNVDCVE(t *testing.T) {
	t.Run("should map a complete record", func(t *testing.T) {
		vulnerability, configurations, err := fromNVDCVE(completeRecord())

		assert.NoError(t, err)
		assert.Equal(t, "CVE-2023-1234", vulnerability.Name)
		assert.Equal(t, "Heap-based buffer overflow in the parser.", vulnerability.Description)
		assert.Equal(t, models.SeverityCritical, vulnerability.Severity)
		assert.Equal(t, "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H", vulnerability.Vector)
		assert.Equal(t, "9.8", vulnerability.BaseScore)
		assert.Equal(t, float32(3.9), vulnerability.ExploitabilityScore)
		assert.Equal(t, float32(5.9), vulnerability.ImpactScore)
		assert.Equal(t, "CWE-787;CWE-122", vulnerability.Weaknesses)
		assert.NotNil(t, vulnerability.DatePublished)
		assert.NotNil(t, vulnerability.DateLastModified)

		assert.Len(t, configurations, 1)
		assert.Equal(t, "CVE-2023-1234", configurations[0].VulnerabilityName)
		assert.Equal(t, "cpe:2.3:a:example:parser:*:*:*:*:*:*:*:*", configurations[0].Criteria)
		assert.Nil(t, configurations[0].VersionStartIncluding)
		assert.Equal(t, "2.0.0", utils.SafeDereference(configurations[0].VersionEndExcluding))
	})

	t.Run("should fall back to cvss v2 when no v3 metric exists", func(t *testing.T) {
		record := completeRecord()
		record.Metrics.CvssMetricV31 = nil

		vulnerability, _, err := fromNVDCVE(record)

		assert.NoError(t, err)
		assert.Equal(t, models.SeverityHigh, vulnerability.Severity)
		assert.Equal(t, "AV:N/AC:L/Au:N/C:P/I:P/A:P", vulnerability.Vector)
		assert.Equal(t, "7.5", vulnerability.BaseScore)
	})

	t.Run("should reject a record without a description", func(t *testing.T) {
		record := completeRecord()
		record.Descriptions = nil

		_, _, err := fromNVDCVE(record)

		assert.ErrorIs(t, err, ErrMalformedCVE)
		assert.True(t, IsUnavailable(err))
	})

	t.Run("should reject a record without an id", func(t *testing.T) {
		record := completeRecord()
		record.ID = ""

		_, _, err := fromNVDCVE(record)

		assert.ErrorIs(t, err, ErrMalformedCVE)
	})

	t.Run("should skip negated configuration nodes", func(t *testing.T) {
		record := completeRecord()
		record.Configurations[0].Nodes[0].Negate = true

		_, configurations, err := fromNVDCVE(record)

		assert.NoError(t, err)
		assert.Empty(t, configurations)
	})

	t.Run("should skip non vulnerable matches", func(t *testing.T) {
		record := completeRecord()
		record.Configurations[0].Nodes[0].CpeMatch[0].Vulnerable = false

		_, configurations, err := fromNVDCVE(record)

		assert.NoError(t, err)
		assert.Empty(t, configurations)
	})

	t.Run("should skip a range whose lower bound is not below its upper bound", func(t *testing.T) {
		record := completeRecord()
		record.Configurations[0].Nodes[0].CpeMatch[0].VersionStartIncluding = "2.0.0"
		record.Configurations[0].Nodes[0].CpeMatch[0].VersionEndExcluding = "1.0.0"

		_, configurations, err := fromNVDCVE(record)

		assert.NoError(t, err)
		assert.Empty(t, configurations)
	})

	t.Run("should deduplicate matches repeated across nodes", func(t *testing.T) {
		record := completeRecord()
		record.Configurations = append(record.Configurations, record.Configurations[0])

		_, configurations, err := fromNVDCVE(record)

		assert.NoError(t, err)
		assert.Len(t, configurations, 1)
	})

	t.Run("should leave the metric fields empty when the record has no metrics", func(t *testing.T) {
		record := completeRecord()
		record.Metrics.CvssMetricV31 = nil
		record.Metrics.CvssMetricV2 = nil

		vulnerability, _, err := fromNVDCVE(record)

		assert.NoError(t, err)
		assert.Empty(t, vulnerability.Vector)
		assert.Empty(t, vulnerability.BaseScore)
		assert.Empty(t, string(vulnerability.Severity))
	})
}
