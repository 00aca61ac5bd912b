package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestCompareVersions(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.2.3", "1.2.3", 0},
		{"1.2", "1.2.0", 0},
		{"1.2.3", "1.2.4", -1},
		{"2.0.0", "1.9.9", 1},
		{"1.10.0", "1.9.0", 1},
		{"1", "1.0.1", -1},
		{"0.9", "1", -1},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CompareVersions(tc.a, tc.b), "CompareVersions(%q, %q)", tc.a, tc.b)
	}
}

func TestVulnerableConfigurationAppliesTo(t *testing.T) {
	criteria := "cpe:2.3:a:acme:widget"

	t.Run("no bounds requires exact criteria match", func(t *testing.T) {
		config := VulnerableConfiguration{Criteria: criteria}

		assert.True(t, config.AppliesTo(criteria, "1.0.0"))
		assert.False(t, config.AppliesTo("cpe:2.3:a:acme:other", "1.0.0"))
	})

	t.Run("only lower bound matches any version at or above it", func(t *testing.T) {
		config := VulnerableConfiguration{Criteria: criteria, VersionStartIncluding: strPtr("1.2.0")}

		assert.True(t, config.AppliesTo(criteria, "1.2.0"))
		assert.True(t, config.AppliesTo(criteria, "4.0"))
		assert.False(t, config.AppliesTo(criteria, "1.1.9"))
	})

	t.Run("only upper bound matches any version below it", func(t *testing.T) {
		config := VulnerableConfiguration{Criteria: criteria, VersionEndExcluding: strPtr("2.0.0")}

		assert.True(t, config.AppliesTo(criteria, "1.9.9"))
		assert.False(t, config.AppliesTo(criteria, "2.0.0"))
		assert.False(t, config.AppliesTo(criteria, "2.0.1"))
	})

	t.Run("both bounds form a half open range", func(t *testing.T) {
		config := VulnerableConfiguration{
			Criteria:              criteria,
			VersionStartIncluding: strPtr("1.0.0"),
			VersionEndExcluding:   strPtr("2.0.0"),
		}

		assert.True(t, config.AppliesTo(criteria, "1.0.0"))
		assert.True(t, config.AppliesTo(criteria, "1.5"))
		assert.False(t, config.AppliesTo(criteria, "0.9.9"))
		assert.False(t, config.AppliesTo(criteria, "2.0.0"))
	})

	t.Run("missing segments count as zero", func(t *testing.T) {
		config := VulnerableConfiguration{Criteria: criteria, VersionEndExcluding: strPtr("1.2")}

		assert.False(t, config.AppliesTo(criteria, "1.2.0"))
		assert.True(t, config.AppliesTo(criteria, "1.1.99"))
	})
}
