package services

import (
	"sync"
	"testing"
	"time"

	"github.com/IDEAS-AI-Vulns/ai-vulns/database/models"
	"github.com/IDEAS-AI-Vulns/ai-vulns/shared"
	"github.com/IDEAS-AI-Vulns/ai-vulns/utils"
	"github.com/IDEAS-AI-Vulns/ai-vulns/vulndb"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// fakeStore backs both the vulnerability and the configuration repository so
// a transaction can roll both back together.
type fakeStore struct {
	mut             sync.Mutex
	vulnerabilities map[string]models.Vulnerability
	configurations  map[string][]models.VulnerableConfiguration

	saveErr error
}

func newFakeStore(vulnerabilities ...models.Vulnerability) *fakeStore {
	store := &fakeStore{
		vulnerabilities: map[string]models.Vulnerability{},
		configurations:  map[string][]models.VulnerableConfiguration{},
	}
	for _, vulnerability := range vulnerabilities {
		store.vulnerabilities[vulnerability.Name] = vulnerability
		store.configurations[vulnerability.Name] = vulnerability.VulnerableConfigurations
	}
	return store
}

func (f *fakeStore) All() ([]models.Vulnerability, error) {
	f.mut.Lock()
	defer f.mut.Unlock()
	all := []models.Vulnerability{}
	for _, vulnerability := range f.vulnerabilities {
		all = append(all, vulnerability)
	}
	return all, nil
}

func (f *fakeStore) FindByName(name string) (models.Vulnerability, error) {
	f.mut.Lock()
	defer f.mut.Unlock()
	vulnerability, ok := f.vulnerabilities[name]
	if !ok {
		return models.Vulnerability{}, gorm.ErrRecordNotFound
	}
	vulnerability.VulnerableConfigurations = f.configurations[name]
	return vulnerability, nil
}

func (f *fakeStore) AllWithCVEPrefix() ([]models.Vulnerability, error) {
	f.mut.Lock()
	defer f.mut.Unlock()
	eligible := []models.Vulnerability{}
	for _, vulnerability := range f.vulnerabilities {
		if vulnerability.IsCVE() {
			vulnerability.VulnerableConfigurations = f.configurations[vulnerability.Name]
			eligible = append(eligible, vulnerability)
		}
	}
	return eligible, nil
}

func (f *fakeStore) Save(tx shared.DB, vulnerability *models.Vulnerability) error {
	f.mut.Lock()
	defer f.mut.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.vulnerabilities[vulnerability.Name] = *vulnerability
	return nil
}

func (f *fakeStore) Transaction(fn func(tx shared.DB) error) error {
	f.mut.Lock()
	vulnerabilitiesBefore := map[string]models.Vulnerability{}
	for name, vulnerability := range f.vulnerabilities {
		vulnerabilitiesBefore[name] = vulnerability
	}
	configurationsBefore := map[string][]models.VulnerableConfiguration{}
	for name, configurations := range f.configurations {
		configurationsBefore[name] = configurations
	}
	f.mut.Unlock()

	if err := fn(nil); err != nil {
		f.mut.Lock()
		f.vulnerabilities = vulnerabilitiesBefore
		f.configurations = configurationsBefore
		f.mut.Unlock()
		return err
	}
	return nil
}

func (f *fakeStore) GetDB(tx shared.DB) shared.DB {
	return tx
}

func (f *fakeStore) ReplaceForVulnerability(tx shared.DB, vulnerabilityName string, configurations []models.VulnerableConfiguration) error {
	f.mut.Lock()
	defer f.mut.Unlock()
	f.configurations[vulnerabilityName] = configurations
	return nil
}

type fakeFetcher struct {
	mut   sync.Mutex
	calls []string

	vulnerability  models.Vulnerability
	configurations []models.VulnerableConfiguration
	err            error
}

func (f *fakeFetcher) FetchCVEWithRetry(cveID string) (models.Vulnerability, []models.VulnerableConfiguration, error) {
	f.mut.Lock()
	f.calls = append(f.calls, cveID)
	f.mut.Unlock()
	if f.err != nil {
		return models.Vulnerability{}, nil, f.err
	}
	vulnerability := f.vulnerability
	vulnerability.Name = cveID
	return vulnerability, f.configurations, nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

var today = time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)

func staleVulnerability(name string) models.Vulnerability {
	yesterday := today.AddDate(0, 0, -1)
	return models.Vulnerability{
		Name:        name,
		Description: "prior description",
		UpdatedDate: &yesterday,
		VulnerableConfigurations: []models.VulnerableConfiguration{
			{Criteria: "cpe:2.3:a:prior:prior:*:*:*:*:*:*:*:*", VulnerabilityName: name},
		},
	}
}

func TestEnrichOne(t *testing.T) {
	t.Run("should not call the external database for a vulnerability enriched today", func(t *testing.T) {
		vulnerability := staleVulnerability("CVE-2023-1234")
		earlierToday := today.Add(-6 * time.Hour)
		vulnerability.UpdatedDate = &earlierToday

		fetcher := &fakeFetcher{}
		store := newFakeStore(vulnerability)
		service := NewEnrichmentService(store, store, fetcher, fixedClock{now: today})

		enriched, err := service.EnrichOne("CVE-2023-1234")

		assert.NoError(t, err)
		assert.Empty(t, fetcher.calls)
		assert.Equal(t, "prior description", enriched.Description)
	})

	t.Run("should refresh a stale vulnerability and stamp the enrichment time", func(t *testing.T) {
		fetcher := &fakeFetcher{
			vulnerability: models.Vulnerability{Description: "fresh description", Severity: models.SeverityCritical},
			configurations: []models.VulnerableConfiguration{
				{Criteria: "cpe:2.3:a:fresh:fresh:*:*:*:*:*:*:*:*", VersionEndExcluding: utils.Ptr("2.0.0")},
			},
		}
		store := newFakeStore(staleVulnerability("CVE-2023-1234"))
		service := NewEnrichmentService(store, store, fetcher, fixedClock{now: today})

		enriched, err := service.EnrichOne("CVE-2023-1234")

		assert.NoError(t, err)
		assert.Equal(t, []string{"CVE-2023-1234"}, fetcher.calls)
		assert.Equal(t, "fresh description", enriched.Description)
		assert.Equal(t, today, *enriched.UpdatedDate)
		// wholesale replacement of the configuration set
		assert.Len(t, store.configurations["CVE-2023-1234"], 1)
		assert.Equal(t, "cpe:2.3:a:fresh:fresh:*:*:*:*:*:*:*:*", store.configurations["CVE-2023-1234"][0].Criteria)
	})

	t.Run("should keep the prior state when the external record is unavailable", func(t *testing.T) {
		fetcher := &fakeFetcher{err: vulndb.ErrCVENotFound}
		store := newFakeStore(staleVulnerability("CVE-2023-1234"))
		service := NewEnrichmentService(store, store, fetcher, fixedClock{now: today})

		enriched, err := service.EnrichOne("CVE-2023-1234")

		assert.NoError(t, err)
		assert.Equal(t, "prior description", enriched.Description)
		// the failed attempt must not count as an enrichment
		assert.Equal(t, today.AddDate(0, 0, -1), *enriched.UpdatedDate)
	})

	t.Run("should keep the prior state when the external database keeps failing", func(t *testing.T) {
		fetcher := &fakeFetcher{err: &vulndb.TransportError{Err: errors.New("connection refused")}}
		store := newFakeStore(staleVulnerability("CVE-2023-1234"))
		service := NewEnrichmentService(store, store, fetcher, fixedClock{now: today})

		enriched, err := service.EnrichOne("CVE-2023-1234")

		assert.NoError(t, err)
		assert.Equal(t, "prior description", enriched.Description)
	})

	t.Run("should propagate a persistence failure and leave the prior configurations intact", func(t *testing.T) {
		fetcher := &fakeFetcher{
			vulnerability:  models.Vulnerability{Description: "fresh description"},
			configurations: []models.VulnerableConfiguration{{Criteria: "cpe:2.3:a:fresh:fresh:*:*:*:*:*:*:*:*"}},
		}
		store := newFakeStore(staleVulnerability("CVE-2023-1234"))
		store.saveErr = errors.New("disk full")
		service := NewEnrichmentService(store, store, fetcher, fixedClock{now: today})

		_, err := service.EnrichOne("CVE-2023-1234")

		assert.Error(t, err)
		stored, _ := store.FindByName("CVE-2023-1234")
		assert.Equal(t, "prior description", stored.Description)
		assert.Equal(t, "cpe:2.3:a:prior:prior:*:*:*:*:*:*:*:*", store.configurations["CVE-2023-1234"][0].Criteria)
	})

	t.Run("should report an unknown vulnerability", func(t *testing.T) {
		service := NewEnrichmentService(newFakeStore(), newFakeStore(), &fakeFetcher{}, fixedClock{now: today})

		_, err := service.EnrichOne("CVE-2023-9999")

		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestEnrichAllEligible(t *testing.T) {
	t.Run("should only enrich vulnerabilities carrying a cve name", func(t *testing.T) {
		fetcher := &fakeFetcher{vulnerability: models.Vulnerability{Description: "fresh description"}}
		store := newFakeStore(
			staleVulnerability("CVE-2023-1234"),
			staleVulnerability("INTERNAL-7"),
		)
		service := NewEnrichmentService(store, store, fetcher, fixedClock{now: today})

		enriched, err := service.EnrichAllEligible()

		assert.NoError(t, err)
		assert.Equal(t, []string{"CVE-2023-1234"}, fetcher.calls)
		assert.Len(t, enriched, 1)
	})

	t.Run("should isolate per item failures and omit failed items from the result", func(t *testing.T) {
		fetcher := &fakeFetcher{vulnerability: models.Vulnerability{Description: "fresh description"}}
		store := newFakeStore(
			staleVulnerability("CVE-2023-1234"),
			staleVulnerability("CVE-2023-5678"),
		)
		store.saveErr = errors.New("disk full")
		service := NewEnrichmentService(store, store, fetcher, fixedClock{now: today})

		enriched, err := service.EnrichAllEligible()

		// the batch itself succeeds, the store keeps the prior state
		assert.NoError(t, err)
		assert.Empty(t, enriched)
		stored, _ := store.FindByName("CVE-2023-1234")
		assert.Equal(t, "prior description", stored.Description)
	})

	t.Run("should omit unavailable items from the result but keep their prior state stored", func(t *testing.T) {
		fetcher := &fakeFetcher{err: vulndb.ErrCVENotFound}
		store := newFakeStore(staleVulnerability("CVE-2023-1234"))
		service := NewEnrichmentService(store, store, fetcher, fixedClock{now: today})

		enriched, err := service.EnrichAllEligible()

		assert.NoError(t, err)
		assert.Empty(t, enriched)
		stored, _ := store.FindByName("CVE-2023-1234")
		assert.Equal(t, "prior description", stored.Description)
	})

	t.Run("should keep items already enriched today in the result", func(t *testing.T) {
		vulnerability := staleVulnerability("CVE-2023-1234")
		earlierToday := today.Add(-6 * time.Hour)
		vulnerability.UpdatedDate = &earlierToday

		fetcher := &fakeFetcher{err: vulndb.ErrCVENotFound}
		store := newFakeStore(vulnerability)
		service := NewEnrichmentService(store, store, fetcher, fixedClock{now: today})

		enriched, err := service.EnrichAllEligible()

		assert.NoError(t, err)
		assert.Empty(t, fetcher.calls)
		assert.Len(t, enriched, 1)
		assert.Equal(t, "prior description", enriched[0].Description)
		// fresh items carry their stored configuration set
		assert.Len(t, enriched[0].VulnerableConfigurations, 1)
	})
}
