package vulndb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/IDEAS-AI-Vulns/ai-vulns/database/models"
	"github.com/IDEAS-AI-Vulns/ai-vulns/utils"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

var defaultBaseURL = url.URL{
	Scheme: "https",
	Host:   "services.nvd.nist.gov",
	Path:   "/rest/json/cves/2.0",
}

// the NVD rate limits to 50 requests per 30s with an api key and 5 requests
// per 30s without one
const (
	requestIntervalWithKey = 600 * time.Millisecond
	requestIntervalNoKey   = 6 * time.Second
)

// transport failures get retried this many times before the vulnerability is
// reported as unavailable
const maxFetchAttempts = 5

type NVDService struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    url.URL
	apiKey     string
}

func NewNVDService(apiKey string, rawBaseURL string) NVDService {
	base := defaultBaseURL
	if rawBaseURL != "" {
		if parsed, err := url.Parse(rawBaseURL); err == nil {
			base = *parsed
		} else {
			slog.Warn("could not parse NVD base url, falling back to the default", "url", rawBaseURL, "err", err)
		}
	}

	interval := requestIntervalNoKey
	if apiKey != "" {
		interval = requestIntervalWithKey
	}

	return NVDService{
		apiKey:  apiKey,
		baseURL: base,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 3, // only allow 3 concurrent connections to the same host
			},
		},
	}
}

// FetchCVE performs exactly one lookup against the external database. Retry
// policy lives in FetchCVEWithRetry so it stays centralized and testable.
func (nvdService NVDService) FetchCVE(cveID string) (nvdCVE, error) {
	if err := nvdService.limiter.Wait(context.Background()); err != nil {
		return nvdCVE{}, &TransportError{Err: err}
	}

	u := nvdService.baseURL
	q := u.Query()
	q.Add("cveId", cveID)
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nvdCVE{}, errors.Wrap(err, "could not create request before fetching from NVD")
	}
	if nvdService.apiKey != "" {
		req.Header.Set("apiKey", nvdService.apiKey)
	}

	res, err := nvdService.httpClient.Do(req)
	if err != nil {
		return nvdCVE{}, &TransportError{Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nvdCVE{}, ErrCVENotFound
	}
	if res.StatusCode != http.StatusOK {
		return nvdCVE{}, &TransportError{Err: fmt.Errorf("unexpected status code %d from NVD", res.StatusCode)}
	}

	var resp nistResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		// a body we cannot parse is treated like a missing record
		slog.Debug("could not decode response from NVD", "cveID", cveID, "err", err)
		return nvdCVE{}, ErrCVENotFound
	}

	for _, wrapper := range resp.Vulnerabilities {
		if wrapper.Cve.ID == cveID {
			return wrapper.Cve, nil
		}
	}

	return nvdCVE{}, ErrCVENotFound
}

// FetchCVEWithRetry wraps FetchCVE in the bounded retry policy and maps the
// fetched record to internal models. A not-found answer is terminal and is
// not retried.
func (nvdService NVDService) FetchCVEWithRetry(cveID string) (models.Vulnerability, []models.VulnerableConfiguration, error) {
	record, err := utils.Retry(maxFetchAttempts, func() (nvdCVE, error) {
		return nvdService.FetchCVE(cveID)
	}, IsTransportError)
	if err != nil {
		return models.Vulnerability{}, nil, err
	}

	return fromNVDCVE(record)
}
