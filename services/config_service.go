package services

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/IDEAS-AI-Vulns/ai-vulns/database/models"
	"github.com/IDEAS-AI-Vulns/ai-vulns/database/repositories"
	"github.com/IDEAS-AI-Vulns/ai-vulns/shared"
)

type ConfigService struct {
	repository shared.ConfigRepository
}

func NewConfigService(db shared.DB) ConfigService {
	repository := repositories.NewConfigRepository(db)
	return ConfigService{
		repository: repository,
	}
}

func (service ConfigService) GetJSONConfig(key string, v any) error {
	var config models.Config
	if err := service.repository.GetDB(nil).Where("key = ?", key).First(&config).Error; err != nil {
		return err
	}

	return json.Unmarshal([]byte(config.Val), v)
}

func (service ConfigService) SetJSONConfig(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	config := models.Config{
		Key: key,
		Val: string(b),
	}

	return service.repository.Save(nil, &config)
}

const nvdConfigKey = "nvd"

// NVDCredentials are stored in plain form - they arrive already decrypted.
type NVDCredentials struct {
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseURL"`
}

// GetNVDCredentials merges the admin-stored credentials with the environment.
// Environment variables win so deployments can pin them.
func (service ConfigService) GetNVDCredentials() NVDCredentials {
	var credentials NVDCredentials
	if err := service.GetJSONConfig(nvdConfigKey, &credentials); err != nil {
		slog.Debug("no stored NVD credentials", "err", err)
	}

	if apiKey := os.Getenv("NVD_API_KEY"); apiKey != "" {
		credentials.APIKey = apiKey
	}
	if baseURL := os.Getenv("NVD_BASE_URL"); baseURL != "" {
		credentials.BaseURL = baseURL
	}
	return credentials
}
