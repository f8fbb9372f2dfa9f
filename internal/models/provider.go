package models

import "strings"

// Provider is a configured model endpoint. CredentialKey names a secret in
// the external secret store (keyring or environment); the secret itself is
// never persisted here.
type Provider struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Name          string `gorm:"not null;uniqueIndex" json:"name"`
	APIURL        string `gorm:"column:api_url;not null" json:"apiUrl"`
	CredentialKey string `gorm:"column:api_id;not null" json:"apiId"`
	ModelName     string `gorm:"column:model_name" json:"modelName"`
	IsActive      bool   `gorm:"not null;default:true;index:idx_models_active" json:"isActive"`
}

func (Provider) TableName() string { return "models" }

// RequestModel is the model identifier sent in the request payload. When no
// explicit model name is configured the display name doubles as one, which
// covers entries like "anthropic/claude-3-haiku".
func (p Provider) RequestModel() string {
	if name := strings.TrimSpace(p.ModelName); name != "" {
		return name
	}
	return p.Name
}
