package models

import "time"

// Result is one provider's answer to one dispatch of a prompt. Every
// completed dispatch attempt gets its own row, recorded failures included;
// re-dispatching the same prompt to the same provider inserts a new row.
type Result struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PromptID  uint      `gorm:"not null;index:idx_results_prompt" json:"promptId"`
	ModelID   uint      `gorm:"column:model_id;not null;index:idx_results_model" json:"modelId"`
	Response  string    `gorm:"not null" json:"response"`
	Status    string    `gorm:"not null;default:success" json:"status"`
	ErrorKind string    `gorm:"column:error_kind" json:"errorKind,omitempty"`
	Date      time.Time `gorm:"not null;autoCreateTime;index:idx_results_date" json:"date"`
	Selected  bool      `gorm:"not null;default:false;index:idx_results_selected" json:"selected"`

	Prompt   *Prompt   `gorm:"foreignKey:PromptID;constraint:OnDelete:CASCADE" json:"prompt,omitempty"`
	Provider *Provider `gorm:"foreignKey:ModelID;constraint:OnDelete:RESTRICT" json:"provider,omitempty"`
}

func (Result) TableName() string { return "results" }
