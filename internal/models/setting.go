package models

// Setting is one row of the open-ended key/value settings table. Unknown
// keys are preserved untouched; consumers parse and validate values.
type Setting struct {
	Key   string `gorm:"primaryKey;column:key" json:"key"`
	Value string `gorm:"not null" json:"value"`
}

func (Setting) TableName() string { return "settings" }

// Recognized setting keys. The settings table accepts any key; these are the
// ones the application itself reads.
const (
	SettingDefaultTimeout        = "default_timeout"
	SettingMaxResponseLength     = "max_response_length"
	SettingTLSVerify             = "tls_verify"
	SettingAutoSave              = "auto_save"
	SettingTheme                 = "theme"
	SettingFontSize              = "font_size"
	SettingExportFormat          = "export_format"
	SettingPromptImproverEnabled = "prompt_improver_enabled"
	SettingPromptImproverModel   = "prompt_improver_model"
)

// DefaultSettings returns the rows seeded insert-or-ignore at database init.
func DefaultSettings() []Setting {
	return []Setting{
		{Key: SettingDefaultTimeout, Value: "30"},
		{Key: SettingMaxResponseLength, Value: "10000"},
		{Key: SettingTLSVerify, Value: "true"},
		{Key: SettingAutoSave, Value: "false"},
		{Key: SettingTheme, Value: "light"},
		{Key: SettingFontSize, Value: "10"},
		{Key: SettingExportFormat, Value: "markdown"},
		{Key: SettingPromptImproverEnabled, Value: "true"},
		{Key: SettingPromptImproverModel, Value: ""},
	}
}
