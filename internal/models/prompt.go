package models

import (
	"strings"
	"time"
)

// Prompt is a reusable user prompt. The prompt text is immutable after
// creation; deleting a prompt cascades to all of its results.
type Prompt struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	Date time.Time `gorm:"not null;autoCreateTime;index:idx_prompts_date" json:"date"`
	Text string    `gorm:"column:prompt;not null" json:"prompt"`
	Tags string    `gorm:"index:idx_prompts_tags" json:"tags"`
}

func (Prompt) TableName() string { return "prompts" }

// TagList splits the comma-joined tags column, preserving order.
func (p Prompt) TagList() []string {
	if strings.TrimSpace(p.Tags) == "" {
		return nil
	}
	parts := strings.Split(p.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// JoinTags builds the comma-joined tags column from an ordered list.
func JoinTags(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return strings.Join(cleaned, ",")
}
