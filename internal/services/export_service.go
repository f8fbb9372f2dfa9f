package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"chatlist/internal/models"
)

const (
	ExportFormatMarkdown = "markdown"
	ExportFormatJSON     = "json"
)

// ExportService renders all selected results, across all prompts, for
// sharing outside the application.
type ExportService interface {
	// ExportSelected writes the export in the given format; an empty format
	// falls back to the export_format setting.
	ExportSelected(ctx context.Context, format string, w io.Writer) error
}

type exportService struct {
	results  ResultService
	settings SettingsService
	now      func() time.Time
}

func NewExportService(results ResultService, settings SettingsService) ExportService {
	return &exportService{results: results, settings: settings, now: time.Now}
}

type exportedResult struct {
	ID       uint      `json:"id"`
	Prompt   string    `json:"prompt"`
	Provider string    `json:"provider"`
	Response string    `json:"response"`
	Date     time.Time `json:"date"`
}

func (s *exportService) ExportSelected(ctx context.Context, format string, w io.Writer) error {
	if format == "" {
		configured, err := s.settings.Get(ctx, models.SettingExportFormat)
		if err != nil {
			return err
		}
		format = configured
	}

	results, err := s.results.ListSelected(ctx)
	if err != nil {
		return err
	}

	switch format {
	case ExportFormatMarkdown:
		return s.writeMarkdown(w, results)
	case ExportFormatJSON:
		return s.writeJSON(w, results)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func (s *exportService) writeMarkdown(w io.Writer, results []models.Result) error {
	if _, err := fmt.Fprintf(w, "# ChatList results export\n\nExported: %s\n\n",
		s.now().Format("2006-01-02 15:04:05")); err != nil {
		return err
	}
	for _, result := range results {
		entry := toExported(result)
		_, err := fmt.Fprintf(w,
			"## %s\n\n**Prompt:** %s\n\n**Date:** %s\n\n**Response:**\n\n%s\n\n---\n\n",
			entry.Provider,
			entry.Prompt,
			entry.Date.Format("2006-01-02 15:04:05"),
			entry.Response,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *exportService) writeJSON(w io.Writer, results []models.Result) error {
	entries := make([]exportedResult, 0, len(results))
	for _, result := range results {
		entries = append(entries, toExported(result))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func toExported(result models.Result) exportedResult {
	entry := exportedResult{
		ID:       result.ID,
		Response: result.Response,
		Date:     result.Date,
	}
	if result.Prompt != nil {
		entry.Prompt = result.Prompt.Text
	}
	if result.Provider != nil {
		entry.Provider = result.Provider.Name
	}
	return entry
}
