package services

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/adanyl0v/daily-todo/internal/models"
)

const (
	ExportFormatJSON = "json"
	ExportFormatYAML = "yaml"
	ExportFormatCSV  = "csv"
	ExportFormatPDF  = "pdf"
)

type exportServiceImpl struct {
	logger zerolog.Logger
	title  string
}

func NewExportService(logger zerolog.Logger, title string) ExportService {
	if title == "" {
		title = "Daily To-Do"
	}
	return &exportServiceImpl{
		logger: logger,
		title:  title,
	}
}

func (s *exportServiceImpl) Export(tasks []models.Task, format string) ([]byte, string, error) {
	if tasks == nil {
		tasks = []models.Task{}
	}

	var (
		data        []byte
		contentType string
		err         error
	)
	switch strings.ToLower(strings.TrimSpace(format)) {
	case ExportFormatJSON, "":
		data, err = json.MarshalIndent(tasks, "", "  ")
		contentType = "application/json"
	case ExportFormatYAML, "yml":
		data, err = yaml.Marshal(tasks)
		contentType = "application/yaml"
	case ExportFormatCSV:
		data, err = exportCSV(tasks)
		contentType = "text/csv"
	case ExportFormatPDF:
		data, err = s.exportPDF(tasks)
		contentType = "application/pdf"
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedExportFormat, format)
	}
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("format", format).
			Msg("failed to export tasks")
		return nil, "", err
	}

	s.logger.Debug().
		Str("format", format).
		Int("count", len(tasks)).
		Msg("exported tasks")
	return data, contentType, nil
}

func exportCSV(tasks []models.Task) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	err := w.Write([]string{"id", "date", "title", "description", "priority", "status", "tags"})
	if err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, t := range tasks {
		err = w.Write([]string{
			strconv.FormatInt(t.ID, 10),
			t.Date,
			t.Title,
			t.Description,
			string(t.Priority),
			strconv.FormatBool(t.Status),
			joinTags(t.Tags, ";"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to write csv record %d: %w", t.ID, err)
		}
	}
	w.Flush()

	if err = w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *exportServiceImpl) exportPDF(tasks []models.Task) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, tr(s.title))
	pdf.Ln(12)

	stats := DeriveStats(tasks)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(40, 6, fmt.Sprintf("%d/%d completed (%.0f%%)", stats.CompletedCount, stats.TotalCount, stats.ProgressPercent))
	pdf.Ln(10)

	for _, t := range tasks {
		mark := "[ ]"
		if t.Status {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s (%s, %s)", mark, t.Title, t.Priority, t.Date)
		if len(t.Tags) > 0 {
			line += " #" + joinTags(t.Tags, " #")
		}

		pdf.SetFont("Arial", "B", 10)
		pdf.MultiCell(0, 6, tr(line), "0", "L", false)
		if t.Description != "" {
			pdf.SetFont("Arial", "", 9)
			pdf.MultiCell(0, 5, tr(t.Description), "0", "L", false)
		}
		pdf.Ln(2)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func joinTags(tags []models.Tag, sep string) string {
	parts := make([]string, len(tags))
	for i, tag := range tags {
		parts[i] = string(tag)
	}
	return strings.Join(parts, sep)
}
