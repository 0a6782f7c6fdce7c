package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/file-ingestor/internal/entity"
	"github.com/joseph-ayodele/file-ingestor/internal/repository"
)

const sheet = "Attempts"

var headers = []string{
	"Attempt ID",
	"File",
	"Status",
	"Started (UTC)",
	"Finished (UTC)",
	"Duration (s)",
	"Records",
	"Message",
}

// AttemptLister is the read side of the attempt log.
type AttemptLister interface {
	List(ctx context.Context, f repository.ListAttemptsFilter) ([]entity.Attempt, error)
}

// Service produces XLSX bytes for attempt reports.
type Service struct {
	attempts AttemptLister
	logger   *slog.Logger
}

func NewService(attempts AttemptLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{attempts: attempts, logger: logger}
}

// ExportAttemptsXLSX returns a workbook with one row per attempt matching f,
// newest first.
func (s *Service) ExportAttemptsXLSX(ctx context.Context, f repository.ListAttemptsFilter) ([]byte, error) {
	start := time.Now()

	attempts, err := s.attempts.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	book, err := AttemptReport(attempts)
	if err != nil {
		return nil, err
	}
	defer book.Close()

	buf, err := book.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(attempts),
		"status", string(f.Status),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// AttemptReport lays out attempts on a single sheet.
func AttemptReport(attempts []entity.Attempt) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		_ = f.Close()
		return nil, err
	}

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		_ = f.Close()
		return nil, err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, style)
	}
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	for i, a := range attempts {
		row := []any{
			a.ID,
			a.FileName,
			string(a.Status),
			a.StartTime.UTC().Format(time.DateTime),
			"",
			"",
			a.RecordCount,
			"",
		}
		if a.EndTime != nil {
			row[4] = a.EndTime.UTC().Format(time.DateTime)
			row[5] = a.Duration().Seconds()
		}
		if a.Message != nil {
			row[7] = truncate(*a.Message, 500)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 38) // id
	_ = f.SetColWidth(sheet, "B", "B", 60) // file
	_ = f.SetColWidth(sheet, "C", "C", 10) // status
	_ = f.SetColWidth(sheet, "D", "E", 20) // times
	_ = f.SetColWidth(sheet, "H", "H", 80) // message
	return f, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
