package sheets

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/milktrack/internal/config"
	"github.com/mamadbah2/milktrack/internal/domain/models"
)

const (
	dateLayout        = "2006-01-02"
	summaryRange      = "DailySummary!A:H"
	summaryDatesRange = "DailySummary!A:A"
)

// valueService is the slice of the Sheets values API the repository calls.
type valueService interface {
	Append(ctx context.Context, sheetRange string, rows [][]interface{}) error
	Get(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// GoogleSheetRepository keeps one row per day in the DailySummary tab.
type GoogleSheetRepository struct {
	values valueService
	logger *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		values: &apiValues{service: service, spreadsheetID: cfg.SpreadsheetID},
		logger: logger,
	}, nil
}

// HasSummary reports whether a row for the given day already exists.
func (r *GoogleSheetRepository) HasSummary(ctx context.Context, day string) (bool, error) {
	rows, err := r.values.Get(ctx, summaryDatesRange)
	if err != nil {
		return false, fmt.Errorf("read summary dates: %w", err)
	}
	for _, row := range rows {
		if len(row) > 0 && fmt.Sprint(row[0]) == day {
			return true, nil
		}
	}
	return false, nil
}

// AppendSummary appends the day's row.
func (r *GoogleSheetRepository) AppendSummary(ctx context.Context, s models.DailySummary) error {
	if err := r.values.Append(ctx, summaryRange, [][]interface{}{SummaryRow(s)}); err != nil {
		return fmt.Errorf("append summary for %s: %w", s.Date.Format(dateLayout), err)
	}
	r.logger.Debug("summary row appended", zap.String("range", summaryRange), zap.Time("date", s.Date))
	return nil
}

// SummaryRow lays a summary out as
// [date, collections, liters, farmers, devices, avgFat, grade, peakHour].
func SummaryRow(s models.DailySummary) []interface{} {
	peak := ""
	if s.PeakHour != nil {
		peak = fmt.Sprintf("%02d:00", *s.PeakHour)
	}
	return []interface{}{
		s.Date.Format(dateLayout),
		s.Collections,
		strconv.FormatFloat(s.TotalQuantity, 'f', 1, 64),
		s.Farmers,
		s.Devices,
		strconv.FormatFloat(s.AvgFat, 'f', 2, 64),
		s.Grade,
		peak,
	}
}

type apiValues struct {
	service       *sheetsapi.Service
	spreadsheetID string
}

func (a *apiValues) Append(ctx context.Context, sheetRange string, rows [][]interface{}) error {
	payload := &sheetsapi.ValueRange{Values: rows}
	_, err := a.service.Spreadsheets.Values.Append(a.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func (a *apiValues) Get(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	resp, err := a.service.Spreadsheets.Values.Get(a.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}
