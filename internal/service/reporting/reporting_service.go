package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/milktrack/internal/domain/models"
)

const dateLayout = "2006-01-02"

// ViewSource supplies the current dashboard state.
type ViewSource interface {
	View() models.DashboardView
}

// Notifier delivers a text message.
type Notifier interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

// SummaryStore keeps one summary row per day.
type SummaryStore interface {
	HasSummary(ctx context.Context, day string) (bool, error)
	AppendSummary(ctx context.Context, s models.DailySummary) error
}

// Service builds the end-of-day digest and fans it out to the configured
// sinks. Either sink may be nil.
type Service struct {
	source   ViewSource
	notifier Notifier
	reportTo string
	store    SummaryStore
	logger   *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(source ViewSource, notifier Notifier, reportTo string, store SummaryStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, notifier: notifier, reportTo: reportTo, store: store, logger: logger}
}

// BuildSummary extracts today's figures from a view.
func BuildSummary(view models.DashboardView) models.DailySummary {
	s := view.Stats
	date := s.WindowStart
	if date.IsZero() {
		date = view.GeneratedAt
	}
	return models.DailySummary{
		Date:          date,
		Collections:   s.Count,
		TotalQuantity: s.TotalQuantity,
		Farmers:       s.UniqueFarmers,
		Devices:       s.UniqueDevices,
		AvgFat:        s.AvgFat,
		Grade:         s.Grade,
		PeakHour:      s.PeakHour,
	}
}

// Render formats the summary as a chat message.
func Render(s models.DailySummary, top []models.Performer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Milk collection summary %s\n", s.Date.Format(dateLayout))
	if s.Collections == 0 {
		b.WriteString("No collections recorded today.")
		return b.String()
	}

	fmt.Fprintf(&b, "Collections: %d\n", s.Collections)
	fmt.Fprintf(&b, "Total: %.1f L\n", s.TotalQuantity)
	fmt.Fprintf(&b, "Farmers: %d, devices: %d\n", s.Farmers, s.Devices)
	fmt.Fprintf(&b, "Avg fat: %.2f%% (grade %s)\n", s.AvgFat, s.Grade)
	if s.PeakHour != nil {
		fmt.Fprintf(&b, "Peak hour: %02d:00\n", *s.PeakHour)
	}
	if len(top) > 0 {
		b.WriteString("Top farmers:")
		for i, p := range top {
			fmt.Fprintf(&b, "\n%d. %s %.1f L (%d)", i+1, p.FarmerName, p.TotalQuantity, p.Deposits)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// SendDailySummary appends today's row and sends the message. A failing sink
// does not stop the other one; both errors are returned.
func (s *Service) SendDailySummary(ctx context.Context) error {
	view := s.source.View()
	summary := BuildSummary(view)
	day := summary.Date.Format(dateLayout)

	var errs []error
	if s.store != nil {
		if err := s.appendOnce(ctx, day, summary); err != nil {
			errs = append(errs, err)
		}
	}

	if s.notifier != nil && s.reportTo != "" {
		id, err := s.notifier.SendText(ctx, s.reportTo, Render(summary, view.Stats.TopPerformers))
		if err != nil {
			errs = append(errs, fmt.Errorf("send daily summary: %w", err))
		} else {
			s.logger.Info("daily summary sent", zap.String("day", day), zap.String("message_id", id))
		}
	}

	return errors.Join(errs...)
}

func (s *Service) appendOnce(ctx context.Context, day string, summary models.DailySummary) error {
	exists, err := s.store.HasSummary(ctx, day)
	if err != nil {
		return err
	}
	if exists {
		s.logger.Info("daily summary already recorded", zap.String("day", day))
		return nil
	}
	if err := s.store.AppendSummary(ctx, summary); err != nil {
		return err
	}
	s.logger.Info("daily summary recorded", zap.String("day", day), zap.Int("collections", summary.Collections))
	return nil
}
