package weather

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DatasetRequest describes the two ranges a run is built from.
type DatasetRequest struct {
	Location    Location
	HistoryFrom time.Time
	HistoryTo   time.Time
	Today       time.Time
}

// Service fetches hourly data from a provider and loads it into the store.
type Service struct {
	store    Store
	provider Provider
	logger   *slog.Logger
}

// NewService creates a new Service.
func NewService(store Store, provider Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		provider: provider,
		logger:   logger,
	}
}

// Store returns the dataset the service loads into.
func (s *Service) Store() Store {
	return s.store
}

// BuildDataset fetches today's forecast and the history range, then stores
// the history days followed by the forecast day. The two calls run
// sequentially and any failure aborts the build.
func (s *Service) BuildDataset(ctx context.Context, req DatasetRequest) error {
	if req.HistoryFrom.After(req.HistoryTo) {
		return fmt.Errorf("history range %s..%s is empty",
			req.HistoryFrom.Format(DateLayout), req.HistoryTo.Format(DateLayout))
	}

	s.logger.Debug("fetching forecast day",
		"provider", s.provider.Name(),
		"location", req.Location.Key(),
		"date", req.Today.Format(DateLayout))

	today, err := s.fetch(ctx, req.Location, FetchRequest{
		Mode:  ModeForecast,
		Start: req.Today,
		End:   req.Today,
	})
	if err != nil {
		return err
	}

	s.logger.Debug("fetching history",
		"provider", s.provider.Name(),
		"location", req.Location.Key(),
		"from", req.HistoryFrom.Format(DateLayout),
		"to", req.HistoryTo.Format(DateLayout))

	history, err := s.fetch(ctx, req.Location, FetchRequest{
		Mode:  ModeArchive,
		Start: req.HistoryFrom,
		End:   req.HistoryTo,
	})
	if err != nil {
		return err
	}

	for _, day := range append(history, today...) {
		if err := s.store.SaveDay(day); err != nil {
			return fmt.Errorf("load dataset: %w", err)
		}
	}

	partial := 0
	for _, date := range s.store.Dates() {
		if day, err := s.store.GetDay(date); err == nil && !day.Complete() {
			partial++
		}
	}

	s.logger.Info("dataset loaded",
		"location", req.Location.Key(),
		"days", s.store.Len(),
		"history_days", len(history),
		"forecast_days", len(today),
		"partial_days", partial)

	return nil
}

func (s *Service) fetch(ctx context.Context, loc Location, req FetchRequest) ([]DayRecord, error) {
	buckets, err := s.provider.FetchHourly(ctx, loc, req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.Mode, err)
	}

	records, err := Bucketize(buckets)
	if err != nil {
		return nil, fmt.Errorf("bucketize %s: %w", req.Mode, err)
	}
	return records, nil
}
