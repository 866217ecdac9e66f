package weather

import (
	"context"
)

// Provider abstracts an hourly temperature source (Open-Meteo archive and forecast).
// Implementations return the samples already split into day buckets.
type Provider interface {
	Name() string
	FetchHourly(ctx context.Context, loc Location, req FetchRequest) ([]DayBucket, error)
}

// Store is the contract the in-memory dataset must satisfy.
// Dates returns keys in insertion order.
type Store interface {
	SaveDay(day DayRecord) error
	GetDay(date string) (DayRecord, error)
	Dates() []string
	Len() int
}
