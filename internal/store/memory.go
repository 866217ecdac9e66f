package store

import (
	"github.com/i474232898/weather-daymatch/internal/weather"
)

// MemoryStore is the in-memory day dataset. It is filled once at startup and
// only read afterwards, so it carries no lock.
type MemoryStore struct {
	// key: date, value: day record
	data map[string]weather.DayRecord

	// insertion order of dates; drives pair enumeration and tie-breaks
	order []string

	duplicates weather.DuplicatePolicy
}

// NewMemoryStore creates an empty MemoryStore.
// An empty policy is treated as weather.DuplicateReject.
func NewMemoryStore(duplicates weather.DuplicatePolicy) *MemoryStore {
	if duplicates == "" {
		duplicates = weather.DuplicateReject
	}
	return &MemoryStore{
		data:       make(map[string]weather.DayRecord),
		duplicates: duplicates,
	}
}

// SaveDay adds a day record and enforces the duplicate policy.
func (s *MemoryStore) SaveDay(day weather.DayRecord) error {
	if _, ok := s.data[day.Date]; ok {
		if s.duplicates != weather.DuplicateReplace {
			return &weather.DuplicateDateError{Date: day.Date}
		}
		s.data[day.Date] = day
		return nil
	}

	s.data[day.Date] = day
	s.order = append(s.order, day.Date)
	return nil
}

// GetDay returns the record stored for date.
func (s *MemoryStore) GetDay(date string) (weather.DayRecord, error) {
	day, ok := s.data[date]
	if !ok {
		return weather.DayRecord{}, &weather.UnknownDateError{Date: date}
	}
	return day, nil
}

// Dates returns all stored dates in insertion order.
func (s *MemoryStore) Dates() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of stored days.
func (s *MemoryStore) Len() int {
	return len(s.order)
}
