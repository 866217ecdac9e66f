package weather

import (
	"fmt"
	"time"
)

// SplitByDay cuts a flat hourly series into day buckets. A new bucket starts
// whenever the date part of a timestamp differs from the previous sample.
func SplitByDay(series HourlySeries) ([]DayBucket, error) {
	if len(series.Times) != len(series.Temperatures) {
		return nil, &ParseError{
			Detail: fmt.Sprintf("%d timestamps but %d temperatures", len(series.Times), len(series.Temperatures)),
		}
	}

	var (
		buckets  []DayBucket
		current  DayBucket
		lastDate string
	)

	for i, ts := range series.Times {
		if len(ts) < len(DateLayout) {
			return nil, &ParseError{Detail: fmt.Sprintf("timestamp %q has no date", ts)}
		}
		date := ts[:len(DateLayout)]

		if date != lastDate && len(current.Times) > 0 {
			buckets = append(buckets, current)
			current = DayBucket{}
		}

		current.Times = append(current.Times, ts)
		current.Temperatures = append(current.Temperatures, series.Temperatures[i])
		lastDate = date
	}

	if len(current.Times) > 0 {
		buckets = append(buckets, current)
	}

	return buckets, nil
}

// Bucketize converts raw day buckets into date-keyed day records. Each
// record is keyed by the date of its first sample.
func Bucketize(buckets []DayBucket) ([]DayRecord, error) {
	records := make([]DayRecord, 0, len(buckets))

	for _, b := range buckets {
		if len(b.Times) == 0 {
			continue
		}
		if len(b.Times) != len(b.Temperatures) {
			return nil, &ParseError{
				Detail: fmt.Sprintf("bucket has %d timestamps but %d temperatures", len(b.Times), len(b.Temperatures)),
			}
		}

		rec := DayRecord{
			Hours:        make([]int, 0, len(b.Times)),
			Temperatures: make([]float64, len(b.Temperatures)),
		}
		copy(rec.Temperatures, b.Temperatures)

		for i, s := range b.Times {
			ts, err := time.Parse(HourLayout, s)
			if err != nil {
				return nil, &ParseError{Detail: fmt.Sprintf("timestamp %q", s), Err: err}
			}
			if i == 0 {
				rec.Date = ts.Format(DateLayout)
			}
			rec.Hours = append(rec.Hours, ts.Hour())
		}

		records = append(records, rec)
	}

	return records, nil
}
