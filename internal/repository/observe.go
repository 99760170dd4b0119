package repository

import (
	"time"

	"blogapi/pkg/metrics"
)

func observe(operation, entity string, start time.Time) {
	metrics.RecordStoreOperation(operation, entity, time.Since(start))
}
