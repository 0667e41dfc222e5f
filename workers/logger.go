package workers

import (
	"log"

	"landseek/models"
	"landseek/storage"
)

// LogFunc records worker events into the crawl_logs table.
type LogFunc func(level models.LogLevel, message string)

// NoOpLogger does nothing (default)
var NoOpLogger LogFunc = func(level models.LogLevel, message string) {}

// StoreLogger returns a LogFunc backed by the local store. Log failures are
// reported but never interrupt the worker.
func StoreLogger(store *storage.SQLiteStore) LogFunc {
	if store == nil {
		return NoOpLogger
	}
	return func(level models.LogLevel, message string) {
		if err := store.Log(nil, level, message); err != nil {
			log.Printf("Warning: failed to persist worker log: %v", err)
		}
	}
}
