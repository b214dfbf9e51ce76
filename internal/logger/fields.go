package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	FieldRequestID = "request_id"
	FieldCandidate = "candidate_uid"
	FieldQuery     = "query"
	FieldFilters   = "filters"

	// maxQueryLength keeps user supplied search text from flooding the log.
	maxQueryLength = 80
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to logger. A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// SessionFields describes a listing request: its id, the search text and the active filter keys.
func SessionFields(requestID, query string, filters []string) []zap.Field {
	fields := StringFields(
		StringField{Key: FieldRequestID, Value: requestID},
		StringField{Key: FieldQuery, Value: TruncateForLog(query, maxQueryLength)},
	)
	if len(filters) > 0 {
		fields = append(fields, zap.Strings(FieldFilters, filters))
	}
	return fields
}
