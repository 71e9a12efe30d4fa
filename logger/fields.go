package logger

// Standard field key constants for structured logging.
const (
	FieldComponent = "component"
	FieldOperator  = "operator"
	FieldSinkID    = "sink_id"
	FieldStreamID  = "stream_id"
	FieldSignal    = "signal"
	FieldStage     = "stage"
	FieldValue     = "value"
	FieldError     = "error"
	FieldOutcome   = "outcome"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Warn("value dropped", logger.Fields(logger.FieldSignal, "onNext"))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for a failure observed at a given stage.
func ErrorFields(stage string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldStage: stage,
		FieldError: err.Error(),
	}
}

// MergeWithError adds an error field to an existing map.
func MergeWithError(fields map[string]interface{}, err error) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields[FieldError] = err.Error()
	return fields
}
