package kafka

// Record is one CSV row in flight on the telemetry topic. The raw row map
// travels as-is so the consumer runs the exact same extraction and pipeline
// as the CSV path.
type Record struct {
	SensorType string            `json:"sensor_type"`
	Row        map[string]string `json:"row"`
}
