package queue

// Job is one unit of work delivered at least once from the durable queue:
// ingest this file as this sensor type. An empty or "auto" sensor type makes
// the worker read the type per row.
type Job struct {
	JobID      string `json:"job_id"`
	CSVPath    string `json:"csv_path"`
	SensorType string `json:"sensor_type"`
}
