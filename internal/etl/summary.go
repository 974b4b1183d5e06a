package etl

import (
	"time"

	"sensormon/internal/repository"
)

// maxErrorDetails bounds the error sample carried in a summary; the Errors
// counter still counts every failed row.
const maxErrorDetails = 10

// Summary is the per-invocation batch result. It is returned as the job
// result and appended, write-once, to the audit store.
type Summary struct {
	File                 string    `json:"file" bson:"file"`
	SensorType           string    `json:"sensor_type" bson:"sensor_type"`
	OK                   bool      `json:"ok" bson:"ok"`
	Processed            int       `json:"processed" bson:"processed"`
	Skipped              int       `json:"skipped" bson:"skipped"`
	InsertedDevices      int       `json:"inserted_devices" bson:"inserted_devices"`
	UpdatedDevices       int       `json:"updated_devices" bson:"updated_devices"`
	InsertedMeasurements int       `json:"inserted_measurements" bson:"inserted_measurements"`
	UpdatedMeasurements  int       `json:"updated_measurements" bson:"updated_measurements"`
	DetailRows           int       `json:"detail_rows" bson:"detail_rows"`
	Errors               int       `json:"errors" bson:"errors"`
	ErrorDetails         []string  `json:"error_details" bson:"error_details"`
	LoggedInAuditStore   bool      `json:"logged_in_audit_store" bson:"logged_in_audit_store"`
	CompletedAt          time.Time `json:"completed_at" bson:"completed_at"`
}

func (s *Summary) addError(msg string) {
	s.Errors++
	if len(s.ErrorDetails) < maxErrorDetails {
		s.ErrorDetails = append(s.ErrorDetails, msg)
	}
}

func (s *Summary) tally(out RowOutcome) {
	s.Processed++

	switch out.Status {
	case RowSkipped:
		s.Skipped++
		return
	case RowErrored:
		s.addError(out.Err.Error())
		return
	}

	switch out.Device {
	case repository.OutcomeInserted:
		s.InsertedDevices++
	case repository.OutcomeUpdated:
		s.UpdatedDevices++
	}
	switch out.Measurement {
	case repository.OutcomeInserted:
		s.InsertedMeasurements++
	case repository.OutcomeUpdated:
		s.UpdatedMeasurements++
	}
	s.DetailRows++
}
