package extract

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Row is one CSV record keyed by header column name.
type Row map[string]string

// fieldAliases maps a logical field name to the raw column spellings seen in
// exported CSVs, in lookup order. The exports have no stable header
// convention, so new spellings go here rather than into parsing code.
var fieldAliases = map[string][]string{
	"devEui":            {"deviceInfo.devEui", "devEui", "dev_eui", "DevEUI"},
	"deviceName":        {"deviceInfo.deviceName", "deviceName", "device_name"},
	"deviceProfileName": {"deviceInfo.deviceProfileName", "deviceProfileName", "device_profile_name"},
	"tenantName":        {"deviceInfo.tenantName", "tenantName", "tenant_name"},
	"applicationName":   {"deviceInfo.applicationName", "applicationName", "application_name"},
	"description":       {"deviceInfo.tags.Description", "description", "Description"},
	"address":           {"deviceInfo.tags.Address", "address", "Address"},
	"location":          {"deviceInfo.tags.Location", "location", "Location"},
	"classEnabled":      {"deviceInfo.deviceClassEnabled", "classEnabled", "class_enabled"},
	"time":              {"time", "Time", "measurement_time", "timestamp"},
	"fCnt":              {"fCnt", "fcnt", "frameCount"},
	"fPort":             {"fPort", "fport"},
	"dr":                {"dr", "DR", "dataRate"},
	"adr":               {"adr", "ADR"},
	"confirmed":         {"confirmed", "Confirmed"},
	"data":              {"data", "raw_data", "rawData"},
	"deduplicationId":   {"deduplicationId", "deduplication_id", "dedupId"},
	"sensorType":        {"sensor_type", "sensorType", "tipo_sensor"},
	"laeq":              {"object.LAeq", "LAeq", "laeq"},
	"lai":               {"object.LAI", "LAI", "lai"},
	"laimax":            {"object.LAImax", "LAImax", "laimax"},
	"battery":           {"object.battery", "battery", "batteryLevel"},
	"status":            {"object.status", "status"},
	"co2":               {"object.co2", "co2"},
	"co2Status":         {"object.co2_status", "co2_status"},
	"temperature":       {"object.temperature", "temperature"},
	"humidity":          {"object.humidity", "humidity"},
	"pressure":          {"object.pressure", "pressure"},
	"distance":          {"object.distance", "distance"},
	"position":          {"object.position", "position"},
}

// timestamp layouts accepted by Time, tried in order
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Raw returns the first present, non-empty value among the known column
// variants for the logical field. Falls back to a case-insensitive scan of
// the row so header casing differences do not drop data.
func Raw(row Row, field string) (string, bool) {
	aliases, ok := fieldAliases[field]
	if !ok {
		aliases = []string{field}
	}
	for _, alias := range aliases {
		if v, ok := row[alias]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	// scan columns in sorted order so two headers differing only in case
	// resolve the same way on every run
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, alias := range aliases {
		for _, k := range keys {
			if strings.EqualFold(k, alias) && strings.TrimSpace(row[k]) != "" {
				return strings.TrimSpace(row[k]), true
			}
		}
	}
	return "", false
}

// String returns the field value or def when missing/empty.
func String(row Row, field, def string) string {
	if v, ok := Raw(row, field); ok {
		return v
	}
	return def
}

// StringPtr returns the field value or nil when missing/empty.
func StringPtr(row Row, field string) *string {
	if v, ok := Raw(row, field); ok {
		return &v
	}
	return nil
}

// Float parses the field as a float, returning def on missing or malformed
// input. Parse failures never propagate to the caller.
func Float(row Row, field string, def float64) float64 {
	if v := FloatPtr(row, field); v != nil {
		return *v
	}
	return def
}

// FloatPtr parses the field as a float, returning nil on missing or
// malformed input.
func FloatPtr(row Row, field string) *float64 {
	v, ok := Raw(row, field)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

// IntPtr parses the field as an integer, accepting a float representation
// ("12.0") the way spreadsheet exports tend to emit integers.
func IntPtr(row Row, field string) *int {
	v, ok := Raw(row, field)
	if !ok {
		return nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	n := int(f)
	return &n
}

// BoolPtr coerces the field to a boolean. Recognized truthy values are
// {1,true,yes,y,t} and falsy {0,false,no,n,f}, case-insensitive; anything
// else (including a missing column) yields nil.
func BoolPtr(row Row, field string) *bool {
	v, ok := Raw(row, field)
	if !ok {
		return nil
	}
	var b bool
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "t":
		b = true
	case "0", "false", "no", "n", "f":
		b = false
	default:
		return nil
	}
	return &b
}

// Time parses the field as an ISO-8601 timestamp, with either "T" or a space
// separating date and time and with or without a UTC marker. The second
// return value is false when the column is absent or the value does not
// parse; callers decide the fallback.
func Time(row Row, field string) (time.Time, bool) {
	v, ok := Raw(row, field)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
