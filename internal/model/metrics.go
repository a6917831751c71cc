package models

import "time"

const (
	// BatteryMetric is the metric name used for battery readings.
	BatteryMetric = "battery"

	// PhoneIDDimension is the dimension carrying the device identifier.
	PhoneIDDimension = "phone_id"

	// UnitPercent is the unit of battery readings.
	UnitPercent = "Percent"

	// DefaultNamespace is the metrics namespace used when none is configured.
	DefaultNamespace = "phone"
)

// Reading is a single value taken from the phone.
type Reading struct {
	// Identifier is the device mark of the phone
	Identifier string `json:"identifier"`

	// Value is the numeric reading
	Value float64 `json:"value"`

	// Timestamp is in milliseconds since the Unix epoch
	Timestamp int64 `json:"timestamp"`
}

// Dimension is a name/value pair attached to a point.
type Dimension struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Point is a time-series sample handed to a metrics sink.
type Point struct {
	// Namespace groups related metrics in the store
	Namespace string `json:"namespace"`

	// Name is the metric name, e.g. "battery"
	Name string `json:"name"`

	// Dimensions identify the series the point belongs to
	Dimensions []Dimension `json:"dimensions"`

	// Timestamp is the sample time
	Timestamp time.Time `json:"timestamp"`

	// Value is the sample value
	Value float64 `json:"value"`

	// Unit is the store unit name, e.g. "Percent"
	Unit string `json:"unit"`
}

// Dimension returns the value of the named dimension and whether it exists.
func (p Point) Dimension(name string) (string, bool) {
	for _, d := range p.Dimensions {
		if d.Name == name {
			return d.Value, true
		}
	}
	return "", false
}

// MillisToTime converts milliseconds since the Unix epoch to a UTC time.
func MillisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
