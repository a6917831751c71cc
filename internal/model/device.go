// Package models defines the data structures exchanged with the phone and
// passed to the metrics sinks.
package models

const (
	// StatusSuccess is the code the phone puts in successful responses.
	StatusSuccess = 200

	// MsgSuccess is the message the phone puts in successful responses.
	MsgSuccess = "success"
)

// Envelope is the signed structure sent in both directions.
type Envelope struct {
	// Data is the opaque payload
	Data map[string]any `json:"data"`

	// Timestamp is the signing time in milliseconds since the Unix epoch
	Timestamp int64 `json:"timestamp"`

	// Sign is derived from Timestamp and the shared secret
	Sign string `json:"sign"`
}

// Response is the envelope returned by the phone, with its payload decoded as T.
type Response[T any] struct {
	Code      int     `json:"code"`
	Msg       *string `json:"msg,omitempty"`
	Data      *T      `json:"data,omitempty"`
	Timestamp int64   `json:"timestamp"`
	Sign      *string `json:"sign,omitempty"`
}

// SimInfo describes one SIM slot of the phone.
type SimInfo struct {
	CarrierName    string `json:"carrier_name"`
	CountryISO     string `json:"country_iso"`
	IccID          string `json:"icc_id"`
	Number         string `json:"number"`
	SimSlotIndex   int    `json:"sim_slot_index"`
	SubscriptionID int    `json:"subscription_id"`
}

// DeviceConfig is the payload of the config query.
type DeviceConfig struct {
	EnableAPIBatteryQuery bool               `json:"enable_api_battery_query"`
	EnableAPICallQuery    bool               `json:"enable_api_call_query"`
	EnableAPIClone        bool               `json:"enable_api_clone"`
	EnableAPIContactQuery bool               `json:"enable_api_contact_query"`
	EnableAPISmsQuery     bool               `json:"enable_api_sms_query"`
	EnableAPISmsSend      bool               `json:"enable_api_sms_send"`
	EnableAPIWol          bool               `json:"enable_api_wol"`
	ExtraDeviceMark       *string            `json:"extra_device_mark,omitempty"`
	ExtraSim1             *string            `json:"extra_sim1,omitempty"`
	ExtraSim2             *string            `json:"extra_sim2,omitempty"`
	SimInfoList           map[string]SimInfo `json:"sim_info_list,omitempty"`
}

// Battery is the payload of the battery query.
type Battery struct {
	// Level is a percentage string such as "36%"
	Level       string  `json:"level"`
	Scale       *string `json:"scale,omitempty"`
	Voltage     *string `json:"voltage,omitempty"`
	Temperature *string `json:"temperature,omitempty"`
	Status      string  `json:"status"`
	Health      string  `json:"health"`
	Plugged     string  `json:"plugged"`
}

type (
	ConfigResponse  = Response[DeviceConfig]
	BatteryResponse = Response[Battery]
)
