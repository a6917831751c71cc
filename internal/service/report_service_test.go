package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Schera-ole/phonemetrics/internal/client"
	internalerrors "github.com/Schera-ole/phonemetrics/internal/errors"
	models "github.com/Schera-ole/phonemetrics/internal/model"
	"github.com/Schera-ole/phonemetrics/internal/reporter"
	"github.com/Schera-ole/phonemetrics/internal/sign"
	"github.com/Schera-ole/phonemetrics/internal/sink"
)

const (
	configTS  = int64(1700000000000)
	batteryTS = int64(1700000000500)
)

// phone serves the config and battery queries. Battery responses are signed
// with batterySecret.
func phone(t *testing.T, secret, batterySecret string) *httptest.Server {
	t.Helper()
	signer := sign.NewSigner(secret)
	batterySigner := sign.NewSigner(batterySecret)

	mux := http.NewServeMux()
	mux.HandleFunc("/config/query", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.Envelope{
			Data:      map[string]any{"extra_device_mark": "dev-1"},
			Timestamp: configTS,
			Sign:      signer.Sign(configTS),
		})
	})
	mux.HandleFunc("/battery/query", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.Envelope{
			Data:      map[string]any{"level": "77%", "status": "charging", "health": "good", "plugged": "AC"},
			Timestamp: batteryTS,
			Sign:      batterySigner.Sign(batteryTS),
		})
	})
	return httptest.NewServer(mux)
}

type MockedReporter struct {
	Readings []models.Reading
	Err      error
}

func (m *MockedReporter) Report(ctx context.Context, reading models.Reading) error {
	m.Readings = append(m.Readings, reading)
	return m.Err
}

func TestReportService_Run(t *testing.T) {
	ts := phone(t, "s3cr3t", "s3cr3t")
	defer ts.Close()

	rep := &MockedReporter{}
	rs := NewReportService(client.New(ts.URL, "s3cr3t"), rep, nil)

	reading, err := rs.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, rep.Readings, 1)
	want := models.Reading{Identifier: "dev-1", Value: 77.0, Timestamp: batteryTS}
	assert.Equal(t, want, rep.Readings[0])
	assert.Equal(t, want, reading)
}

func TestReportService_RunPublishesPoint(t *testing.T) {
	ts := phone(t, "s3cr3t", "s3cr3t")
	defer ts.Close()

	mem := sink.NewMemSink()
	rs := NewReportService(client.New(ts.URL, "s3cr3t"), reporter.New(mem, "", nil), nil)

	_, err := rs.Run(context.Background())
	require.NoError(t, err)

	points := mem.Points()
	require.Len(t, points, 1)
	assert.Equal(t, "phone", points[0].Namespace)
	assert.Equal(t, "battery", points[0].Name)
	id, ok := points[0].Dimension("phone_id")
	assert.True(t, ok)
	assert.Equal(t, "dev-1", id)
	assert.Equal(t, batteryTS, points[0].Timestamp.UnixMilli())
	assert.Equal(t, "Percent", points[0].Unit)
}

func TestReportService_TamperedResponse(t *testing.T) {
	ts := phone(t, "s3cr3t", "not-the-secret")
	defer ts.Close()

	rep := &MockedReporter{}
	rs := NewReportService(client.New(ts.URL, "s3cr3t"), rep, nil)

	_, err := rs.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, internalerrors.ErrUnverifiableResponse)
	assert.Empty(t, rep.Readings)
}

type MockedDevice struct {
	Config     *models.ConfigResponse
	Battery    *models.BatteryResponse
	ConfigErr  error
	BatteryErr error

	BatteryCalled bool
}

func (m *MockedDevice) QueryConfig(ctx context.Context) (*models.ConfigResponse, error) {
	return m.Config, m.ConfigErr
}

func (m *MockedDevice) QueryBattery(ctx context.Context) (*models.BatteryResponse, error) {
	m.BatteryCalled = true
	return m.Battery, m.BatteryErr
}

func strPtr(s string) *string {
	return &s
}

func TestReportService_ConfigFailureStopsRun(t *testing.T) {
	device := &MockedDevice{ConfigErr: errors.New("connection refused")}
	rep := &MockedReporter{}

	_, err := NewReportService(device, rep, nil).Run(context.Background())
	require.Error(t, err)
	assert.False(t, device.BatteryCalled)
	assert.Empty(t, rep.Readings)
}

func TestReportService_ReporterError(t *testing.T) {
	device := &MockedDevice{
		Config:  &models.ConfigResponse{Data: &models.DeviceConfig{ExtraDeviceMark: strPtr("dev-1")}},
		Battery: &models.BatteryResponse{Data: &models.Battery{Level: "5%"}, Timestamp: 7},
	}
	publishErr := errors.New("quota exceeded")
	rep := &MockedReporter{Err: publishErr}

	_, err := NewReportService(device, rep, nil).Run(context.Background())
	assert.ErrorIs(t, err, publishErr)
}

func TestReadingFrom(t *testing.T) {
	config := &models.ConfigResponse{Data: &models.DeviceConfig{ExtraDeviceMark: strPtr("Dev")}}
	battery := &models.BatteryResponse{Data: &models.Battery{Level: "36%"}, Timestamp: 1737054664309}

	reading, err := ReadingFrom(config, battery)
	require.NoError(t, err)
	assert.Equal(t, models.Reading{Identifier: "Dev", Value: 36, Timestamp: 1737054664309}, reading)

	tests := []struct {
		name    string
		config  *models.ConfigResponse
		battery *models.BatteryResponse
		wantErr error
	}{
		{name: "no config data", config: &models.ConfigResponse{}, battery: battery, wantErr: internalerrors.ErrMissingField},
		{name: "no device mark", config: &models.ConfigResponse{Data: &models.DeviceConfig{}}, battery: battery, wantErr: internalerrors.ErrMissingField},
		{name: "no battery data", config: config, battery: &models.BatteryResponse{}, wantErr: internalerrors.ErrMissingField},
		{name: "bad level", config: config, battery: &models.BatteryResponse{Data: &models.Battery{Level: "full"}}, wantErr: internalerrors.ErrInvalidLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadingFrom(tt.config, tt.battery)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level string
		want  float64
	}{
		{level: "42%", want: 42.0},
		{level: "100%", want: 100.0},
		{level: "0%", want: 0},
		{level: "36.5%", want: 36.5},
		{level: "77", want: 77},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			got, err := ParseLevel(tt.level)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "%", "abc%", "4 2%", "NaN%", "Inf%", "-Infinity"} {
		_, err := ParseLevel(bad)
		assert.ErrorIs(t, err, internalerrors.ErrInvalidLevel, bad)
	}
}
