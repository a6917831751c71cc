// Package phonemetrics reads the battery level of an Android phone running an
// SMS forwarder and publishes it as a time-series metric.
//
// The phone exposes a small HTTP API. Every request and response is a JSON
// envelope carrying a millisecond timestamp and an HMAC-SHA256 signature
// derived from it and a shared secret; responses whose signature does not
// verify are discarded.
//
// Components:
//   - cmd/agent: CLI that queries the phone and reports the battery metric
//   - cmd/phonesim: simulator serving the same signed API for local runs
//   - internal/client: signed API client
//   - internal/reporter and internal/sink: metric points and the stores they
//     go to (CloudWatch, PostgreSQL, DynamoDB, Kafka, MQTT, JSON lines, memory)
//
// Both binaries are configured with flags, PM_* environment variables and an
// optional .env file.
package phonemetrics
