// Package repository holds the state served by the phone simulator.
package repository

import (
	"context"

	models "github.com/Schera-ole/phonemetrics/internal/model"
)

// DeviceRepository stores the configuration and battery status of a phone.
type DeviceRepository interface {
	Config(ctx context.Context) (models.DeviceConfig, error)
	Battery(ctx context.Context) (models.Battery, error)
	SetConfig(ctx context.Context, config models.DeviceConfig) error
	SetBatteryLevel(ctx context.Context, level string) error
	Ping(ctx context.Context) error
}
