package repository

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	internalerrors "github.com/Schera-ole/phonemetrics/internal/errors"
	models "github.com/Schera-ole/phonemetrics/internal/model"
)

// MemStorage implements DeviceRepository in memory.
type MemStorage struct {
	// mu provides thread-safe access to the device state
	mu sync.RWMutex

	config  models.DeviceConfig
	battery models.Battery
}

// NewMemStorage creates a phone with battery query enabled, the given device
// mark and battery level.
func NewMemStorage(deviceMark, level string) *MemStorage {
	mark := deviceMark
	return &MemStorage{
		config: models.DeviceConfig{
			EnableAPIBatteryQuery: true,
			ExtraDeviceMark:       &mark,
		},
		battery: models.Battery{
			Level:   level,
			Status:  "discharging",
			Health:  "good",
			Plugged: "unplugged",
		},
	}
}

// Config returns a copy of the device configuration.
func (ms *MemStorage) Config(ctx context.Context) (models.DeviceConfig, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	config := ms.config
	if ms.config.ExtraDeviceMark != nil {
		mark := *ms.config.ExtraDeviceMark
		config.ExtraDeviceMark = &mark
	}
	if ms.config.SimInfoList != nil {
		config.SimInfoList = make(map[string]models.SimInfo, len(ms.config.SimInfoList))
		for slot, info := range ms.config.SimInfoList {
			config.SimInfoList[slot] = info
		}
	}
	return config, nil
}

// Battery returns the battery status.
func (ms *MemStorage) Battery(ctx context.Context) (models.Battery, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.battery, nil
}

// SetConfig replaces the device configuration.
func (ms *MemStorage) SetConfig(ctx context.Context, config models.DeviceConfig) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.config = config
	return nil
}

// SetBatteryLevel sets the level. It accepts "42" or "42%" and stores "42%".
func (ms *MemStorage) SetBatteryLevel(ctx context.Context, level string) error {
	value := strings.TrimSuffix(level, "%")
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(parsed) || parsed < 0 || parsed > 100 {
		return fmt.Errorf("%w: %q", internalerrors.ErrInvalidLevel, level)
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.battery.Level = value + "%"
	return nil
}

// Ping always succeeds for MemStorage.
func (ms *MemStorage) Ping(ctx context.Context) error {
	return nil
}
