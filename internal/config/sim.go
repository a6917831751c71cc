package config

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	internalerrors "github.com/Schera-ole/phonemetrics/internal/errors"
)

const (
	KeySimAddress      = "sim_address"
	KeySimDeviceMark   = "sim_device_mark"
	KeySimBatteryLevel = "sim_battery_level"
	KeySimMaxSkew      = "sim_max_skew"
)

// SimConfig holds the settings of the phone simulator.
type SimConfig struct {
	Address      string
	Secret       string
	DeviceMark   string
	BatteryLevel string
	// MaxSkew bounds the accepted request timestamp age; zero disables the check
	MaxSkew  time.Duration
	LogLevel string
	LogFile  string
}

func setSimDefaults(v *viper.Viper) {
	v.SetDefault(KeySimAddress, "localhost:5000")
	v.SetDefault(KeySimDeviceMark, "phonesim")
	v.SetDefault(KeySimBatteryLevel, "100%")
	v.SetDefault(KeySimMaxSkew, time.Duration(0))
}

// SimFlags defines the simulator flags on fs.
func SimFlags(fs *pflag.FlagSet) {
	fs.String("sim-address", "", "Address to listen on")
	fs.String("secret", "", "Shared secret used to sign responses")
	fs.String("sim-device-mark", "", "Device mark reported by the config query")
	fs.String("sim-battery-level", "", "Battery level reported by the battery query")
	fs.Duration("sim-max-skew", 0, "Reject requests whose timestamp is older or newer than this; 0 disables")
	fs.String("log-level", "", "Log level: debug, info, warn or error")
	fs.String("log-file", "", "Write logs to this file instead of stderr")
}

// NewSimConfig reads the simulator settings from v.
func NewSimConfig(v *viper.Viper) (*SimConfig, error) {
	config := &SimConfig{
		Address:      v.GetString(KeySimAddress),
		Secret:       v.GetString(KeySecret),
		DeviceMark:   v.GetString(KeySimDeviceMark),
		BatteryLevel: v.GetString(KeySimBatteryLevel),
		MaxSkew:      v.GetDuration(KeySimMaxSkew),
		LogLevel:     v.GetString(KeyLogLevel),
		LogFile:      v.GetString(KeyLogFile),
	}
	if config.Secret == "" {
		return nil, internalerrors.ErrMissingSecret
	}
	return config, nil
}
