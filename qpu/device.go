package qpu

import (
	"fmt"

	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/core"
	"go.uber.org/zap"
)

const (
	DeviceSettingName = "device"
	NoiseSettingName  = "noise"

	DefaultDeviceName   = "qsim"
	DefaultProviderName = "local"
	DefaultMaxShots     = 100000
)

// DeviceSetting is the [device] table of the setting file.
type DeviceSetting struct {
	DeviceName   string `toml:"device_name"`
	ProviderName string `toml:"provider_name"`
	MaxQubits    int    `toml:"max_qubits"`
	MaxShots     int    `toml:"max_shots"`
}

func NewDeviceSetting() *DeviceSetting {
	return &DeviceSetting{
		DeviceName:   DefaultDeviceName,
		ProviderName: DefaultProviderName,
		MaxQubits:    circuit.MaxQubits,
		MaxShots:     DefaultMaxShots,
	}
}

// LoadDeviceSetting reads the [device] table of the loaded setting, keeping
// defaults for absent keys.
func LoadDeviceSetting() (*DeviceSetting, error) {
	ds := NewDeviceSetting()
	found, err := core.GetComponentSetting(DeviceSettingName, ds)
	if err != nil {
		return nil, err
	}
	if !found {
		zap.L().Debug("no device setting, using defaults")
	}
	if err := ds.validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

func (ds *DeviceSetting) validate() error {
	if ds.MaxQubits < 1 || ds.MaxQubits > circuit.MaxQubits {
		return fmt.Errorf("%w: max_qubits must be within [1, %d], got %d",
			core.ErrConfiguration, circuit.MaxQubits, ds.MaxQubits)
	}
	if ds.MaxShots < 1 {
		return fmt.Errorf("%w: max_shots must be positive, got %d", core.ErrConfiguration, ds.MaxShots)
	}
	return nil
}
