package robot

import (
	"encoding/json"
	"os"
)

const DefaultConfigFile = "autonreplay.json"

// Mechanism driver kinds.
const (
	MechanismGPIO  = "gpio"
	MechanismServo = "servo"
)

// Config holds the robot configuration
type Config struct {
	Bridge     BridgeConfig                  `json:"bridge"`
	Motors     Calibration                   `json:"motors,omitempty"`
	Mechanisms map[Mechanism]MechanismConfig `json:"mechanisms,omitempty"`
	ServoPort  string                        `json:"servo_port,omitempty"`
	Recording  RecordingConfig               `json:"recording"`
}

// BridgeConfig holds the serial link to the motor/IMU microcontroller
type BridgeConfig struct {
	Port     string `json:"port"`
	BaudRate int    `json:"baud_rate,omitempty"`
}

// MechanismConfig describes how a two-state mechanism is wired.
// GPIO mechanisms use Pin; servo mechanisms use ServoID and the two
// raw positions.
type MechanismConfig struct {
	Kind      string `json:"kind"`
	Pin       string `json:"pin,omitempty"`
	ServoID   int    `json:"servo_id,omitempty"`
	Retracted int    `json:"retracted,omitempty"`
	Extended  int    `json:"extended,omitempty"`
}

// RecordingConfig holds record/playback settings
type RecordingConfig struct {
	Path           string  `json:"path"`
	CorrectionGain float64 `json:"correction_gain"`
	Hz             int     `json:"hz"`
}

// IsConfigured returns true if the bridge port is set
func (c *Config) IsConfigured() bool {
	return c.Bridge.Port != ""
}

// DefaultCalibration returns the standard six-motor wiring: two motors per
// drive side, one intake and one outtake.
func DefaultCalibration() Calibration {
	return Calibration{
		"left_front":  {Channel: 0, Group: LeftDrive},
		"left_back":   {Channel: 1, Group: LeftDrive},
		"right_front": {Channel: 2, Group: RightDrive, Reversed: true},
		"right_back":  {Channel: 3, Group: RightDrive, Reversed: true},
		"intake":      {Channel: 4, Group: Intake},
		"outtake":     {Channel: 5, Group: Outtake},
	}
}

// DefaultConfig returns a configuration with the standard wiring and no port
func DefaultConfig() *Config {
	return &Config{
		Bridge: BridgeConfig{BaudRate: DefaultBaudRate},
		Motors: DefaultCalibration(),
		Mechanisms: map[Mechanism]MechanismConfig{
			MidScoring: {Kind: MechanismGPIO, Pin: "GPIO17"},
			Descore:    {Kind: MechanismGPIO, Pin: "GPIO27"},
			Unloader:   {Kind: MechanismGPIO, Pin: "GPIO22"},
		},
		Recording: RecordingConfig{
			Path:           "auton_recording.bin",
			CorrectionGain: 2.0,
			Hz:             50,
		},
	}
}

// LoadConfigFrom loads configuration from a specific file. Missing fields
// keep their defaults.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Bridge.BaudRate == 0 {
		c.Bridge.BaudRate = def.Bridge.BaudRate
	}
	if c.Motors == nil {
		c.Motors = def.Motors
	}
	if c.Mechanisms == nil {
		c.Mechanisms = def.Mechanisms
	}
	if c.Recording.Path == "" {
		c.Recording.Path = def.Recording.Path
	}
	if c.Recording.CorrectionGain == 0 {
		c.Recording.CorrectionGain = def.Recording.CorrectionGain
	}
	if c.Recording.Hz <= 0 {
		c.Recording.Hz = def.Recording.Hz
	}
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the config file exists
func ConfigExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
