package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/utils"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/validator"
	"gopkg.in/yaml.v3"
)

// SyncConfig is the deployment table: which devices exist, which way they face, and
// how shifts are scheduled.
type SyncConfig struct {
	Timezone     string                 `yaml:"timezone" validate:"omitempty,timezone"`
	WindowPolicy string                 `yaml:"window_policy" validate:"omitempty,oneof=all_history single_day"`
	DayBoundary  string                 `yaml:"day_boundary" validate:"omitempty,clock"`
	Devices      []DeviceConfig         `yaml:"devices" validate:"required,min=1,unique=Address,dive"`
	Shifts       []DefaultShiftConfig   `yaml:"shifts" validate:"omitempty,max=3,unique=Kind,dive"`
	CustomShifts map[string]ShiftConfig `yaml:"custom_shifts" validate:"omitempty,dive"`
}

type DeviceConfig struct {
	Address string `yaml:"address" validate:"required,hostname|ip"`
	Port    int    `yaml:"port" validate:"omitempty,min=1,max=65535"`
	Label   string `yaml:"label"`
	// Direction defaults to the last word of Label, e.g. " 509 IN".
	Direction string `yaml:"direction" validate:"omitempty,oneof=IN OUT in out"`
}

type ShiftConfig struct {
	Name          string  `yaml:"name"`
	Start         string  `yaml:"start" validate:"required,clock"`
	ExpectedHours float64 `yaml:"expected_hours" validate:"gt=0,max=24"`
	LengthHours   float64 `yaml:"length_hours" validate:"gt=0,max=24,gtefield=ExpectedHours"`
}

type DefaultShiftConfig struct {
	Kind        string `yaml:"kind" validate:"required,oneof=morning evening night"`
	ShiftConfig `yaml:",inline"`
}

// LoadSyncConfig reads and validates the YAML file at path.
func LoadSyncConfig(path string) (*SyncConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sync config: %w", err)
	}
	return ParseSyncConfig(data)
}

// ParseSyncConfig decodes and validates a sync config document. Unknown keys are rejected.
func ParseSyncConfig(data []byte) (*SyncConfig, error) {
	var cfg SyncConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse sync config: %w", err)
	}

	if err := validator.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid sync config: %w", err)
	}
	return &cfg, nil
}

// Location returns the timezone device clocks are read in. Empty means the host zone.
func (c *SyncConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *SyncConfig) Policy() (attendance.WindowPolicy, error) {
	return attendance.ParseWindowPolicy(c.WindowPolicy)
}

// Boundary returns the time of day at which an attendance day starts.
func (c *SyncConfig) Boundary() (time.Duration, error) {
	if c.DayBoundary == "" {
		return 0, nil
	}
	return utils.ParseClock(c.DayBoundary)
}

func (c *SyncConfig) DeviceList() ([]punch.Device, error) {
	devices := make([]punch.Device, 0, len(c.Devices))
	for i, d := range c.Devices {
		raw := d.Direction
		if raw == "" {
			raw = d.Label
		}
		direction, err := punch.ParseDirection(raw)
		if err != nil {
			return nil, fmt.Errorf("devices[%d] %s: %w", i, d.Address, err)
		}
		devices = append(devices, punch.Device{
			Address:   d.Address,
			Port:      d.Port,
			Label:     d.Label,
			Direction: direction,
		})
	}
	return devices, nil
}

func (s ShiftConfig) toShift(kind attendance.ShiftKind) (attendance.Shift, error) {
	start, err := utils.ParseClock(s.Start)
	if err != nil {
		return attendance.Shift{}, err
	}
	return attendance.Shift{
		Kind:            kind,
		Name:            s.Name,
		Start:           start,
		ExpectedMinutes: int(s.ExpectedHours * 60),
		LengthMinutes:   int(s.LengthHours * 60),
	}, nil
}

// ShiftTable builds the shift table. Buckets missing from the file keep their stock
// definition; custom shifts without a name are named after the employee id.
func (c *SyncConfig) ShiftTable() (attendance.ShiftTable, error) {
	defaults := attendance.DefaultShifts()
	for _, sc := range c.Shifts {
		kind, err := attendance.ParseShiftKind(sc.Kind)
		if err != nil {
			return attendance.ShiftTable{}, err
		}
		shift, err := sc.toShift(kind)
		if err != nil {
			return attendance.ShiftTable{}, fmt.Errorf("shift %s: %w", sc.Kind, err)
		}
		for i := range defaults {
			if defaults[i].Kind == kind {
				defaults[i] = shift
			}
		}
	}

	custom := make(map[string]attendance.Shift, len(c.CustomShifts))
	for employeeID, sc := range c.CustomShifts {
		shift, err := sc.toShift(attendance.ShiftCustom)
		if err != nil {
			return attendance.ShiftTable{}, fmt.Errorf("custom shift %s: %w", employeeID, err)
		}
		if shift.Name == "" {
			shift.Name = employeeID
		}
		custom[employeeID] = shift
	}

	return attendance.NewShiftTable(defaults, custom)
}
