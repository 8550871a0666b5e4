package cartesian_control

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"
)

//go:embed sixdof_arm.json
var sixdofArmJSON []byte

// Command interface selection. Exactly one is active per controller instance,
// chosen at construction and not switchable at runtime.
const (
	CommandModePosition = "position"
	CommandModeVelocity = "velocity"
)

// Config is the controller configuration as supplied by the hosting runtime.
type Config struct {
	// RobotDescription is an optional path to a JSON robot description; the
	// embedded six-axis sample arm is used when empty.
	RobotDescription string `json:"robot_description,omitempty"`

	BaseLink        string   `json:"robot_base_link"`
	EndEffectorLink string   `json:"end_effector_link"`
	Joints          []string `json:"joints"`

	// CommandMode selects the command interface (default: position).
	CommandMode string `json:"command_interface,omitempty"`

	// Per-axis gains, ordered x, y, z, rx, ry, rz. Empty slices mean all
	// zeros; anything else must carry exactly six values.
	PGains []float64 `json:"p_gains,omitempty"`
	IGains []float64 `json:"i_gains,omitempty"`
	DGains []float64 `json:"d_gains,omitempty"`

	// WindupLimit bounds each axis integral term symmetrically (0 disables).
	WindupLimit float64 `json:"windup_limit,omitempty"`

	// Not serialized
	Logger logging.Logger `json:"-"`
}

// Validate ensures all parts of the config are valid
func (cfg *Config) Validate(path string) ([]string, []string, error) {
	if len(cfg.Joints) == 0 {
		return nil, nil, fmt.Errorf("must specify at least one joint name")
	}

	if cfg.CommandMode == "" {
		cfg.CommandMode = CommandModePosition
	}
	if cfg.CommandMode != CommandModePosition && cfg.CommandMode != CommandModeVelocity {
		return nil, nil, fmt.Errorf("command_interface must be %q or %q, got %q",
			CommandModePosition, CommandModeVelocity, cfg.CommandMode)
	}

	for name, gains := range map[string][]float64{
		"p_gains": cfg.PGains,
		"i_gains": cfg.IGains,
		"d_gains": cfg.DGains,
	} {
		if len(gains) != 0 && len(gains) != 6 {
			return nil, nil, fmt.Errorf("%s must have 6 values (3 linear + 3 angular), got %d", name, len(gains))
		}
	}

	if cfg.WindupLimit < 0 {
		return nil, nil, fmt.Errorf("windup_limit must not be negative, got %f", cfg.WindupLimit)
	}

	return nil, nil, nil
}

// LoadDescription reads the configured robot description file, falling back
// to the embedded sample arm when none is configured.
func (cfg *Config) LoadDescription() (*ChainDescription, error) {
	if cfg.RobotDescription == "" {
		return ParseChainDescription(sixdofArmJSON)
	}
	data, err := os.ReadFile(cfg.RobotDescription)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read robot description %s", cfg.RobotDescription)
	}
	return ParseChainDescription(data)
}

// axisGains assembles the per-axis PID gains from the configured slices.
func (cfg *Config) axisGains() [6]PIDGains {
	var gains [6]PIDGains
	for i := 0; i < 6; i++ {
		if len(cfg.PGains) == 6 {
			gains[i].P = cfg.PGains[i]
		}
		if len(cfg.IGains) == 6 {
			gains[i].I = cfg.IGains[i]
		}
		if len(cfg.DGains) == 6 {
			gains[i].D = cfg.DGains[i]
		}
	}
	return gains
}
