package cartesian_control

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"go.viam.com/rdk/components/generic"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
)

// CartesianMotionModel is the model triplet this module registers.
var CartesianMotionModel = resource.NewModel("devrel", "controller", "cartesian-motion")

func init() {
	resource.RegisterComponent(generic.API, CartesianMotionModel,
		resource.Registration[resource.Resource, *Config]{
			Constructor: newCartesianMotion,
		},
	)
}

// cartesianMotion hosts a Controller as a generic component. The hosting
// runtime drives the lifecycle through DoCommand; the component owns a
// simulated joint set standing in for the robot's hardware interface.
type cartesianMotion struct {
	resource.Named
	resource.AlwaysRebuild

	mu         sync.Mutex
	logger     logging.Logger
	hw         *SimHardware
	controller *Controller
	mode       string
}

func newCartesianMotion(ctx context.Context, deps resource.Dependencies, rawConf resource.Config, logger logging.Logger) (resource.Resource, error) {
	conf, err := resource.NativeConfig[*Config](rawConf)
	if err != nil {
		return nil, err
	}
	conf.Logger = logger

	hw := NewSimHardware(conf.Joints...)
	controller, err := NewController(conf, hw, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cartesian controller: %w", err)
	}

	return &cartesianMotion{
		Named:      rawConf.ResourceName().AsNamed(),
		logger:     logger,
		hw:         hw,
		controller: controller,
		mode:       conf.CommandMode,
	}, nil
}

func (g *cartesianMotion) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch cmd["command"] {
	case "start":
		if err := g.controller.Start(); err != nil {
			return nil, err
		}
		return map[string]interface{}{"state": g.controller.State().String()}, nil

	case "stop":
		if err := g.controller.Stop(); err != nil {
			return nil, err
		}
		return map[string]interface{}{"state": g.controller.State().String()}, nil

	case "state":
		return map[string]interface{}{"state": g.controller.State().String()}, nil

	case "update":
		periodS, ok := cmd["period_s"].(float64)
		if !ok {
			return nil, fmt.Errorf("update command requires a 'period_s' number parameter")
		}
		errVec, err := vector6DFromCommand(cmd["error"])
		if err != nil {
			return nil, err
		}
		period := time.Duration(periodS * float64(time.Second))
		if err := g.controller.Update(period, errVec); err != nil {
			return nil, err
		}
		if g.mode == CommandModeVelocity {
			g.hw.LatchVelocities(period)
		} else {
			g.hw.LatchPositions()
		}
		return map[string]interface{}{
			"positions": g.controller.SimulatedPositions(),
		}, nil

	case "wrench_in_base":
		frame, ok := cmd["frame"].(string)
		if !ok {
			return nil, fmt.Errorf("wrench_in_base command requires a 'frame' string parameter")
		}
		force, err := vectorFromCommand(cmd["force"])
		if err != nil {
			return nil, err
		}
		torque, err := vectorFromCommand(cmd["torque"])
		if err != nil {
			return nil, err
		}
		out, err := g.controller.WrenchInBaseLink(Wrench{Force: force, Torque: torque, Frame: frame})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"frame":  out.Frame,
			"force":  []float64{out.Force.X, out.Force.Y, out.Force.Z},
			"torque": []float64{out.Torque.X, out.Torque.Y, out.Torque.Z},
		}, nil

	default:
		return nil, fmt.Errorf("unknown command: %v", cmd["command"])
	}
}

func (g *cartesianMotion) Close(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.controller.State() == StateRunning {
		return g.controller.Stop()
	}
	return nil
}

func floatsFromCommand(raw interface{}, want int) ([]float64, error) {
	values, ok := raw.([]interface{})
	if !ok || len(values) != want {
		return nil, fmt.Errorf("expected an array of %d numbers, got %v", want, raw)
	}
	out := make([]float64, want)
	for i, v := range values {
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("expected a number at index %d, got %v", i, v)
		}
		out[i] = f
	}
	return out, nil
}

func vector6DFromCommand(raw interface{}) (Vector6D, error) {
	values, err := floatsFromCommand(raw, 6)
	if err != nil {
		return Vector6D{}, err
	}
	var out Vector6D
	copy(out[:], values)
	return out, nil
}

func vectorFromCommand(raw interface{}) (r3.Vector, error) {
	values, err := floatsFromCommand(raw, 3)
	if err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector{X: values[0], Y: values[1], Z: values[2]}, nil
}
