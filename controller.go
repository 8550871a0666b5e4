package cartesian_control

import (
	"fmt"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/spatialmath"
)

// ControllerState tracks the lifecycle of a Controller.
type ControllerState int

const (
	StateUninitialized ControllerState = iota
	StateInitialized
	StateRunning
	StateStopped
)

func (s ControllerState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// commandWriter dispatches one cycle's joint motion to the hardware command
// interface. The implementation is chosen once at construction from the
// configured command mode.
type commandWriter interface {
	write(motion JointMotion) error
}

type positionCommandWriter struct {
	handles []JointHandle
}

func (w *positionCommandWriter) write(motion JointMotion) error {
	if len(motion.Positions) != len(w.handles) {
		return fmt.Errorf("expected %d position commands, got %d", len(w.handles), len(motion.Positions))
	}
	for i, handle := range w.handles {
		handle.SetCommand(motion.Positions[i].Value)
	}
	return nil
}

type velocityCommandWriter struct {
	handles []JointHandle
}

func (w *velocityCommandWriter) write(motion JointMotion) error {
	if len(motion.Velocities) != len(w.handles) {
		return fmt.Errorf("expected %d velocity commands, got %d", len(w.handles), len(motion.Velocities))
	}
	for i, handle := range w.handles {
		handle.SetCommand(motion.Velocities[i])
	}
	return nil
}

// Controller runs the per-cycle Cartesian control sequence: Cartesian error
// in, PID velocity, forward dynamics, joint commands out. All methods are
// meant to be driven synchronously from a single control thread.
type Controller struct {
	cfg    *Config
	logger logging.Logger

	chain    *KinematicChain
	pid      *SpatialPID
	dynamics *ForwardDynamicsSolver
	fk       *ForwardKinematicsSolver
	handles  []JointHandle
	writer   commandWriter

	state ControllerState

	// measurement scratch reused every activation
	measuredPos []float64
	measuredVel []float64
}

// NewController performs the one-time setup: load and resolve the kinematic
// chain, acquire joint handles from the hardware layer, and configure the
// solvers and PID stage. Any failure aborts construction; a controller that
// failed setup can never run.
func NewController(cfg *Config, hw Hardware, logger logging.Logger) (*Controller, error) {
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	if _, _, err := cfg.Validate(""); err != nil {
		return nil, errors.Wrap(err, "invalid controller config")
	}

	desc, err := cfg.LoadDescription()
	if err != nil {
		return nil, err
	}
	if cfg.BaseLink == "" || cfg.EndEffectorLink == "" {
		// Reported and treated as fatal; running without resolved frames
		// is never safe.
		logger.Errorf("robot_base_link and end_effector_link must both be configured (got %q, %q)",
			cfg.BaseLink, cfg.EndEffectorLink)
		return nil, fmt.Errorf("missing robot_base_link or end_effector_link configuration")
	}
	chain, err := BuildChain(desc, cfg.BaseLink, cfg.EndEffectorLink)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build kinematic chain")
	}

	chainJoints := chain.JointNames()
	if len(chainJoints) != len(cfg.Joints) {
		return nil, fmt.Errorf("configured %d joints but chain %q to %q has %d movable joints",
			len(cfg.Joints), cfg.BaseLink, cfg.EndEffectorLink, len(chainJoints))
	}
	for i, name := range chainJoints {
		if cfg.Joints[i] != name {
			return nil, fmt.Errorf("configured joint %q at index %d does not match chain joint %q",
				cfg.Joints[i], i, name)
		}
	}

	handles := make([]JointHandle, 0, len(cfg.Joints))
	for _, name := range cfg.Joints {
		handle, err := hw.Handle(name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to acquire handle for joint %q", name)
		}
		handles = append(handles, handle)
	}

	dynamics, err := NewForwardDynamicsSolver(chain)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:         cfg,
		logger:      logger,
		chain:       chain,
		pid:         NewSpatialPID(cfg.axisGains(), cfg.WindupLimit),
		dynamics:    dynamics,
		fk:          NewForwardKinematicsSolver(chain),
		handles:     handles,
		measuredPos: make([]float64, len(handles)),
		measuredVel: make([]float64, len(handles)),
		state:       StateInitialized,
	}
	switch cfg.CommandMode {
	case CommandModeVelocity:
		c.writer = &velocityCommandWriter{handles: handles}
	default:
		c.writer = &positionCommandWriter{handles: handles}
	}

	logger.Infof("cartesian controller initialized: chain %q -> %q, %d joints, %s interface",
		cfg.BaseLink, cfg.EndEffectorLink, len(handles), cfg.CommandMode)
	return c, nil
}

// State returns the controller's lifecycle state.
func (c *Controller) State() ControllerState {
	return c.state
}

// Chain returns the resolved kinematic chain.
func (c *Controller) Chain() *KinematicChain {
	return c.chain
}

// Start activates the controller: the simulated joint state is synchronized
// to the measured hardware state exactly once, before any cycle runs.
func (c *Controller) Start() error {
	if c.state != StateInitialized && c.state != StateStopped {
		return fmt.Errorf("cannot start controller from state %s", c.state)
	}
	for i, handle := range c.handles {
		c.measuredPos[i] = handle.Position()
		c.measuredVel[i] = handle.Velocity()
	}
	if err := c.dynamics.SetStartState(c.measuredPos, c.measuredVel); err != nil {
		return err
	}
	c.state = StateRunning
	c.logger.Debugf("cartesian controller started at joint positions %v", c.measuredPos)
	return nil
}

// Stop deactivates the controller. The simulated state is retained but stale
// until the next Start.
func (c *Controller) Stop() error {
	if c.state != StateRunning {
		return fmt.Errorf("cannot stop controller from state %s", c.state)
	}
	c.state = StateStopped
	c.logger.Debug("cartesian controller stopped")
	return nil
}

// Update runs one control cycle: PID on the supplied Cartesian error, the
// forward dynamics solve, and the mode-specific command write. A cycle-local
// failure (invalid period, singular solve) is reported, answered with a
// hold-position fallback command, and leaves all persistent state valid for
// the next cycle.
func (c *Controller) Update(period time.Duration, cartesianErr Vector6D) error {
	if c.state != StateRunning {
		return fmt.Errorf("controller is %s, not running", c.state)
	}

	cartesianVel, err := c.pid.ComputeVelocity(cartesianErr, period)
	if err != nil {
		c.logger.Errorf("skipping control cycle: %v", err)
		return c.writeHoldCommand(err)
	}

	motion, err := c.dynamics.JointControlCmds(period, cartesianVel)
	if err != nil {
		c.logger.Errorf("skipping control cycle: %v", err)
		return c.writeHoldCommand(err)
	}

	return c.writer.write(motion)
}

// writeHoldCommand substitutes a safe command for a failed cycle: hold the
// current simulated positions at zero velocity. The cycle error is still
// surfaced to the caller.
func (c *Controller) writeHoldCommand(cause error) error {
	hold := JointMotion{
		Positions:  c.dynamics.Positions(),
		Velocities: make([]float64, len(c.handles)),
	}
	if err := c.writer.write(hold); err != nil {
		c.logger.Errorf("failed to write hold command: %v", err)
	}
	return cause
}

// EndEffectorPose returns the pose of the end-effector link relative to the
// base link at the current simulated joint positions.
func (c *Controller) EndEffectorPose() (spatialmath.Pose, error) {
	return c.fk.PoseOf(c.chain.EndEffectorLink(), c.dynamics.Positions())
}

// SimulatedPositions returns the solver's current simulated joint positions.
func (c *Controller) SimulatedPositions() []float64 {
	inputs := c.dynamics.Positions()
	out := make([]float64, len(inputs))
	for i, input := range inputs {
		out[i] = input.Value
	}
	return out
}

// WrenchInBaseLink re-expresses a sensed wrench in the chain's base link. The
// transform is looked up fresh on every call at the solver's simulated joint
// positions, so sensor readings stay consistent with the controller's own
// motion model rather than the raw hardware state.
func (c *Controller) WrenchInBaseLink(w Wrench) (Wrench, error) {
	tf, err := c.fk.PoseOf(w.Frame, c.dynamics.Positions())
	if err != nil {
		return Wrench{}, errors.Wrapf(err, "cannot transform wrench from frame %q", w.Frame)
	}
	return w.Transformed(tf, c.chain.BaseLink()), nil
}

// PoseError is a convenience for hosts closing the loop on a pose target: the
// linear and angular displacement taking current to target, as a Vector6D.
func PoseError(current, target spatialmath.Pose) Vector6D {
	linear := target.Point().Sub(current.Point())
	aa := spatialmath.OrientationBetween(current.Orientation(), target.Orientation()).AxisAngles()
	angular := r3.Vector{X: aa.RX, Y: aa.RY, Z: aa.RZ}.Mul(aa.Theta)
	return Vector6D{linear.X, linear.Y, linear.Z, angular.X, angular.Y, angular.Z}
}
