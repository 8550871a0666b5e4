package cartesian_control

// JointHandle is the per-joint contract with the hardware abstraction layer.
// Measured position and velocity are read-only to the controller; SetCommand
// receives either a position or a velocity target depending on the command
// interface the controller was built with. Handles are looked up once at
// construction and cached for the controller's lifetime.
type JointHandle interface {
	Name() string
	Position() float64
	Velocity() float64
	SetCommand(value float64)
}

// Hardware resolves joint handles by name. An unknown joint name is an error
// and aborts controller construction.
type Hardware interface {
	Handle(jointName string) (JointHandle, error)
}
