package cartesian_control

import (
	"fmt"
	"sync"
	"time"
)

// SimJoint is an in-memory joint used in place of real hardware by tests, the
// CLI demo and the module host. Reads and writes are safe for concurrent use.
type SimJoint struct {
	mu        sync.RWMutex
	name      string
	position  float64
	velocity  float64
	command   float64
	commanded bool
}

func (j *SimJoint) Name() string {
	return j.name
}

func (j *SimJoint) Position() float64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.position
}

func (j *SimJoint) Velocity() float64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.velocity
}

func (j *SimJoint) SetCommand(value float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.command = value
	j.commanded = true
}

// Command returns the last written command and whether one was written since
// the joint was created.
func (j *SimJoint) Command() (float64, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.command, j.commanded
}

// SimHardware is a set of simulated joints keyed by name.
type SimHardware struct {
	mu     sync.RWMutex
	order  []string
	joints map[string]*SimJoint
}

func NewSimHardware(jointNames ...string) *SimHardware {
	hw := &SimHardware{joints: make(map[string]*SimJoint, len(jointNames))}
	for _, name := range jointNames {
		hw.order = append(hw.order, name)
		hw.joints[name] = &SimJoint{name: name}
	}
	return hw
}

// Handle implements Hardware.
func (hw *SimHardware) Handle(jointName string) (JointHandle, error) {
	hw.mu.RLock()
	defer hw.mu.RUnlock()
	joint, ok := hw.joints[jointName]
	if !ok {
		return nil, fmt.Errorf("no joint %q in simulated hardware", jointName)
	}
	return joint, nil
}

// SetState overrides the measured state of a joint.
func (hw *SimHardware) SetState(jointName string, position, velocity float64) error {
	hw.mu.RLock()
	defer hw.mu.RUnlock()
	joint, ok := hw.joints[jointName]
	if !ok {
		return fmt.Errorf("no joint %q in simulated hardware", jointName)
	}
	joint.mu.Lock()
	defer joint.mu.Unlock()
	joint.position = position
	joint.velocity = velocity
	return nil
}

// Positions returns the measured joint positions in creation order.
func (hw *SimHardware) Positions() []float64 {
	hw.mu.RLock()
	defer hw.mu.RUnlock()
	out := make([]float64, 0, len(hw.order))
	for _, name := range hw.order {
		out = append(out, hw.joints[name].Position())
	}
	return out
}

// LatchPositions applies the latched commands as position targets: each
// commanded joint's measured position becomes the command value.
func (hw *SimHardware) LatchPositions() {
	hw.mu.RLock()
	defer hw.mu.RUnlock()
	for _, joint := range hw.joints {
		joint.mu.Lock()
		if joint.commanded {
			joint.position = joint.command
			joint.velocity = 0
		}
		joint.mu.Unlock()
	}
}

// LatchVelocities applies the latched commands as velocity targets,
// integrating the measured positions over the period.
func (hw *SimHardware) LatchVelocities(period time.Duration) {
	dt := period.Seconds()
	hw.mu.RLock()
	defer hw.mu.RUnlock()
	for _, joint := range hw.joints {
		joint.mu.Lock()
		if joint.commanded {
			joint.velocity = joint.command
			joint.position += joint.command * dt
		}
		joint.mu.Unlock()
	}
}
