package cartesian_control

import (
	"github.com/golang/geo/r3"
	"go.viam.com/rdk/spatialmath"
)

// Wrench is a force/torque pair tagged with the reference frame it is
// expressed in. Wrenches are never mutated in place; re-expressing one in a
// different frame produces a new value.
type Wrench struct {
	Force  r3.Vector
	Torque r3.Vector
	Frame  string
}

// Transformed re-expresses the wrench through tf, the pose of w.Frame
// relative to the destination frame. Both components rotate; the translation
// adds a lever-arm torque from the rotated force.
func (w Wrench) Transformed(tf spatialmath.Pose, frame string) Wrench {
	rot := tf.Orientation().RotationMatrix()
	force := rot.Mul(w.Force)
	torque := rot.Mul(w.Torque).Add(tf.Point().Cross(force))
	return Wrench{Force: force, Torque: torque, Frame: frame}
}

// Vector6D returns the wrench components as force then torque.
func (w Wrench) Vector6D() Vector6D {
	return Vector6D{w.Force.X, w.Force.Y, w.Force.Z, w.Torque.X, w.Torque.Y, w.Torque.Z}
}
