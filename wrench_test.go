package cartesian_control

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.viam.com/rdk/spatialmath"
)

func assertVectorNear(t *testing.T, want, got r3.Vector, tol float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tol)
	assert.InDelta(t, want.Y, got.Y, tol)
	assert.InDelta(t, want.Z, got.Z, tol)
}

func TestWrenchTransformed(t *testing.T) {
	w := Wrench{
		Force:  r3.Vector{X: 1.5, Y: -0.3, Z: 0.8},
		Torque: r3.Vector{X: 0.2, Y: 0.1, Z: -0.6},
		Frame:  "sensor",
	}

	t.Run("zero translation is a pure rotation", func(t *testing.T) {
		tf := spatialmath.NewPoseFromOrientation(&spatialmath.EulerAngles{Roll: 0.3, Pitch: -0.5, Yaw: 1.1})
		out := w.Transformed(tf, "base_link")

		rot := tf.Orientation().RotationMatrix()
		assertVectorNear(t, rot.Mul(w.Force), out.Force, 1e-12)
		assertVectorNear(t, rot.Mul(w.Torque), out.Torque, 1e-12)
		assert.Equal(t, "base_link", out.Frame)
	})

	t.Run("translation adds the lever-arm torque", func(t *testing.T) {
		p := r3.Vector{X: 0, Y: 1, Z: 0}
		tf := spatialmath.NewPoseFromPoint(p)
		out := w.Transformed(tf, "base_link")

		assertVectorNear(t, w.Force, out.Force, 1e-12)
		assertVectorNear(t, w.Torque.Add(p.Cross(w.Force)), out.Torque, 1e-12)
	})

	t.Run("round trips through the inverse transform", func(t *testing.T) {
		tf := spatialmath.NewPose(
			r3.Vector{X: 0.1, Y: -0.25, Z: 0.4},
			&spatialmath.EulerAngles{Roll: -0.7, Pitch: 0.2, Yaw: 0.9},
		)
		there := w.Transformed(tf, "base_link")
		back := there.Transformed(spatialmath.PoseInverse(tf), "sensor")

		assertVectorNear(t, w.Force, back.Force, 1e-9)
		assertVectorNear(t, w.Torque, back.Torque, 1e-9)
		assert.Equal(t, w.Frame, back.Frame)
	})

	t.Run("source wrench is never mutated", func(t *testing.T) {
		before := w
		tf := spatialmath.NewPose(r3.Vector{X: 1}, &spatialmath.EulerAngles{Yaw: 0.5})
		_ = w.Transformed(tf, "base_link")
		require.Equal(t, before, w)
	})
}
