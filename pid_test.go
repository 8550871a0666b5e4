package cartesian_control

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPeriod = 10 * time.Millisecond

func TestSpatialPIDComputeVelocity(t *testing.T) {
	t.Run("rejects non-positive period", func(t *testing.T) {
		pid := NewSpatialPID([6]PIDGains{{P: 1}}, 0)

		_, err := pid.ComputeVelocity(Vector6D{0.1}, 0)
		assert.Error(t, err)
		_, err = pid.ComputeVelocity(Vector6D{0.1}, -time.Millisecond)
		assert.Error(t, err)

		// Accumulators must be untouched by the rejected calls: behave as a
		// fresh controller afterwards.
		out, err := pid.ComputeVelocity(Vector6D{0.1}, testPeriod)
		require.NoError(t, err)
		fresh := NewSpatialPID([6]PIDGains{{P: 1}}, 0)
		want, err := fresh.ComputeVelocity(Vector6D{0.1}, testPeriod)
		require.NoError(t, err)
		assert.Equal(t, want, out)
	})

	t.Run("zero error stays at zero output", func(t *testing.T) {
		var gains [6]PIDGains
		for i := range gains {
			gains[i] = PIDGains{P: 2, I: 0.5, D: 0.1}
		}
		pid := NewSpatialPID(gains, 0)

		for cycle := 0; cycle < 10; cycle++ {
			out, err := pid.ComputeVelocity(Vector6D{}, testPeriod)
			require.NoError(t, err)
			assert.Equal(t, Vector6D{}, out)
		}
	})

	t.Run("constant error with pure P gain passes through", func(t *testing.T) {
		pid := NewSpatialPID([6]PIDGains{{P: 1}}, 0)

		for cycle := 0; cycle < 10; cycle++ {
			out, err := pid.ComputeVelocity(Vector6D{0.1}, testPeriod)
			require.NoError(t, err)
			assert.InDelta(t, 0.1, out[0], 1e-12)
			for axis := 1; axis < 6; axis++ {
				assert.Zero(t, out[axis])
			}
		}
	})

	t.Run("output is linear in the gains", func(t *testing.T) {
		const k = 3.5
		base := NewSpatialPID([6]PIDGains{{P: 1, I: 0.4, D: 0.05}}, 0)
		scaled := NewSpatialPID([6]PIDGains{{P: k, I: k * 0.4, D: k * 0.05}}, 0)

		errs := []float64{0.1, 0.08, -0.02, 0.05}
		for _, e := range errs {
			baseOut, err := base.ComputeVelocity(Vector6D{e}, testPeriod)
			require.NoError(t, err)
			scaledOut, err := scaled.ComputeVelocity(Vector6D{e}, testPeriod)
			require.NoError(t, err)
			assert.InDelta(t, k*baseOut[0], scaledOut[0], 1e-9)
		}
	})

	t.Run("integral clamps at the windup limit", func(t *testing.T) {
		const windup = 0.05
		pid := NewSpatialPID([6]PIDGains{{I: 1}}, windup)

		var out Vector6D
		var err error
		for cycle := 0; cycle < 1000; cycle++ {
			out, err = pid.ComputeVelocity(Vector6D{10}, testPeriod)
			require.NoError(t, err)
		}
		assert.InDelta(t, windup, out[0], 1e-12)

		for cycle := 0; cycle < 2000; cycle++ {
			out, err = pid.ComputeVelocity(Vector6D{-10}, testPeriod)
			require.NoError(t, err)
		}
		assert.InDelta(t, -windup, out[0], 1e-12)
	})

	t.Run("reset clears the accumulators", func(t *testing.T) {
		pid := NewSpatialPID([6]PIDGains{{P: 1, I: 1, D: 1}}, 0)
		_, err := pid.ComputeVelocity(Vector6D{0.3, -0.1, 0.2, 0.05, 0, 0.9}, testPeriod)
		require.NoError(t, err)

		pid.Reset()
		out, err := pid.ComputeVelocity(Vector6D{}, testPeriod)
		require.NoError(t, err)
		assert.Equal(t, Vector6D{}, out)
	})
}
