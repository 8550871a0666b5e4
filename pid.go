package cartesian_control

import (
	"fmt"
	"time"

	"github.com/golang/geo/r3"
)

// Vector6D is a spatial quantity with three linear and three angular
// components, in that order.
type Vector6D [6]float64

// Linear returns the first three components as a vector.
func (v Vector6D) Linear() r3.Vector {
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// Angular returns the last three components as a vector.
func (v Vector6D) Angular() r3.Vector {
	return r3.Vector{X: v[3], Y: v[4], Z: v[5]}
}

// PIDGains holds the proportional, integral and derivative gains of one axis.
type PIDGains struct {
	P float64 `json:"p"`
	I float64 `json:"i"`
	D float64 `json:"d"`
}

// SpatialPID turns a Cartesian error into a Cartesian velocity with six
// independent per-axis PID controllers. Gains are fixed for the controller's
// lifetime; the integral and previous-error accumulators carry across cycles.
type SpatialPID struct {
	gains    [6]PIDGains
	windup   float64 // symmetric bound on each integral term, 0 disables
	integral [6]float64
	prevErr  [6]float64
}

func NewSpatialPID(gains [6]PIDGains, windupLimit float64) *SpatialPID {
	return &SpatialPID{gains: gains, windup: windupLimit}
}

// ComputeVelocity runs one discrete PID step over all six axes. A
// non-positive period is rejected without touching the accumulators.
func (c *SpatialPID) ComputeVelocity(errVec Vector6D, period time.Duration) (Vector6D, error) {
	if period <= 0 {
		return Vector6D{}, fmt.Errorf("control period must be positive, got %v", period)
	}
	dt := period.Seconds()
	var out Vector6D
	for i := 0; i < 6; i++ {
		e := errVec[i]
		c.integral[i] += e * dt
		if c.windup > 0 {
			if c.integral[i] > c.windup {
				c.integral[i] = c.windup
			} else if c.integral[i] < -c.windup {
				c.integral[i] = -c.windup
			}
		}
		derivative := (e - c.prevErr[i]) / dt
		out[i] = c.gains[i].P*e + c.gains[i].I*c.integral[i] + c.gains[i].D*derivative
		c.prevErr[i] = e
	}
	return out, nil
}

// Reset clears the integral and previous-error accumulators on all axes.
func (c *SpatialPID) Reset() {
	c.integral = [6]float64{}
	c.prevErr = [6]float64{}
}
