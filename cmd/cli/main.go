package main

import (
	"context"
	"time"

	"github.com/golang/geo/r3"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/spatialmath"
	goutils "go.viam.com/utils"

	cartesianControl "cartesian_control"
)

// Closed-loop demonstration against simulated hardware: drive the embedded
// six-axis arm's end effector toward a displaced pose target and log the
// remaining error as it converges.
func main() {
	err := realMain()
	if err != nil {
		panic(err)
	}
}

func realMain() error {
	ctx := context.Background()
	logger := logging.NewLogger("cartesian-cli")

	joints := []string{
		"shoulder_pan_joint",
		"shoulder_lift_joint",
		"elbow_joint",
		"wrist_1_joint",
		"wrist_2_joint",
		"wrist_3_joint",
	}

	cfg := &cartesianControl.Config{
		BaseLink:        "base_link",
		EndEffectorLink: "tool0",
		Joints:          joints,
		CommandMode:     cartesianControl.CommandModePosition,
		PGains:          []float64{2.0, 2.0, 2.0, 2.0, 2.0, 2.0},
		IGains:          []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1},
		WindupLimit:     1.0,
	}

	hw := cartesianControl.NewSimHardware(joints...)
	// Start away from the stretched-out singularity.
	if err := hw.SetState("shoulder_lift_joint", -0.5, 0); err != nil {
		return err
	}
	if err := hw.SetState("elbow_joint", 1.0, 0); err != nil {
		return err
	}

	controller, err := cartesianControl.NewController(cfg, hw, logger)
	if err != nil {
		return err
	}
	if err := controller.Start(); err != nil {
		return err
	}

	startPose, err := controller.EndEffectorPose()
	if err != nil {
		return err
	}
	target := spatialmath.NewPose(
		startPose.Point().Add(r3.Vector{X: 0.05, Y: 0.05, Z: -0.05}),
		startPose.Orientation(),
	)
	logger.Infof("end effector at %v, moving to %v", startPose.Point(), target.Point())

	const period = 10 * time.Millisecond
	for cycle := 0; cycle < 500; cycle++ {
		if !goutils.SelectContextOrWait(ctx, period) {
			break
		}

		current, err := controller.EndEffectorPose()
		if err != nil {
			return err
		}
		errVec := cartesianControl.PoseError(current, target)
		if err := controller.Update(period, errVec); err != nil {
			logger.Warnf("cycle %d failed: %v", cycle, err)
			continue
		}
		hw.LatchPositions()

		if cycle%50 == 0 {
			logger.Infof("cycle %d: linear error %.4f m, angular error %.4f rad",
				cycle, errVec.Linear().Norm(), errVec.Angular().Norm())
		}
	}

	final, err := controller.EndEffectorPose()
	if err != nil {
		return err
	}
	remaining := cartesianControl.PoseError(final, target)
	logger.Infof("final linear error %.5f m, angular error %.5f rad",
		remaining.Linear().Norm(), remaining.Angular().Norm())

	return controller.Stop()
}
