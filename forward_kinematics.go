package cartesian_control

import (
	"fmt"

	"go.viam.com/rdk/referenceframe"
	"go.viam.com/rdk/spatialmath"
)

// ForwardKinematicsSolver computes the pose of any chain frame relative to
// the chain's base link for a given joint configuration. It holds no state of
// its own; every call walks the chain fresh.
type ForwardKinematicsSolver struct {
	chain *KinematicChain
}

func NewForwardKinematicsSolver(chain *KinematicChain) *ForwardKinematicsSolver {
	return &ForwardKinematicsSolver{chain: chain}
}

// PoseOf returns the pose of the named link frame relative to the chain's
// base link at the given joint configuration. The configuration must supply
// one value per movable joint.
func (s *ForwardKinematicsSolver) PoseOf(frame string, positions []referenceframe.Input) (spatialmath.Pose, error) {
	if len(positions) != s.chain.DoF() {
		return nil, fmt.Errorf("expected %d joint positions, got %d", s.chain.DoF(), len(positions))
	}
	if frame == s.chain.baseLink {
		return spatialmath.NewZeroPose(), nil
	}
	transform := spatialmath.NewZeroPose()
	idx := 0
	for i := range s.chain.segments {
		seg := &s.chain.segments[i]
		transform = spatialmath.Compose(transform, seg.origin)
		if seg.jointType != JointFixed {
			transform = spatialmath.Compose(transform, seg.motion(positions[idx].Value))
			idx++
		}
		if seg.childLink == frame {
			return transform, nil
		}
	}
	return nil, fmt.Errorf("frame %q is not part of the chain from %q to %q",
		frame, s.chain.baseLink, s.chain.eeLink)
}
