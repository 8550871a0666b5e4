package cartesian_control

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/rdk/referenceframe"
	"go.viam.com/rdk/spatialmath"
	"gonum.org/v1/gonum/mat"
)

// JointType identifies how a joint moves its child link.
type JointType string

const (
	JointRevolute  JointType = "revolute"
	JointPrismatic JointType = "prismatic"
	JointFixed     JointType = "fixed"
)

// ChainDescription is the structural description of the robot: a set of named
// links connected by joints. It is the parsed form of the robot description
// document supplied by the hosting runtime.
type ChainDescription struct {
	Name   string             `json:"name"`
	Links  []LinkDescription  `json:"links"`
	Joints []JointDescription `json:"joints"`
}

type LinkDescription struct {
	Name string `json:"name"`
}

type JointDescription struct {
	Name   string            `json:"name"`
	Type   JointType         `json:"type"`
	Parent string            `json:"parent"`
	Child  string            `json:"child"`
	Origin OriginDescription `json:"origin"`
	Axis   AxisDescription   `json:"axis"`
	Limit  *JointLimit       `json:"limit,omitempty"`
}

// JointLimit bounds a joint position, in radians or meters by joint type.
type JointLimit struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// OriginDescription is the fixed transform from the parent link frame to the
// joint frame: translation in meters, fixed-axis roll/pitch/yaw in radians.
type OriginDescription struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

type AxisDescription struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (o OriginDescription) pose() spatialmath.Pose {
	return spatialmath.NewPose(
		r3.Vector{X: o.X, Y: o.Y, Z: o.Z},
		&spatialmath.EulerAngles{Roll: o.Roll, Pitch: o.Pitch, Yaw: o.Yaw},
	)
}

// ParseChainDescription parses and sanity-checks a JSON robot description.
func ParseChainDescription(data []byte) (*ChainDescription, error) {
	var desc ChainDescription
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, errors.Wrap(err, "failed to parse robot description")
	}
	if len(desc.Links) == 0 {
		return nil, fmt.Errorf("robot description %q has no links", desc.Name)
	}
	known := make(map[string]bool, len(desc.Links))
	for _, link := range desc.Links {
		if link.Name == "" {
			return nil, fmt.Errorf("robot description %q has an unnamed link", desc.Name)
		}
		if known[link.Name] {
			return nil, fmt.Errorf("duplicate link %q in robot description", link.Name)
		}
		known[link.Name] = true
	}
	for _, joint := range desc.Joints {
		if joint.Name == "" {
			return nil, fmt.Errorf("robot description %q has an unnamed joint", desc.Name)
		}
		if !known[joint.Parent] {
			return nil, fmt.Errorf("joint %q references unknown parent link %q", joint.Name, joint.Parent)
		}
		if !known[joint.Child] {
			return nil, fmt.Errorf("joint %q references unknown child link %q", joint.Name, joint.Child)
		}
		switch joint.Type {
		case JointRevolute, JointPrismatic, JointFixed:
		default:
			return nil, fmt.Errorf("joint %q has unsupported type %q", joint.Name, joint.Type)
		}
	}
	return &desc, nil
}

// chainSegment is one joint of the resolved chain: the fixed transform from
// the previous frame, plus the motion the joint applies after it.
type chainSegment struct {
	jointName string
	jointType JointType
	childLink string
	origin    spatialmath.Pose
	axis      r3.Vector
	limit     *JointLimit
}

// motion returns the transform contributed by the joint at position q.
func (s *chainSegment) motion(q float64) spatialmath.Pose {
	switch s.jointType {
	case JointRevolute:
		return spatialmath.NewPoseFromOrientation(
			&spatialmath.R4AA{Theta: q, RX: s.axis.X, RY: s.axis.Y, RZ: s.axis.Z})
	case JointPrismatic:
		return spatialmath.NewPoseFromPoint(s.axis.Mul(q))
	default:
		return spatialmath.NewZeroPose()
	}
}

// KinematicChain is the ordered sequence of joints connecting a base link to
// an end-effector link. Immutable after construction.
type KinematicChain struct {
	name     string
	baseLink string
	eeLink   string
	segments []chainSegment
	dof      int
}

// BuildChain resolves the connected chain between baseLink and eeLink within
// the given description. Both links must exist and a parent path from the end
// effector to the base must exist; anything else is a construction error.
func BuildChain(desc *ChainDescription, baseLink, eeLink string) (*KinematicChain, error) {
	if baseLink == "" || eeLink == "" {
		return nil, fmt.Errorf("base link and end-effector link are required to build a chain")
	}
	links := make(map[string]bool, len(desc.Links))
	for _, link := range desc.Links {
		links[link.Name] = true
	}
	if !links[baseLink] {
		return nil, fmt.Errorf("base link %q does not exist in robot description %q", baseLink, desc.Name)
	}
	if !links[eeLink] {
		return nil, fmt.Errorf("end-effector link %q does not exist in robot description %q", eeLink, desc.Name)
	}

	parentJoint := make(map[string]*JointDescription, len(desc.Joints))
	for i := range desc.Joints {
		joint := &desc.Joints[i]
		if _, ok := parentJoint[joint.Child]; ok {
			return nil, fmt.Errorf("link %q has more than one parent joint", joint.Child)
		}
		parentJoint[joint.Child] = joint
	}

	// Walk end effector to base, then reverse into base-first order.
	var reversed []*JointDescription
	for link := eeLink; link != baseLink; {
		joint, ok := parentJoint[link]
		if !ok {
			return nil, fmt.Errorf(
				"no connected chain from %q to %q: link %q has no parent joint", baseLink, eeLink, link)
		}
		reversed = append(reversed, joint)
		link = joint.Parent
		if len(reversed) > len(desc.Joints) {
			return nil, fmt.Errorf("robot description %q contains a joint cycle", desc.Name)
		}
	}

	chain := &KinematicChain{
		name:     desc.Name,
		baseLink: baseLink,
		eeLink:   eeLink,
		segments: make([]chainSegment, 0, len(reversed)),
	}
	for i := len(reversed) - 1; i >= 0; i-- {
		joint := reversed[i]
		seg := chainSegment{
			jointName: joint.Name,
			jointType: joint.Type,
			childLink: joint.Child,
			origin:    joint.Origin.pose(),
			limit:     joint.Limit,
		}
		if joint.Type != JointFixed {
			axis := r3.Vector{X: joint.Axis.X, Y: joint.Axis.Y, Z: joint.Axis.Z}
			if axis.Norm() == 0 {
				return nil, fmt.Errorf("joint %q has a zero axis", joint.Name)
			}
			seg.axis = axis.Normalize()
			chain.dof++
		}
		chain.segments = append(chain.segments, seg)
	}
	return chain, nil
}

// DoF returns the number of movable joints in the chain.
func (c *KinematicChain) DoF() int {
	return c.dof
}

// JointNames returns the movable joint names in base-to-end-effector order.
func (c *KinematicChain) JointNames() []string {
	names := make([]string, 0, c.dof)
	for _, seg := range c.segments {
		if seg.jointType != JointFixed {
			names = append(names, seg.jointName)
		}
	}
	return names
}

// Limits returns the limits of the movable joints in chain order, unbounded
// where the description configured none.
func (c *KinematicChain) Limits() []referenceframe.Limit {
	limits := make([]referenceframe.Limit, 0, c.dof)
	for _, seg := range c.segments {
		if seg.jointType == JointFixed {
			continue
		}
		if seg.limit != nil {
			limits = append(limits, referenceframe.Limit{Min: seg.limit.Min, Max: seg.limit.Max})
		} else {
			limits = append(limits, referenceframe.Limit{Min: math.Inf(-1), Max: math.Inf(1)})
		}
	}
	return limits
}

func (c *KinematicChain) BaseLink() string {
	return c.baseLink
}

func (c *KinematicChain) EndEffectorLink() string {
	return c.eeLink
}

// jacobian fills dst (6 x DoF; rows 0-2 linear, 3-5 angular) with the
// geometric Jacobian of the end effector at configuration q.
func (c *KinematicChain) jacobian(q []float64, dst *mat.Dense) error {
	if len(q) != c.dof {
		return fmt.Errorf("expected %d joint positions, got %d", c.dof, len(q))
	}
	type jointAxis struct {
		point r3.Vector
		dir   r3.Vector
		jtype JointType
	}
	axes := make([]jointAxis, 0, c.dof)
	transform := spatialmath.NewZeroPose()
	idx := 0
	for i := range c.segments {
		seg := &c.segments[i]
		transform = spatialmath.Compose(transform, seg.origin)
		if seg.jointType == JointFixed {
			continue
		}
		axes = append(axes, jointAxis{
			point: transform.Point(),
			dir:   transform.Orientation().RotationMatrix().Mul(seg.axis),
			jtype: seg.jointType,
		})
		transform = spatialmath.Compose(transform, seg.motion(q[idx]))
		idx++
	}
	tip := transform.Point()
	for j, axis := range axes {
		var linear, angular r3.Vector
		if axis.jtype == JointRevolute {
			linear = axis.dir.Cross(tip.Sub(axis.point))
			angular = axis.dir
		} else {
			linear = axis.dir
		}
		dst.Set(0, j, linear.X)
		dst.Set(1, j, linear.Y)
		dst.Set(2, j, linear.Z)
		dst.Set(3, j, angular.X)
		dst.Set(4, j, angular.Y)
		dst.Set(5, j, angular.Z)
	}
	return nil
}
