package cartesian_control

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/rdk/referenceframe"
	"gonum.org/v1/gonum/mat"
)

// jacobianDamping is the damped least-squares factor. It bounds the joint
// velocity the solver produces near singular configurations.
const jacobianDamping = 0.1

// JointMotion is one cycle's worth of joint commands: the simulated positions
// after integration and the joint velocities that produced them.
type JointMotion struct {
	Positions  []referenceframe.Input
	Velocities []float64
}

// ForwardDynamicsSolver maintains a simulated copy of the chain's joint state
// and maps Cartesian velocity commands into joint motion through the chain's
// differential kinematics. The simulated state is deliberately decoupled from
// the measured hardware state between activations, which gives the resulting
// joint motion a smoother, compliant character than tracking the raw
// hardware response would.
type ForwardDynamicsSolver struct {
	chain      *KinematicChain
	positions  []float64
	velocities []float64

	// scratch reused across cycles
	jac      *mat.Dense
	normal   *mat.Dense
	cartVel  *mat.VecDense
	lambda   *mat.VecDense
	jointVel *mat.VecDense
}

func NewForwardDynamicsSolver(chain *KinematicChain) (*ForwardDynamicsSolver, error) {
	n := chain.DoF()
	if n == 0 {
		return nil, fmt.Errorf("chain from %q to %q has no movable joints", chain.BaseLink(), chain.EndEffectorLink())
	}
	return &ForwardDynamicsSolver{
		chain:      chain,
		positions:  make([]float64, n),
		velocities: make([]float64, n),
		jac:        mat.NewDense(6, n, nil),
		normal:     mat.NewDense(6, 6, nil),
		cartVel:    mat.NewVecDense(6, nil),
		lambda:     mat.NewVecDense(6, nil),
		jointVel:   mat.NewVecDense(n, nil),
	}, nil
}

// SetStartState copies the measured joint state into the simulated state.
// Called on every controller activation, never mid-cycle.
func (s *ForwardDynamicsSolver) SetStartState(positions, velocities []float64) error {
	if len(positions) != len(s.positions) || len(velocities) != len(s.velocities) {
		return fmt.Errorf("expected %d joint positions and velocities, got %d and %d",
			len(s.positions), len(positions), len(velocities))
	}
	copy(s.positions, positions)
	copy(s.velocities, velocities)
	return nil
}

// JointControlCmds maps the Cartesian velocity into joint velocities with a
// damped pseudo-inverse of the geometric Jacobian at the current simulated
// configuration, integrates the simulated state over the period, and returns
// the updated motion.
func (s *ForwardDynamicsSolver) JointControlCmds(period time.Duration, cartesianVel Vector6D) (JointMotion, error) {
	if period <= 0 {
		return JointMotion{}, fmt.Errorf("control period must be positive, got %v", period)
	}
	if err := s.chain.jacobian(s.positions, s.jac); err != nil {
		return JointMotion{}, errors.Wrap(err, "failed to compute Jacobian")
	}

	// qdot = Jt (J Jt + damping^2 I)^-1 v
	s.normal.Mul(s.jac, s.jac.T())
	for i := 0; i < 6; i++ {
		s.normal.Set(i, i, s.normal.At(i, i)+jacobianDamping*jacobianDamping)
	}
	for i := 0; i < 6; i++ {
		s.cartVel.SetVec(i, cartesianVel[i])
	}
	if err := s.lambda.SolveVec(s.normal, s.cartVel); err != nil {
		return JointMotion{}, errors.Wrap(err, "singular velocity solve")
	}
	s.jointVel.MulVec(s.jac.T(), s.lambda)

	dt := period.Seconds()
	for i := range s.positions {
		qdot := s.jointVel.AtVec(i)
		s.positions[i] += qdot * dt
		s.velocities[i] = qdot
	}
	return JointMotion{
		Positions:  s.Positions(),
		Velocities: s.Velocities(),
	}, nil
}

// Positions returns a copy of the current simulated joint positions.
func (s *ForwardDynamicsSolver) Positions() []referenceframe.Input {
	return referenceframe.FloatsToInputs(s.positions)
}

// Velocities returns a copy of the current simulated joint velocities.
func (s *ForwardDynamicsSolver) Velocities() []float64 {
	out := make([]float64, len(s.velocities))
	copy(out, s.velocities)
	return out
}
