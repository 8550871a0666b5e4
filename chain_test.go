package cartesian_control

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.viam.com/rdk/referenceframe"
	"gonum.org/v1/gonum/mat"
)

// oneJointDescription is a single revolute joint about z with the tool frame
// one meter out along x.
func oneJointDescription() *ChainDescription {
	return &ChainDescription{
		Name: "one_joint",
		Links: []LinkDescription{
			{Name: "base_link"}, {Name: "link1"}, {Name: "tool0"},
		},
		Joints: []JointDescription{
			{
				Name: "joint1", Type: JointRevolute,
				Parent: "base_link", Child: "link1",
				Axis: AxisDescription{Z: 1},
			},
			{
				Name: "tool_joint", Type: JointFixed,
				Parent: "link1", Child: "tool0",
				Origin: OriginDescription{X: 1},
			},
		},
	}
}

// twoJointDescription is a planar two-link arm with unit link lengths.
func twoJointDescription() *ChainDescription {
	return &ChainDescription{
		Name: "two_joint",
		Links: []LinkDescription{
			{Name: "base_link"}, {Name: "link1"}, {Name: "link2"}, {Name: "tool0"},
		},
		Joints: []JointDescription{
			{
				Name: "joint1", Type: JointRevolute,
				Parent: "base_link", Child: "link1",
				Axis: AxisDescription{Z: 1},
			},
			{
				Name: "joint2", Type: JointRevolute,
				Parent: "link1", Child: "link2",
				Origin: OriginDescription{X: 1},
				Axis:   AxisDescription{Z: 1},
			},
			{
				Name: "tool_joint", Type: JointFixed,
				Parent: "link2", Child: "tool0",
				Origin: OriginDescription{X: 1},
			},
		},
	}
}

func TestParseChainDescription(t *testing.T) {
	t.Run("parses the embedded sample arm", func(t *testing.T) {
		desc, err := ParseChainDescription(sixdofArmJSON)
		require.NoError(t, err)
		assert.Equal(t, "sixdof_arm", desc.Name)
		assert.Len(t, desc.Links, 8)
		assert.Len(t, desc.Joints, 7)
	})

	t.Run("rejects joints referencing unknown links", func(t *testing.T) {
		_, err := ParseChainDescription([]byte(`{
			"name": "broken",
			"links": [{"name": "base_link"}],
			"joints": [{"name": "j", "type": "revolute", "parent": "base_link", "child": "ghost"}]
		}`))
		assert.ErrorContains(t, err, "unknown child link")
	})

	t.Run("rejects unsupported joint types", func(t *testing.T) {
		_, err := ParseChainDescription([]byte(`{
			"name": "broken",
			"links": [{"name": "a"}, {"name": "b"}],
			"joints": [{"name": "j", "type": "floating", "parent": "a", "child": "b"}]
		}`))
		assert.ErrorContains(t, err, "unsupported type")
	})
}

func TestBuildChain(t *testing.T) {
	t.Run("resolves the ordered chain", func(t *testing.T) {
		chain, err := BuildChain(twoJointDescription(), "base_link", "tool0")
		require.NoError(t, err)
		assert.Equal(t, 2, chain.DoF())
		assert.Equal(t, []string{"joint1", "joint2"}, chain.JointNames())
		assert.Equal(t, "base_link", chain.BaseLink())
		assert.Equal(t, "tool0", chain.EndEffectorLink())
	})

	t.Run("missing base link is fatal", func(t *testing.T) {
		_, err := BuildChain(twoJointDescription(), "nope", "tool0")
		assert.ErrorContains(t, err, "does not exist")
	})

	t.Run("missing end-effector link is fatal", func(t *testing.T) {
		_, err := BuildChain(twoJointDescription(), "base_link", "nope")
		assert.ErrorContains(t, err, "does not exist")
	})

	t.Run("disconnected chain is fatal", func(t *testing.T) {
		desc := twoJointDescription()
		desc.Links = append(desc.Links, LinkDescription{Name: "island"})
		_, err := BuildChain(desc, "base_link", "island")
		assert.ErrorContains(t, err, "no connected chain")
	})

	t.Run("empty frame names are fatal", func(t *testing.T) {
		_, err := BuildChain(twoJointDescription(), "", "tool0")
		assert.Error(t, err)
	})

	t.Run("zero joint axis is fatal", func(t *testing.T) {
		desc := oneJointDescription()
		desc.Joints[0].Axis = AxisDescription{}
		_, err := BuildChain(desc, "base_link", "tool0")
		assert.ErrorContains(t, err, "zero axis")
	})

	t.Run("unbounded limits where none are configured", func(t *testing.T) {
		chain, err := BuildChain(oneJointDescription(), "base_link", "tool0")
		require.NoError(t, err)
		limits := chain.Limits()
		require.Len(t, limits, 1)
		assert.True(t, math.IsInf(limits[0].Min, -1))
		assert.True(t, math.IsInf(limits[0].Max, 1))
	})
}

func TestJacobian(t *testing.T) {
	t.Run("single revolute joint", func(t *testing.T) {
		chain, err := BuildChain(oneJointDescription(), "base_link", "tool0")
		require.NoError(t, err)

		jac := mat.NewDense(6, 1, nil)
		require.NoError(t, chain.jacobian([]float64{0}, jac))

		// Rotation about z with the tip at (1,0,0) moves the tip along y.
		assert.InDelta(t, 0, jac.At(0, 0), 1e-12)
		assert.InDelta(t, 1, jac.At(1, 0), 1e-12)
		assert.InDelta(t, 0, jac.At(2, 0), 1e-12)
		assert.InDelta(t, 0, jac.At(3, 0), 1e-12)
		assert.InDelta(t, 0, jac.At(4, 0), 1e-12)
		assert.InDelta(t, 1, jac.At(5, 0), 1e-12)
	})

	t.Run("matches finite differences on the planar arm", func(t *testing.T) {
		chain, err := BuildChain(twoJointDescription(), "base_link", "tool0")
		require.NoError(t, err)
		fk := NewForwardKinematicsSolver(chain)

		q := []float64{0.3, -0.7}
		jac := mat.NewDense(6, 2, nil)
		require.NoError(t, chain.jacobian(q, jac))

		const eps = 1e-7
		for j := 0; j < 2; j++ {
			plus := []float64{q[0], q[1]}
			minus := []float64{q[0], q[1]}
			plus[j] += eps
			minus[j] -= eps
			posePlus, err := fk.PoseOf("tool0", referenceframe.FloatsToInputs(plus))
			require.NoError(t, err)
			poseMinus, err := fk.PoseOf("tool0", referenceframe.FloatsToInputs(minus))
			require.NoError(t, err)
			diff := posePlus.Point().Sub(poseMinus.Point()).Mul(1 / (2 * eps))
			assert.InDelta(t, diff.X, jac.At(0, j), 1e-6)
			assert.InDelta(t, diff.Y, jac.At(1, j), 1e-6)
			assert.InDelta(t, diff.Z, jac.At(2, j), 1e-6)
		}
	})

	t.Run("rejects a wrong-length configuration", func(t *testing.T) {
		chain, err := BuildChain(twoJointDescription(), "base_link", "tool0")
		require.NoError(t, err)
		err = chain.jacobian([]float64{0}, mat.NewDense(6, 2, nil))
		assert.Error(t, err)
	})
}
