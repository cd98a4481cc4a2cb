package executor

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/core"
	"github.com/oqtopus-team/qsim/noise"
	"github.com/oqtopus-team/qsim/statevec"
	"go.uber.org/zap"
)

// Run folds the circuit's instructions over |0...0>. It is deterministic and
// leaves the circuit untouched.
func Run(c *circuit.Circuit) (*statevec.Statevector, error) {
	return run(c, nil, nil)
}

// RunNoisy samples one trajectory of c with model applied after every
// instruction. A nil model makes it equivalent to Run.
func RunNoisy(c *circuit.Circuit, model *noise.Model, rng *rand.Rand) (*statevec.Statevector, error) {
	if model != nil && rng == nil {
		return nil, fmt.Errorf("%w: noisy run needs a random generator", core.ErrInvalidParameter)
	}
	return run(c, model, rng)
}

func run(c *circuit.Circuit, model *noise.Model, rng *rand.Rand) (*statevec.Statevector, error) {
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("circuit was built with an error: %w", err)
	}
	start := time.Now()
	s, err := statevec.Initial(c.NumQubits())
	if err != nil {
		return nil, err
	}
	for i, in := range c.Instructions() {
		s, err = s.Apply(in)
		if err != nil {
			return nil, fmt.Errorf("instruction %d (%s): %w", i, in, err)
		}
		if model == nil {
			continue
		}
		s, err = model.AfterInstruction(s, in, rng)
		if err != nil {
			return nil, fmt.Errorf("noise after instruction %d (%s): %w", i, in, err)
		}
	}
	zap.L().Debug(fmt.Sprintf("[Executor] ran %d instructions on %d qubits in %s",
		c.Len(), c.NumQubits(), time.Since(start)))
	return s, nil
}

// Sample measures c shots times. Without a model the state is computed once
// and sampled; with a model every shot runs its own trajectory.
func Sample(c *circuit.Circuit, shots int, model *noise.Model, rng *rand.Rand) (core.Counts, error) {
	if shots < 0 {
		return nil, fmt.Errorf("%w: shots must not be negative, got %d", core.ErrInvalidParameter, shots)
	}
	if model == nil {
		s, err := Run(c)
		if err != nil {
			return nil, err
		}
		return s.Sample(shots, rng)
	}
	counts := make(core.Counts)
	for i := 0; i < shots; i++ {
		s, err := RunNoisy(c, model, rng)
		if err != nil {
			return nil, err
		}
		one, err := s.Sample(1, rng)
		if err != nil {
			return nil, err
		}
		for k, v := range one {
			counts[k] += v
		}
	}
	zap.L().Debug(fmt.Sprintf("[Executor] sampled %d noisy trajectories with %s", shots, model))
	return counts, nil
}
