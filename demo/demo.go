package demo

import (
	"fmt"
	"io"
	"math/rand/v2"
	"sort"

	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/core"
	"github.com/oqtopus-team/qsim/executor"
	"github.com/oqtopus-team/qsim/noise"
	"go.uber.org/multierr"
)

// Example is a built-in circuit. Models, when present, are sampled one after
// another next to the ideal run.
type Example struct {
	Name        string
	Description string
	Circuit     *circuit.Circuit
	Models      []*noise.Model
}

type builder func() (*Example, error)

var examples = map[string]builder{
	"bell":     Bell,
	"bv":       func() (*Example, error) { return BernsteinVazirani("1011") },
	"ghz":      func() (*Example, error) { return GHZ(3) },
	"grover":   func() (*Example, error) { return Grover(3) },
	"teleport": Teleport,
	"noise":    Noise,
}

// Names lists the examples accepted by Get.
func Names() []string {
	names := make([]string, 0, len(examples))
	for n := range examples {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func Get(name string) (*Example, error) {
	b, ok := examples[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown example %q, expected one of %v", core.ErrConfiguration, name, Names())
	}
	return b()
}

func finish(ex *Example) (*Example, error) {
	if err := ex.Circuit.Err(); err != nil {
		return nil, err
	}
	return ex, nil
}

func Bell() (*Example, error) {
	c, err := circuit.New(2)
	if err != nil {
		return nil, err
	}
	return finish(&Example{
		Name:        "bell",
		Description: "Bell pair (|00> + |11>)/sqrt(2)",
		Circuit:     c.H(0).CX(0, 1),
	})
}

// GHZ entangles n qubits into (|0...0> + |1...1>)/sqrt(2).
func GHZ(n int) (*Example, error) {
	c, err := circuit.New(n)
	if err != nil {
		return nil, err
	}
	c.H(0)
	for q := 1; q < n; q++ {
		c.CX(q-1, q)
	}
	return finish(&Example{
		Name:        "ghz",
		Description: fmt.Sprintf("%d-qubit GHZ state", n),
		Circuit:     c,
	})
}

// Grover runs one iteration of Grover search over two qubits, which finds
// the marked basis state (0..3, qubit 0 as the high bit) with certainty.
func Grover(marked int) (*Example, error) {
	if marked < 0 || marked > 3 {
		return nil, fmt.Errorf("%w: marked state must be in [0, 3], got %d", core.ErrInvalidParameter, marked)
	}
	c, err := circuit.New(2)
	if err != nil {
		return nil, err
	}
	c.H(0).H(1)

	// oracle: flip the phase of |marked>
	flip := []int{}
	for q := 0; q < 2; q++ {
		if marked>>(1-q)&1 == 0 {
			flip = append(flip, q)
		}
	}
	for _, q := range flip {
		c.X(q)
	}
	c.CZ(0, 1)
	for _, q := range flip {
		c.X(q)
	}

	// diffusion
	c.H(0).H(1).X(0).X(1).CZ(0, 1).X(0).X(1).H(0).H(1)
	return finish(&Example{
		Name:        "grover",
		Description: fmt.Sprintf("2-qubit Grover search for |%02b>", marked),
		Circuit:     c,
	})
}

// BernsteinVazirani recovers the bit string secret with a single query to
// the oracle x -> secret.x mod 2. The last qubit is the oracle ancilla and is
// rotated back to |1>, so the only outcome is secret followed by "1".
func BernsteinVazirani(secret string) (*Example, error) {
	n := len(secret)
	if n < 1 || n >= circuit.MaxQubits {
		return nil, fmt.Errorf("%w: secret must have 1 to %d bits, got %d",
			core.ErrInvalidParameter, circuit.MaxQubits-1, n)
	}
	for _, r := range secret {
		if r != '0' && r != '1' {
			return nil, fmt.Errorf("%w: secret %q is not a bit string", core.ErrInvalidParameter, secret)
		}
	}
	c, err := circuit.New(n + 1)
	if err != nil {
		return nil, err
	}
	anc := n
	for q := 0; q < n; q++ {
		c.H(q)
	}
	c.X(anc).H(anc)
	for q := 0; q < n; q++ {
		if secret[q] == '1' {
			c.CX(q, anc)
		}
	}
	for q := 0; q <= n; q++ {
		c.H(q)
	}
	return finish(&Example{
		Name:        "bv",
		Description: fmt.Sprintf("Bernstein-Vazirani search for the secret %s", secret),
		Circuit:     c,
	})
}

// Teleport prepares (|0> + i|1>)/sqrt(2) on qubit 0 and runs the unitary
// part of teleportation to qubit 2. The classically controlled corrections
// are left out, so all four measurement branches stay visible.
func Teleport() (*Example, error) {
	c, err := circuit.New(3)
	if err != nil {
		return nil, err
	}
	c.H(0).S(0).
		H(1).CX(1, 2).
		CX(0, 1).H(0)
	return finish(&Example{
		Name:        "teleport",
		Description: "teleportation of (|0> + i|1>)/sqrt(2) from qubit 0 to qubit 2",
		Circuit:     c,
	})
}

// Noise prepares |+> and samples it under depolarizing and amplitude damping
// noise.
func Noise() (*Example, error) {
	c, err := circuit.New(1)
	if err != nil {
		return nil, err
	}
	depolarizing, err1 := noise.Depolarizing(0.1)
	damping, err2 := noise.AmplitudeDamping(0.2)
	if err := multierr.Combine(err1, err2); err != nil {
		return nil, err
	}
	return finish(&Example{
		Name:        "noise",
		Description: "|+> under depolarizing(0.1) and amplitude_damping(0.2)",
		Circuit:     c.H(0),
		Models:      []*noise.Model{noise.NewModel(depolarizing), noise.NewModel(damping)},
	})
}

// Report writes the drawing, the ideal final state and sampled counts of ex
// to w.
func Report(w io.Writer, ex *Example, shots int, rng *rand.Rand) error {
	s, err := executor.Run(ex.Circuit)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "=== %s ===\n%s\n\n", ex.Name, ex.Description)
	fmt.Fprintf(w, "%s\n", circuit.Draw(ex.Circuit))
	fmt.Fprintf(w, "final state:\n%s\n", s)

	counts, err := s.Sample(shots, rng)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "ideal counts (%d shots):\n%s", shots, counts.Histogram())
	for _, m := range ex.Models {
		counts, err := executor.Sample(ex.Circuit, shots, m, rng)
		if err != nil {
			return fmt.Errorf("sampling with %s: %w", m, err)
		}
		fmt.Fprintf(w, "\n%s counts (%d shots):\n%s", m, shots, counts.Histogram())
	}
	return nil
}
