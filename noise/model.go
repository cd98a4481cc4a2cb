package noise

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/statevec"
)

// Model applies a channel to every qubit an instruction touched, right
// after the instruction runs. When gates is non-empty only instructions
// with one of those names are followed by noise.
type Model struct {
	channel *Channel
	gates   map[string]struct{}
}

func NewModel(ch *Channel, gates ...string) *Model {
	m := &Model{channel: ch, gates: make(map[string]struct{}, len(gates))}
	for _, g := range gates {
		m.gates[strings.ToLower(g)] = struct{}{}
	}
	return m
}

func (m *Model) Channel() *Channel {
	return m.channel
}

func (m *Model) appliesTo(name string) bool {
	if len(m.gates) == 0 {
		return true
	}
	_, ok := m.gates[name]
	return ok
}

// AfterInstruction samples the channel once per qubit touched by in.
func (m *Model) AfterInstruction(s *statevec.Statevector, in circuit.Instruction, rng *rand.Rand) (*statevec.Statevector, error) {
	if !m.appliesTo(in.Name()) {
		return s, nil
	}
	var err error
	for _, q := range in.Qubits() {
		s, err = m.channel.ApplyStochastic(s, q, rng)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (m *Model) String() string {
	return fmt.Sprintf("%s(%v)", m.channel.Name(), m.channel.Parameter())
}

// Setting is the [noise] table of the setting file.
type Setting struct {
	Enabled   bool     `toml:"enabled"`
	Channel   string   `toml:"channel"`
	Parameter float64  `toml:"parameter"`
	Gates     []string `toml:"gates"`
}

func NewDefaultSetting() *Setting {
	return &Setting{
		Enabled:   false,
		Channel:   string(DepolarizingKind),
		Parameter: 0.01,
		Gates:     []string{},
	}
}

// Model builds the configured noise model, or nil when noise is disabled.
func (s *Setting) Model() (*Model, error) {
	if s == nil || !s.Enabled {
		return nil, nil
	}
	ch, err := NewChannel(s.Channel, s.Parameter)
	if err != nil {
		return nil, err
	}
	return NewModel(ch, s.Gates...), nil
}
