package program

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	exprlang "github.com/expr-lang/expr"
	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/core"
	"github.com/oqtopus-team/qsim/gate"
	"go.uber.org/multierr"
)

var (
	qregRegex      = regexp.MustCompile(`^qreg\s+([A-Za-z_]\w*)\s*\[\s*(\d+)\s*\]$`)
	qubitRegex     = regexp.MustCompile(`^qubit\s*\[\s*(\d+)\s*\]\s*([A-Za-z_]\w*)$`)
	oneQubitRegex  = regexp.MustCompile(`^qubit\s+([A-Za-z_]\w*)$`)
	paramGateRegex = regexp.MustCompile(`^([A-Za-z_]\w*)\s*\((.*)\)\s*(.+)$`)
	gateRegex      = regexp.MustCompile(`^([A-Za-z_]\w*)\s+(.+)$`)
	argRegex       = regexp.MustCompile(`^([A-Za-z_]\w*)\s*(?:\[\s*(\d+)\s*\])?$`)
)

var ignoredKeywords = map[string]struct{}{
	"openqasm": {},
	"include":  {},
	"creg":     {},
	"bit":      {},
	"barrier":  {},
	"measure":  {},
}

var angleEnv = map[string]any{
	"pi":   math.Pi,
	"tau":  2 * math.Pi,
	"e":    math.E,
	"sqrt": math.Sqrt,
	"sin":  math.Sin,
	"cos":  math.Cos,
}

type register struct {
	offset int
	size   int
}

type statement struct {
	line int
	text string
}

// ParseQASM builds a circuit from an OpenQASM 2 or 3 program using the
// library gate set. Classical registers, measurements and barriers are
// accepted and ignored; every qubit is measured by the caller.
func ParseQASM(src string) (*circuit.Circuit, error) {
	stmts := splitStatements(src)
	regs := map[string]register{}
	total := 0
	var gates []statement
	var errs error
	for _, st := range stmts {
		name, size, ok, err := declaration(st.text)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("line %d: %w", st.line, err))
			continue
		}
		if ok {
			if _, dup := regs[name]; dup {
				errs = multierr.Append(errs, fmt.Errorf("%w: line %d: register %s is declared twice",
					core.ErrParse, st.line, name))
				continue
			}
			regs[name] = register{offset: total, size: size}
			total += size
			continue
		}
		if isIgnored(st.text) {
			continue
		}
		gates = append(gates, st)
	}
	if errs != nil {
		return nil, errs
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: no quantum register is declared", core.ErrParse)
	}
	c, err := circuit.New(total)
	if err != nil {
		return nil, err
	}
	for _, st := range gates {
		if err := gateCall(c, regs, st.text); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("line %d: %w", st.line, err))
		}
	}
	if errs != nil {
		return nil, errs
	}
	return c, nil
}

func splitStatements(src string) []statement {
	var out []statement
	var sb strings.Builder
	start, started := 0, false
	for i, line := range strings.Split(src, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		for _, r := range line {
			if r == ';' {
				if text := strings.TrimSpace(sb.String()); text != "" {
					out = append(out, statement{line: start, text: text})
				}
				sb.Reset()
				started = false
				continue
			}
			if !started && !unicode.IsSpace(r) {
				start, started = i+1, true
			}
			sb.WriteRune(r)
		}
		sb.WriteRune(' ')
	}
	if text := strings.TrimSpace(sb.String()); text != "" {
		out = append(out, statement{line: start, text: text})
	}
	return out
}

func declaration(text string) (name string, size int, ok bool, err error) {
	var sizeText string
	switch {
	case qregRegex.MatchString(text):
		m := qregRegex.FindStringSubmatch(text)
		name, sizeText = m[1], m[2]
	case qubitRegex.MatchString(text):
		m := qubitRegex.FindStringSubmatch(text)
		name, sizeText = m[2], m[1]
	case oneQubitRegex.MatchString(text):
		return oneQubitRegex.FindStringSubmatch(text)[1], 1, true, nil
	default:
		return "", 0, false, nil
	}
	size, err = strconv.Atoi(sizeText)
	if err != nil || size < 1 {
		return "", 0, false, fmt.Errorf("%w: register %s has invalid size %q", core.ErrParse, name, sizeText)
	}
	return name, size, true, nil
}

func isIgnored(text string) bool {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == '[' || r == '('
	})
	if len(fields) == 0 {
		return false
	}
	if _, ok := ignoredKeywords[strings.ToLower(fields[0])]; ok {
		return true
	}
	// c[0] = measure q[0];
	return strings.Contains(text, "= measure") || strings.Contains(text, "=measure")
}

func gateCall(c *circuit.Circuit, regs map[string]register, text string) error {
	var name, params, args string
	if m := paramGateRegex.FindStringSubmatch(text); m != nil {
		name, params, args = m[1], m[2], m[3]
	} else if m := gateRegex.FindStringSubmatch(text); m != nil {
		name, args = m[1], m[2]
	} else {
		return fmt.Errorf("%w: cannot read statement %q", core.ErrParse, text)
	}

	targets, err := resolveArgs(regs, args)
	if err != nil {
		return err
	}

	if params == "" {
		g, ok := gate.Lookup(name)
		if !ok {
			if _, parametric := gate.LookupParametric(name); parametric {
				return fmt.Errorf("%w: %s needs an angle", core.ErrInvalidParameter, name)
			}
			return fmt.Errorf("%w: unsupported gate %q", core.ErrInvalidGate, name)
		}
		for _, qs := range targets {
			if err := c.Append(g, qs...); err != nil {
				return err
			}
		}
		return nil
	}

	pg, ok := gate.LookupParametric(name)
	if !ok {
		return fmt.Errorf("%w: unsupported gate %q", core.ErrInvalidGate, name)
	}
	theta, err := evalAngle(params)
	if err != nil {
		return err
	}
	for _, qs := range targets {
		if len(qs) != pg.Arity() {
			return fmt.Errorf("%w: %s acts on %d qubits, got %d targets",
				core.ErrInvalidGate, pg.Name(), pg.Arity(), len(qs))
		}
		if err := c.AppendParametric(pg, theta, qs...); err != nil {
			return err
		}
	}
	return nil
}

// resolveArgs maps gate arguments to absolute qubit indices. A bare
// register name broadcasts the gate over the register, so "h q;" yields
// one target list per qubit of q.
func resolveArgs(regs map[string]register, args string) ([][]int, error) {
	parts := strings.Split(args, ",")
	expanded := make([][]int, len(parts))
	width := 1
	for i, part := range parts {
		m := argRegex.FindStringSubmatch(strings.TrimSpace(part))
		if m == nil {
			return nil, fmt.Errorf("%w: cannot read gate argument %q", core.ErrParse, part)
		}
		reg, ok := regs[m[1]]
		if !ok {
			return nil, fmt.Errorf("%w: unknown register %s", core.ErrParse, m[1])
		}
		if m[2] == "" {
			for q := 0; q < reg.size; q++ {
				expanded[i] = append(expanded[i], reg.offset+q)
			}
		} else {
			idx, _ := strconv.Atoi(m[2])
			if idx >= reg.size {
				return nil, fmt.Errorf("%w: %s[%d] is out of range for a register of %d",
					core.ErrIndex, m[1], idx, reg.size)
			}
			expanded[i] = []int{reg.offset + idx}
		}
		if len(expanded[i]) > 1 {
			if width > 1 && len(expanded[i]) != width {
				return nil, fmt.Errorf("%w: registers of different sizes in %q", core.ErrParse, args)
			}
			width = len(expanded[i])
		}
	}
	out := make([][]int, width)
	for w := range out {
		for _, qs := range expanded {
			if len(qs) == 1 {
				out[w] = append(out[w], qs[0])
			} else {
				out[w] = append(out[w], qs[w])
			}
		}
	}
	return out, nil
}

func evalAngle(src string) (float64, error) {
	if strings.Contains(src, ",") {
		return 0, fmt.Errorf("%w: only single-angle gates are supported, got (%s)", core.ErrInvalidGate, src)
	}
	v, err := exprlang.Eval(src, angleEnv)
	if err != nil {
		return 0, fmt.Errorf("%w: angle %q: %s", core.ErrParse, src, err)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: angle %q evaluates to %T", core.ErrParse, src, v)
	}
}
