package circuit

import (
	"fmt"
	"strings"
)

// Draw renders the circuit as ASCII art, one wire per qubit and one column
// per instruction.
func Draw(c *Circuit) string {
	rows := make([]strings.Builder, c.numQubits)
	labelWidth := len(fmt.Sprintf("q%d", c.numQubits-1))
	for q := range rows {
		fmt.Fprintf(&rows[q], "%-*s: ", labelWidth, fmt.Sprintf("q%d", q))
	}
	for _, in := range c.instructions {
		cells := columnCells(in, c.numQubits)
		width := 1
		for _, cell := range cells {
			if len(cell) > width {
				width = len(cell)
			}
		}
		for q, cell := range cells {
			rows[q].WriteString("-")
			rows[q].WriteString(cell)
			rows[q].WriteString(strings.Repeat("-", width-len(cell)+1))
		}
	}
	var sb strings.Builder
	for q := range rows {
		sb.WriteString(rows[q].String())
		sb.WriteString("\n")
	}
	return sb.String()
}

func columnCells(in Instruction, numQubits int) []string {
	cells := make([]string, numQubits)
	name := strings.ToUpper(in.Name())
	if len(in.qubits) == 1 {
		cells[in.qubits[0]] = name
		return cells
	}
	lo, hi := in.qubits[0], in.qubits[0]
	for _, q := range in.qubits {
		lo = min(lo, q)
		hi = max(hi, q)
	}
	for q := lo + 1; q < hi; q++ {
		cells[q] = "|"
	}
	control, target := in.qubits[0], in.qubits[1]
	switch in.Name() {
	case "cx":
		cells[control], cells[target] = "*", "X"
	case "cy":
		cells[control], cells[target] = "*", "Y"
	case "cz":
		cells[control], cells[target] = "*", "*"
	case "cp":
		cells[control], cells[target] = "*", "P"
	case "swap":
		cells[control], cells[target] = "x", "x"
	default:
		for i, q := range in.qubits {
			cells[q] = fmt.Sprintf("%s%d", name, i)
		}
	}
	return cells
}
