package sampling

import (
	"fmt"

	"github.com/oqtopus-team/qsim/core"
)

type Summary struct {
	Shots uint32 `json:"shots"`
	// Marginals[i] is the observed frequency of qubit i reading 1.
	Marginals    []float64 `json:"marginals"`
	MostFrequent string    `json:"most_frequent"`
	Distinct     int       `json:"distinct"`
}

// Summarize reduces counts to per-qubit marginals and the most frequent
// outcome. Ties go to the lexically smallest bitstring.
func Summarize(counts core.Counts) (*Summary, error) {
	total := counts.Total()
	if total == 0 {
		return nil, fmt.Errorf("%w: no counts to summarize", core.ErrInvalidParameter)
	}
	keys := counts.Keys()
	width := len(keys[0])
	ones := make([]uint32, width)
	s := &Summary{
		Shots:    total,
		Distinct: len(keys),
	}
	var best uint32
	for _, k := range keys {
		if len(k) != width {
			return nil, fmt.Errorf("%w: outcome %q has %d bits, expected %d",
				core.ErrInvalidParameter, k, len(k), width)
		}
		n := counts[k]
		if n > best {
			best = n
			s.MostFrequent = k
		}
		for i, b := range k {
			switch b {
			case '1':
				ones[i] += n
			case '0':
			default:
				return nil, fmt.Errorf("%w: outcome %q is not a bitstring", core.ErrInvalidParameter, k)
			}
		}
	}
	s.Marginals = make([]float64, width)
	for i, n := range ones {
		s.Marginals[i] = float64(n) / float64(total)
	}
	return s, nil
}

// ParseSummary reads back the summary stored in a job's Info.
func ParseSummary(info string) (*Summary, error) {
	s := &Summary{}
	if err := jsonIter.UnmarshalFromString(info, s); err != nil {
		return nil, fmt.Errorf("failed to parse summary: %w", err)
	}
	return s, nil
}
