// Package balance evaluates the class-balance predicate natively: label
// booleanity, exact count accuracy via a running sum, total consistency, and
// the optional imbalance tolerance. The arithmetized twin of this package
// lives in pkg/circuit; both must accept and reject exactly the same
// (labels, claim) pairs.
package balance

import (
	"fmt"

	"github.com/zkfl-labs/balance-proof-go/pkg/types"
)

// DomainError reports a label outside {0,1}. The offending index is part of
// the error so a data holder can locate the bad record; the in-circuit
// rendition of the same violation is an unsatisfiable constraint set.
type DomainError struct {
	Index int
	Value int64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("label at index %d is not binary: %d", e.Index, e.Value)
}

// ConsistencyError reports claimed counts that disagree with each other or
// with the actual label sum.
type ConsistencyError struct {
	Field string
	Want  int
	Got   int
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("inconsistent claim: %s should be %d, got %d", e.Field, e.Want, e.Got)
}

// Count tallies the class counts of a label sequence. Returns a DomainError
// for the first non-binary label; counting never coerces.
func Count(labels []int64) (c0, c1 int, err error) {
	for i, l := range labels {
		switch l {
		case 0:
			c0++
		case 1:
			c1++
		default:
			return 0, 0, &DomainError{Index: i, Value: l}
		}
	}
	return c0, c1, nil
}

// Evaluate checks a balance claim against the private labels. It accepts iff
// every label is binary, the labels' running sum equals the claimed c1, and
// c0 + c1 == N_public == len(labels).
//
// Unlike the circuit, this runs over machine integers rather than a large
// prime field, so the count bounds 0 <= c0,c1 <= N are checked explicitly
// instead of being implied by the field size.
func Evaluate(labels []int64, claim *types.BalanceClaim) error {
	if claim == nil {
		return fmt.Errorf("nil balance claim")
	}
	if len(labels) != claim.NPublic {
		return &ConsistencyError{Field: "N_public", Want: len(labels), Got: claim.NPublic}
	}
	if claim.C0 < 0 || claim.C0 > claim.NPublic {
		return &ConsistencyError{Field: "c0", Want: claim.NPublic - claim.C1, Got: claim.C0}
	}
	if claim.C1 < 0 || claim.C1 > claim.NPublic {
		return &ConsistencyError{Field: "c1", Want: claim.NPublic - claim.C0, Got: claim.C1}
	}
	if claim.C0+claim.C1 != claim.NPublic {
		return &ConsistencyError{Field: "c0+c1", Want: claim.NPublic, Got: claim.C0 + claim.C1}
	}

	// Running prefix sum, one fixed-arity addition per step, mirroring the
	// circuit's sequential accumulator.
	sum := 0
	for i, l := range labels {
		if l != 0 && l != 1 {
			return &DomainError{Index: i, Value: l}
		}
		sum += int(l)
	}
	if sum != claim.C1 {
		return &ConsistencyError{Field: "c1", Want: sum, Got: claim.C1}
	}

	return nil
}

// EvaluateTolerance checks a tolerance claim: the balance predicate plus
// |c0 - c1| <= floor(tolerance_percent * N / 100).
func EvaluateTolerance(labels []int64, claim *types.ToleranceClaim) error {
	if claim == nil {
		return fmt.Errorf("nil tolerance claim")
	}
	if claim.TolerancePercent < 0 || claim.TolerancePercent > 100 {
		return fmt.Errorf("tolerance percent out of range: %d", claim.TolerancePercent)
	}
	if err := Evaluate(labels, &claim.BalanceClaim); err != nil {
		return err
	}

	diff := claim.C0 - claim.C1
	if diff < 0 {
		diff = -diff
	}
	bound := types.ToleranceBound(claim.TolerancePercent, claim.NPublic)
	if diff > bound {
		return &ConsistencyError{Field: "|c0-c1|", Want: bound, Got: diff}
	}

	return nil
}
