package enums

import "fmt"

// RetreadGrade is the inspection outcome of a single retread cycle.
type RetreadGrade string

const (
	RetreadGradeA        RetreadGrade = "A"
	RetreadGradeB        RetreadGrade = "B"
	RetreadGradeC        RetreadGrade = "C"
	RetreadGradeRejected RetreadGrade = "REJECTED"
)

var validRetreadGrades = []RetreadGrade{
	RetreadGradeA,
	RetreadGradeB,
	RetreadGradeC,
	RetreadGradeRejected,
}

// String implements fmt.Stringer.
func (g RetreadGrade) String() string {
	return string(g)
}

// IsValid reports whether the value is a known RetreadGrade.
func (g RetreadGrade) IsValid() bool {
	for _, candidate := range validRetreadGrades {
		if candidate == g {
			return true
		}
	}
	return false
}

// EcoScoreFactor returns the multiplier applied to a casing's eco score
// when a cycle with this grade is recorded. A rejected casing scores zero.
func (g RetreadGrade) EcoScoreFactor() float64 {
	switch g {
	case RetreadGradeA:
		return 0.95
	case RetreadGradeB:
		return 0.85
	case RetreadGradeC:
		return 0.75
	default:
		return 0
	}
}

// ParseRetreadGrade converts raw input into a RetreadGrade.
func ParseRetreadGrade(value string) (RetreadGrade, error) {
	for _, candidate := range validRetreadGrades {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid retread grade %q", value)
}
