package engine

import (
	"fmt"
	"strings"

	"github.com/bamsammich/ferry/internal/units"
)

// PolicyKind selects which files are verified after copy.
type PolicyKind int

const (
	PolicyAll PolicyKind = iota
	PolicyNone
	PolicySizeLessThan
)

// VerificationPolicy decides per file whether content is verified.
type VerificationPolicy struct {
	Kind      PolicyKind
	Threshold int64 // PolicySizeLessThan only
}

// DefaultPolicy verifies every file.
var DefaultPolicy = VerifyAll()

// VerifyAll returns a policy that verifies every file.
func VerifyAll() VerificationPolicy { return VerificationPolicy{Kind: PolicyAll} }

// VerifyNone returns a policy that never verifies.
func VerifyNone() VerificationPolicy { return VerificationPolicy{Kind: PolicyNone} }

// VerifySizeLessThan verifies only files strictly smaller than threshold.
func VerifySizeLessThan(threshold int64) VerificationPolicy {
	return VerificationPolicy{Kind: PolicySizeLessThan, Threshold: threshold}
}

// ShouldVerify reports whether a file of the given size is verified.
// Unknown kinds verify.
func (p VerificationPolicy) ShouldVerify(size int64) bool {
	switch p.Kind {
	case PolicyNone:
		return false
	case PolicyAll:
		return true
	case PolicySizeLessThan:
		return size < p.Threshold
	default:
		return true
	}
}

func (p VerificationPolicy) String() string {
	switch p.Kind {
	case PolicyAll:
		return "all"
	case PolicyNone:
		return "none"
	case PolicySizeLessThan:
		return fmt.Sprintf("lt:%d", p.Threshold)
	default:
		return fmt.Sprintf("policy(%d)", p.Kind)
	}
}

// ParsePolicy parses "all", "none" or "lt:<size>" (e.g. "lt:2G").
func ParsePolicy(s string) (VerificationPolicy, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "all", "":
		return VerifyAll(), nil
	case "none", "off":
		return VerifyNone(), nil
	}

	if rest, ok := strings.CutPrefix(v, "lt:"); ok {
		n, err := units.ParseSize(rest)
		if err != nil {
			return VerificationPolicy{}, fmt.Errorf("verify policy %q: %w", s, err)
		}
		if n <= 0 {
			return VerificationPolicy{}, fmt.Errorf("verify policy %q: threshold must be positive", s)
		}
		return VerifySizeLessThan(n), nil
	}
	return VerificationPolicy{}, fmt.Errorf("unknown verify policy %q (use all, none or lt:SIZE)", s)
}
