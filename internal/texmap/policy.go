package texmap

import (
	"fmt"
	"strings"
)

// OutOfQuadPolicy decides what happens to a quad-parametric coordinate that
// falls outside [0,1). The zero value is invalid.
type OutOfQuadPolicy int

const (
	QuadWrap OutOfQuadPolicy = iota + 1
	QuadClamp
	QuadSkip
)

// OutOfTexturePolicy decides what happens to a resolved UV outside [0,1).
// There is no skip variant: once a point maps into the quad a texel always exists.
// The zero value is invalid.
type OutOfTexturePolicy int

const (
	TextureWrap OutOfTexturePolicy = iota + 1
	TextureClamp
)

// rangeMode is the per-axis behaviour shared by both policy types.
type rangeMode uint8

const (
	modeInvalid rangeMode = iota
	modeWrap
	modeClamp
	modeSkip
)

func (p OutOfQuadPolicy) mode() rangeMode {
	switch p {
	case QuadWrap:
		return modeWrap
	case QuadClamp:
		return modeClamp
	case QuadSkip:
		return modeSkip
	default:
		return modeInvalid
	}
}

func (p OutOfTexturePolicy) mode() rangeMode {
	switch p {
	case TextureWrap:
		return modeWrap
	case TextureClamp:
		return modeClamp
	default:
		return modeInvalid
	}
}

// Valid reports whether p is one of the defined policies.
func (p OutOfQuadPolicy) Valid() bool { return p.mode() != modeInvalid }

// Valid reports whether p is one of the defined policies.
func (p OutOfTexturePolicy) Valid() bool { return p.mode() != modeInvalid }

func (p OutOfQuadPolicy) String() string {
	switch p {
	case QuadWrap:
		return "wrap"
	case QuadClamp:
		return "clamp"
	case QuadSkip:
		return "skip"
	default:
		return fmt.Sprintf("OutOfQuadPolicy(%d)", int(p))
	}
}

func (p OutOfTexturePolicy) String() string {
	switch p {
	case TextureWrap:
		return "wrap"
	case TextureClamp:
		return "clamp"
	default:
		return fmt.Sprintf("OutOfTexturePolicy(%d)", int(p))
	}
}

// ParseOutOfQuadPolicy parses "wrap", "clamp" or "skip" (case-insensitive).
func ParseOutOfQuadPolicy(s string) (OutOfQuadPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wrap":
		return QuadWrap, nil
	case "clamp":
		return QuadClamp, nil
	case "skip":
		return QuadSkip, nil
	default:
		return 0, fmt.Errorf("%w: out-of-quad %q (must be one of: wrap, clamp, skip)", ErrInvalidPolicy, s)
	}
}

// ParseOutOfTexturePolicy parses "wrap" or "clamp" (case-insensitive).
func ParseOutOfTexturePolicy(s string) (OutOfTexturePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wrap":
		return TextureWrap, nil
	case "clamp":
		return TextureClamp, nil
	default:
		return 0, fmt.Errorf("%w: out-of-texture %q (must be one of: wrap, clamp)", ErrInvalidPolicy, s)
	}
}
