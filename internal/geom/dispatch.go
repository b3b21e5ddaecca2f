package geom

import (
	"math"
	"os"
	"strconv"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Level identifies which length² implementation is in use.
type Level int32

const (
	// LevelScalar is the plain x*x + y*y formula. It is always available.
	LevelScalar Level = iota

	// LevelFMA uses a fused multiply-add for the final accumulation.
	// Enabled on CPUs with hardware FMA (x86 FMA3, ARMv8 ASIMD).
	LevelFMA
)

// NoSIMDEnvVar forces the scalar path when set to a true value.
const NoSIMDEnvVar = "QUADWARP_NO_SIMD"

// String returns a human-readable name for the level.
func (l Level) String() string {
	switch l {
	case LevelScalar:
		return "scalar"
	case LevelFMA:
		return "fma"
	default:
		return "unknown"
	}
}

var currentLevel atomic.Int32

func init() {
	currentLevel.Store(int32(DetectLevel()))
}

// DetectLevel inspects the CPU and environment and returns the best level
// available. It does not change the active level.
func DetectLevel() Level {
	if NoSIMDEnv() {
		return LevelScalar
	}
	if cpu.X86.HasFMA || cpu.ARM64.HasASIMD {
		return LevelFMA
	}
	return LevelScalar
}

// CurrentLevel returns the level used by Vec2.LengthSq.
func CurrentLevel() Level {
	return Level(currentLevel.Load())
}

// SetLevel overrides the active level and returns the previous one.
// Intended for tests and benchmarks comparing both paths.
func SetLevel(l Level) Level {
	return Level(currentLevel.Swap(int32(l)))
}

// NoSIMDEnv reports whether QUADWARP_NO_SIMD requests the scalar path.
// Any non-empty value that does not parse as false counts as set.
func NoSIMDEnv() bool {
	val := os.Getenv(NoSIMDEnvVar)
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}

// LengthSqScalar is the reference x*x + y*y implementation.
func LengthSqScalar(v Vec2) float64 {
	return v.X*v.X + v.Y*v.Y
}

// LengthSqFMA computes x*x + y*y with a single rounding on the final add.
func LengthSqFMA(v Vec2) float64 {
	return math.FMA(v.X, v.X, v.Y*v.Y)
}

func lengthSq(v Vec2) float64 {
	if Level(currentLevel.Load()) == LevelFMA {
		return LengthSqFMA(v)
	}
	return LengthSqScalar(v)
}
