// Package extract is the single entry point that ties the density algebra,
// the sampling kernel, the QEF solver and the three contouring variants
// together behind one call, so a caller never has to construct a
// contour.GridConfig/OctreeConfig/ManifoldConfig by hand.
package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/wrenfield/isocarve/pkg/contour"
	"github.com/wrenfield/isocarve/pkg/density"
	"github.com/wrenfield/isocarve/pkg/math3d"
	"github.com/wrenfield/isocarve/pkg/meshsink"
	"github.com/wrenfield/isocarve/pkg/qef"
	"github.com/wrenfield/isocarve/pkg/sample"
)

// Mode selects which Dual Contouring variant Extract runs.
type Mode int

const (
	// UniformDC places one feature vertex per surface-crossing cell of a
	// uniform grid.
	UniformDC Mode = iota
	// AdaptiveDC builds an octree that coarsens away from the surface,
	// collapsing cells whose combined QEF residual stays under tolerance.
	AdaptiveDC
	// ManifoldDC is the uniform-grid variant that solves more than one
	// feature vertex per cell when the surface passes through it more than
	// once, guaranteeing a manifold result.
	ManifoldDC
)

func (m Mode) String() string {
	switch m {
	case UniformDC:
		return "uniform"
	case AdaptiveDC:
		return "adaptive"
	case ManifoldDC:
		return "manifold"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ErrInvalidInput is returned when Config describes a region or resolution
// Extract cannot sample (zero or negative extents, zero resolution, an
// unknown Mode).
var ErrInvalidInput = errors.New("extract: invalid input")

// Config describes one extraction call: the region of space to sample, at
// what resolution, with which variant and tolerances.
type Config struct {
	Origin     math3d.Vec3
	Size       float64 // edge length of the cubic region sampled
	Resolution int     // cells per axis for UniformDC/ManifoldDC; ignored by AdaptiveDC

	Mode Mode

	// MaxDepth is the octree depth bound for AdaptiveDC; ignored otherwise.
	MaxDepth int
	// CollapseTolerance scales the per-node QEF-residual collapse
	// threshold for AdaptiveDC; ignored otherwise.
	CollapseTolerance float64

	QEFRegularization   float64
	QEFSVDEpsilon       float64
	ClampFeaturesToCell bool
	EdgeAccuracy        int
	NormalStepFraction  float64
}

// DefaultConfig returns a Config with the spec's suggested tolerances and
// UniformDC selected; Origin, Size, Resolution (or MaxDepth for adaptive
// mode) are still the caller's responsibility.
func DefaultConfig() Config {
	d := qef.DefaultConfig()
	return Config{
		Mode:                UniformDC,
		MaxDepth:            6,
		CollapseTolerance:   0.01,
		QEFRegularization:   d.Regularization,
		QEFSVDEpsilon:       d.SVDEpsilon,
		ClampFeaturesToCell: d.ClampToCell,
		EdgeAccuracy:        8,
		NormalStepFraction:  sample.DefaultNormalStepFraction,
	}
}

func (c Config) qefConfig() qef.Config {
	return qef.Config{
		Regularization: c.QEFRegularization,
		SVDEpsilon:     c.QEFSVDEpsilon,
		ClampToCell:    c.ClampFeaturesToCell,
		BruteForceGrid: qef.DefaultConfig().BruteForceGrid,
	}
}

func (c Config) validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: size %v must be positive", ErrInvalidInput, c.Size)
	}
	switch c.Mode {
	case UniformDC, ManifoldDC:
		if c.Resolution <= 0 {
			return fmt.Errorf("%w: resolution %d must be positive", ErrInvalidInput, c.Resolution)
		}
	case AdaptiveDC:
		if c.MaxDepth <= 0 {
			return fmt.Errorf("%w: max depth %d must be positive", ErrInvalidInput, c.MaxDepth)
		}
	default:
		return fmt.Errorf("%w: unknown mode %v", ErrInvalidInput, c.Mode)
	}
	return nil
}

// Stats re-exports contour.Stats so callers of this package need not import
// pkg/contour themselves.
type Stats = contour.Stats

// Extract samples field over the cubic region [cfg.Origin, cfg.Origin +
// cfg.Size] and writes the resulting mesh to sink using the variant named
// by cfg.Mode. ctx is checked at cell granularity; a cancelled context stops
// the pass early and returns ctx.Err() alongside whatever stats had
// accumulated so far.
func Extract(ctx context.Context, field density.Field, cfg Config, sink meshsink.Sink) (Stats, error) {
	if err := cfg.validate(); err != nil {
		return Stats{}, err
	}

	switch cfg.Mode {
	case UniformDC:
		gc := contour.DefaultGridConfig()
		gc.Origin = cfg.Origin
		gc.CellSize = cfg.Size / float64(cfg.Resolution)
		gc.Dims = [3]int{cfg.Resolution, cfg.Resolution, cfg.Resolution}
		gc.QEF = cfg.qefConfig()
		gc.EdgeAccuracy = cfg.EdgeAccuracy
		gc.NormalStepFraction = cfg.NormalStepFraction
		return contour.ExtractUniformGrid(ctx, field, gc, sink)

	case ManifoldDC:
		mc := contour.DefaultManifoldConfig()
		mc.Origin = cfg.Origin
		mc.CellSize = cfg.Size / float64(cfg.Resolution)
		mc.Dims = [3]int{cfg.Resolution, cfg.Resolution, cfg.Resolution}
		mc.QEF = cfg.qefConfig()
		mc.EdgeAccuracy = cfg.EdgeAccuracy
		mc.NormalStepFraction = cfg.NormalStepFraction
		return contour.ExtractUniformManifoldDC(ctx, field, mc, sink)

	case AdaptiveDC:
		oc := contour.DefaultOctreeConfig()
		oc.Origin = cfg.Origin
		oc.Side = cfg.Size
		oc.MaxDepth = cfg.MaxDepth
		oc.CollapseTolerance = cfg.CollapseTolerance
		oc.QEF = cfg.qefConfig()
		oc.EdgeAccuracy = cfg.EdgeAccuracy
		oc.NormalStepFraction = cfg.NormalStepFraction
		return contour.ExtractAdaptiveOctree(ctx, field, oc, sink)

	default:
		return Stats{}, fmt.Errorf("%w: unknown mode %v", ErrInvalidInput, cfg.Mode)
	}
}
