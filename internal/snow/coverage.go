package snow

import (
	"math"

	"github.com/chrissnell/surfenergy/internal/types"
)

// CoverageModel decides the fraction of the tile covered by snow once the
// pack has been updated for the step. It is only consulted while SWQ > 0.
type CoverageModel interface {
	Coverage(s *types.SnowState, prior, snowfall float64) float64
}

// Binary covers the whole tile whenever there is any snow
type Binary struct{}

// Coverage implements CoverageModel
func (Binary) Coverage(s *types.SnowState, _, _ float64) float64 {
	if s.SWQ > 0 {
		return 1
	}
	return 0
}

// DepletionCurve is a linear areal depletion curve: the tile is fully
// covered while the pack is at least DepthFullCover deep or it is snowing,
// and partially covered in proportion to depth otherwise. Coverage never
// grows without new snow.
type DepletionCurve struct {
	DepthFullCover float64
}

// Coverage implements CoverageModel
func (d DepletionCurve) Coverage(s *types.SnowState, prior, snowfall float64) float64 {
	if s.SWQ <= 0 {
		return 0
	}
	if snowfall > 0 {
		s.MaxSWQ = math.Max(s.MaxSWQ, s.SWQ)
		s.StoreSWQ = s.SWQ
		return 1
	}
	if d.DepthFullCover <= 0 || s.Depth >= d.DepthFullCover {
		return 1
	}
	c := s.Depth / d.DepthFullCover
	if prior > 0 && c > prior {
		c = prior
	}
	return math.Min(math.Max(c, 0), 1)
}

// NewCoverageModel returns the coverage model selected by the spatial snow
// option
func NewCoverageModel(spatial bool, depthFullCover float64) CoverageModel {
	if spatial {
		return DepletionCurve{DepthFullCover: depthFullCover}
	}
	return Binary{}
}
