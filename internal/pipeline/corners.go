package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/quadwarp/internal/geom"
	"github.com/MeKo-Tech/quadwarp/internal/texmap"
)

// ParseCorners parses four points written as "x,y;x,y;x,y;x,y" in the order
// top-left, top-right, bottom-left, bottom-right.
func ParseCorners(s string) ([4]geom.Vec2, error) {
	var out [4]geom.Vec2
	parts := strings.Split(strings.TrimSpace(s), ";")
	if len(parts) != 4 {
		return out, fmt.Errorf("expected 4 points separated by ';', got %d", len(parts))
	}
	for i, part := range parts {
		xy := strings.Split(part, ",")
		if len(xy) != 2 {
			return out, fmt.Errorf("point %d: expected \"x,y\", got %q", i, strings.TrimSpace(part))
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xy[0]), 64)
		if err != nil {
			return out, fmt.Errorf("point %d: invalid x: %w", i, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(xy[1]), 64)
		if err != nil {
			return out, fmt.Errorf("point %d: invalid y: %w", i, err)
		}
		p := geom.V2(x, y)
		if !p.IsFinite() {
			return out, fmt.Errorf("point %d is not finite", i)
		}
		out[i] = p
	}
	return out, nil
}

// FormatCorners is the inverse of ParseCorners.
func FormatCorners(c [4]geom.Vec2) string {
	parts := make([]string, len(c))
	for i, p := range c {
		parts[i] = strconv.FormatFloat(p.X, 'g', -1, 64) + "," + strconv.FormatFloat(p.Y, 'g', -1, 64)
	}
	return strings.Join(parts, ";")
}

// ParseUVs parses per-corner texture coordinates in the ParseCorners
// format. An empty string means the default UVs and returns nil.
func ParseUVs(s string) (*texmap.UVSet, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	pts, err := ParseCorners(s)
	if err != nil {
		return nil, fmt.Errorf("invalid uvs: %w", err)
	}
	uvs := texmap.UVSet(pts)
	return &uvs, nil
}
