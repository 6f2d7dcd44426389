package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/openarcloud/ssd/pkg/ssr"
)

// Normalizer puts SSRs into a canonical form before they are submitted
type Normalizer struct {
	config *NormalizationConfig
}

// NormalizationConfig defines normalization rules
type NormalizationConfig struct {
	// TrimStrings removes surrounding whitespace from ids, titles, urls and providers
	TrimStrings bool
	// CanonicalizeServiceTypes rewrites known service types to their canonical casing
	CanonicalizeServiceTypes bool
	// CloseRings appends the first position to polygon rings that are not closed
	CloseRings bool
	// ComputeBBox fills in a 2D bounding box when none is present
	ComputeBBox bool
}

// DefaultNormalizationConfig returns default normalization settings
func DefaultNormalizationConfig() *NormalizationConfig {
	return &NormalizationConfig{
		TrimStrings:              true,
		CanonicalizeServiceTypes: true,
		CloseRings:               true,
		ComputeBBox:              false,
	}
}

// NewNormalizer creates a new normalizer
func NewNormalizer(config *NormalizationConfig) *Normalizer {
	if config == nil {
		config = DefaultNormalizationConfig()
	}
	return &Normalizer{config: config}
}

// Normalize returns a normalized copy of the record
func (n *Normalizer) Normalize(record ssr.SSR) ssr.SSR {
	normalized := record
	if n.config.TrimStrings {
		normalized.ID = strings.TrimSpace(record.ID)
		normalized.Type = strings.TrimSpace(record.Type)
		normalized.Provider = strings.TrimSpace(record.Provider)
	}

	normalized.Services = make([]ssr.Service, len(record.Services))
	for i, svc := range record.Services {
		normalized.Services[i] = n.normalizeService(svc)
	}

	normalized.Geometry = n.normalizeGeometry(record.Geometry)
	return normalized
}

func (n *Normalizer) normalizeService(svc ssr.Service) ssr.Service {
	out := svc
	if n.config.TrimStrings {
		out.ID = strings.TrimSpace(svc.ID)
		out.Title = strings.TrimSpace(svc.Title)
		out.Description = strings.TrimSpace(svc.Description)
		out.URL = strings.TrimSpace(svc.URL)
	}
	if n.config.CanonicalizeServiceTypes {
		if canonical, ok := ssr.ParseServiceType(strings.TrimSpace(string(svc.Type))); ok {
			out.Type = canonical
		}
	}
	if svc.Properties != nil {
		out.Properties = append([]ssr.Property(nil), svc.Properties...)
	}
	return out
}

func (n *Normalizer) normalizeGeometry(geometry ssr.Polygon) ssr.Polygon {
	out := ssr.Polygon{Type: geometry.Type}
	if geometry.BBox != nil {
		out.BBox = append(ssr.BBox(nil), geometry.BBox...)
	}

	out.Coordinates = make([][]ssr.Position, len(geometry.Coordinates))
	for i, ring := range geometry.Coordinates {
		copied := make([]ssr.Position, 0, len(ring)+1)
		for _, pos := range ring {
			copied = append(copied, append(ssr.Position(nil), pos...))
		}
		if n.config.CloseRings && len(copied) > 2 && !samePosition(copied[0], copied[len(copied)-1]) {
			copied = append(copied, append(ssr.Position(nil), copied[0]...))
		}
		out.Coordinates[i] = copied
	}

	if n.config.ComputeBBox && out.BBox == nil {
		out.BBox = boundingBox(out.Coordinates)
	}
	return out
}

// NormalizeString decodes, normalizes and re-encodes SSR JSON text
func (n *Normalizer) NormalizeString(content string) (string, error) {
	record, err := ssr.Unmarshal(content)
	if err != nil {
		return "", fmt.Errorf("failed to normalize: %w", err)
	}
	return n.Normalize(record).Marshal()
}

// CompareNormalized reports whether two SSR documents are equal once normalized
func (n *Normalizer) CompareNormalized(content1, content2 string) (bool, error) {
	normalized1, err := n.NormalizeString(content1)
	if err != nil {
		return false, err
	}
	normalized2, err := n.NormalizeString(content2)
	if err != nil {
		return false, err
	}
	return normalized1 == normalized2, nil
}

func samePosition(a, b ssr.Position) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func boundingBox(rings [][]ssr.Position) ssr.BBox {
	minLon, minLat := math.Inf(1), math.Inf(1)
	maxLon, maxLat := math.Inf(-1), math.Inf(-1)
	found := false
	for _, ring := range rings {
		for _, pos := range ring {
			if len(pos) < 2 {
				continue
			}
			found = true
			minLon = math.Min(minLon, pos[0])
			maxLon = math.Max(maxLon, pos[0])
			minLat = math.Min(minLat, pos[1])
			maxLat = math.Max(maxLat, pos[1])
		}
	}
	if !found {
		return nil
	}
	return ssr.BBox{minLon, minLat, maxLon, maxLat}
}
