// Package asset hosts uploaded image bytes and derives their public URLs.
package asset

import (
	"context"
	"strings"
)

// Uploaded identifies a stored asset.
type Uploaded struct {
	AssetID string
	URL     string
}

// Crop describes a derived rendition of an asset.
type Crop struct {
	AspectRatio string
	Gravity     string
	Mode        string
}

// SquareFaceCrop is the card thumbnail: square, centred on a face, filled.
var SquareFaceCrop = Crop{AspectRatio: "1:1", Gravity: "face", Mode: "fill"}

// Transformation renders c as a URL path segment, e.g. ar_1:1,g_face,c_fill.
func (c Crop) Transformation() string {
	var parts []string
	if c.AspectRatio != "" {
		parts = append(parts, "ar_"+c.AspectRatio)
	}
	if c.Gravity != "" {
		parts = append(parts, "g_"+c.Gravity)
	}
	if c.Mode != "" {
		parts = append(parts, "c_"+c.Mode)
	}
	return strings.Join(parts, ",")
}

type Host interface {
	Upload(ctx context.Context, name string, data []byte) (Uploaded, error)
	ThumbnailURL(assetID string, crop Crop) string
	Destroy(ctx context.Context, assetID string) error
}
