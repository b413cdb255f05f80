// Package interaction translates pointer gestures (drag, trim, split,
// snap, canvas reposition) into timeline mutations. All mutations clamp
// defensively; a gesture can transiently violate soft invariants but the
// model self-corrects on drop.
package interaction

// PixelsPerMsBase is the fixed horizontal scale: at zoom factor 1, 100
// pixels represent one second.
const PixelsPerMsBase = 0.1

// Zoom factor bounds for the timeline ruler.
const (
	MinZoom = 0.001
	MaxZoom = 10.0
)

// SnapThresholdPx is the snap radius in screen pixels. Converted to
// milliseconds through the current zoom, so the effective time radius
// shrinks as the user zooms in.
const SnapThresholdPx = 8.0

// ClampZoom bounds a zoom factor to the supported range.
func ClampZoom(zoom float64) float64 {
	if zoom < MinZoom {
		return MinZoom
	}
	if zoom > MaxZoom {
		return MaxZoom
	}
	return zoom
}

// TimeAtPixel converts a timeline x coordinate to milliseconds.
func TimeAtPixel(px, zoom float64) int64 {
	zoom = ClampZoom(zoom)
	return int64(px / (zoom * PixelsPerMsBase))
}

// PixelAtTime converts milliseconds to a timeline x coordinate.
func PixelAtTime(ms int64, zoom float64) float64 {
	zoom = ClampZoom(zoom)
	return float64(ms) * zoom * PixelsPerMsBase
}

// SnapThresholdMs is the snap radius in milliseconds at the given zoom.
func SnapThresholdMs(zoom float64) int64 {
	zoom = ClampZoom(zoom)
	return int64(SnapThresholdPx / (zoom * PixelsPerMsBase))
}

func absMs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
