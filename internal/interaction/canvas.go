package interaction

import (
	"fmt"

	"github.com/demostudio/demostudio-agent/internal/timeline"
)

// Reposition moves a clip on the preview canvas by a screen-pixel delta.
// The delta is scaled from displayed size to project pixels, and the
// resulting position clamps to the project bounds.
func Reposition(doc *timeline.Document, clipID string, deltaScreenX, deltaScreenY, displayWidth, displayHeight float64) error {
	clip := doc.ClipByID(clipID)
	if clip == nil {
		return fmt.Errorf("clip %s not found", clipID)
	}
	if displayWidth <= 0 || displayHeight <= 0 {
		return fmt.Errorf("display size must be positive")
	}

	projectW := float64(doc.Project.Width)
	projectH := float64(doc.Project.Height)

	clip.PositionX += deltaScreenX * (projectW / displayWidth)
	clip.PositionY += deltaScreenY * (projectH / displayHeight)

	if clip.PositionX < 0 {
		clip.PositionX = 0
	}
	if clip.PositionX > projectW {
		clip.PositionX = projectW
	}
	if clip.PositionY < 0 {
		clip.PositionY = 0
	}
	if clip.PositionY > projectH {
		clip.PositionY = projectH
	}
	return nil
}
