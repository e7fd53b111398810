package components

import (
	"strings"

	"github.com/atlas-vision/atlas/ui/styles"
)

func RenderStatus(status string, loading bool, loadingDots int, width int) string {
	statusContent := status
	if loading {
		statusContent += strings.Repeat(".", loadingDots)
	}
	return styles.StatusStyle(width).Render(statusContent)
}
