package components

import (
	"strings"

	"github.com/atlas-vision/atlas/ui/styles"
)

func RenderInput(label, input string, focused bool, width int) string {
	content := input
	if focused {
		content += "█"
	}
	var b strings.Builder
	b.WriteString(styles.InputLabelStyle().Render(label) + "\n")
	b.WriteString(styles.InputStyle(width, focused).Render(content))
	return b.String()
}
