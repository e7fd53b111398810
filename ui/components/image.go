package components

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/atlas-vision/atlas/internal/models"
	"github.com/atlas-vision/atlas/ui/styles"
)

// RenderImage shows the selected image's metadata next to its thumbnail.
// thumb may be nil when the preview has been revoked or never decoded.
func RenderImage(img *models.ImageSummary, thumb image.Image, width int) string {
	if img == nil {
		return styles.PanelStyle(width).Render(styles.HintStyle().Render("Aucune image. Saisissez un chemin puis entrée."))
	}

	info := strings.Join([]string{
		styles.TitleStyle().Render(img.Name),
		fmt.Sprintf("%s · %s", img.MediaType, humanBytes(img.Size)),
		fmt.Sprintf("%d × %d px", img.Width, img.Height),
	}, "\n")

	if thumb == nil {
		return styles.PanelStyle(width).Render(info)
	}
	return styles.PanelStyle(width).Render(
		lipgloss.JoinHorizontal(lipgloss.Top, RenderThumbnail(thumb), "  ", info))
}

// RenderThumbnail draws img with upper half blocks: each cell carries two
// vertically stacked pixels, foreground on top, background below.
func RenderThumbnail(img image.Image) string {
	bounds := img.Bounds()
	var b strings.Builder
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 2 {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			style := lipgloss.NewStyle().Foreground(hex(img.At(x, y)))
			if y+1 < bounds.Max.Y {
				style = style.Background(hex(img.At(x, y+1)))
			}
			b.WriteString(style.Render("▀"))
		}
		if y+2 < bounds.Max.Y {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func hex(c color.Color) lipgloss.Color {
	r, g, b, _ := c.RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8))
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f Mo", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.0f Ko", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d o", n)
}
