package components

import (
	"fmt"
	"strings"

	"github.com/atlas-vision/atlas/internal/models"
	"github.com/atlas-vision/atlas/ui/styles"
)

const notFoundFallback = "Aucun monument reconnu sur cette image."

// RenderResult draws the recognition outcome for the current snapshot.
func RenderResult(snap models.Snapshot, loadingDots int, width int) string {
	switch snap.Phase {
	case models.Requesting:
		return styles.NoticeStyle().Render("Analyse de l'image" + strings.Repeat(".", loadingDots))
	case models.Failed:
		return styles.ErrorStyle().Render(snap.Error)
	case models.ResultReady:
	default:
		return ""
	}

	r := snap.Result
	if r.NotFound() {
		msg := notFoundFallback
		if r.Message != "" {
			msg = r.Message
		}
		body := styles.NoticeStyle().Render(msg)
		if p := progressLine(snap.Progress); p != "" {
			body += "\n" + p
		}
		return styles.CardStyle(width).Render(body)
	}
	if !r.Found() {
		return ""
	}

	lines := []string{
		styles.TitleStyle().Render(r.DisplayName) + "  " +
			styles.ConfidenceStyle().Render(FormatConfidence(r.Confidence)),
		row("Lieu", r.Location),
		row("Carte", styles.LinkStyle().Render(r.MapLink)),
	}
	if p := progressLine(snap.Progress); p != "" {
		lines = append(lines, p)
	}
	if r.Description != "" {
		lines = append(lines, "", r.Description)
	}
	return styles.CardStyle(width).Render(strings.Join(lines, "\n"))
}

// FormatConfidence renders a 0..1 score as a whole percentage.
func FormatConfidence(c float64) string {
	return fmt.Sprintf("%.0f%%", c*100)
}

func row(label, value string) string {
	return styles.LabelStyle().Render(label) + value
}

func progressLine(p any) string {
	if p == nil {
		return ""
	}
	return row("Progression", fmt.Sprint(p))
}
