package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/atlas-vision/atlas/ui/styles"
)

const banner = `   _   _   _                 __   ___    _
  /_\ | |_| |__ _ ___  \ \ / (_)___(_)___ _ _
 / _ \|  _| / _' (_-<   \ V /| (_-<| / _ \ ' \
/_/ \_\\__|_\__,_/__/    \_/ |_/__/|_\___/_||_|`

func RenderLanding(width int) string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle().Render(banner) + "\n\n")
	b.WriteString(styles.SubtitleStyle().Render("Préparez-vous pour votre voyage et découvrez tous les aspects") + "\n\n")
	b.WriteString(lipgloss.NewStyle().Width(max(min(width-4, 72), 20)).Render(
		"Atlas Vision est fourni gratuitement. Cette plateforme est basée sur l'intelligence " +
			"artificielle. Photographiez un monument marocain, identifiez-le et posez vos " +
			"questions au guide."))
	b.WriteString("\n\n")
	b.WriteString(styles.HintStyle().Render("enter  commencer   ctrl+a  à propos   ctrl+o  contact   ctrl+p  confidentialité   q  quitter"))
	b.WriteString("\n")

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
