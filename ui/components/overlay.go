package components

import (
	"strings"

	"github.com/atlas-vision/atlas/internal/models"
	"github.com/atlas-vision/atlas/ui/styles"
)

const ContactEmail = "imane.abdeljalili@usmba.ac.ma"

var aboutText = []string{
	"Atlas Vision utilise l'intelligence artificielle pour identifier et explorer les monuments " +
		"emblématiques du Maroc, et rendre ce patrimoine accessible à tous.",
	"",
	"• Reconnaissance IA : identifiez un monument à partir d'une photo",
	"• Guide touristique IA : posez vos questions sur l'histoire et la culture",
	"• Localisation : un lien vers la carte pour planifier votre visite",
}

var contactText = []string{
	"Nous sommes à votre écoute.",
	"",
	"Email : " + ContactEmail,
	"",
	"Nous vous répondrons dans les plus brefs délais.",
}

var privacyText = []string{
	"Images : les photos envoyées sont traitées pour la reconnaissance et ne sont pas stockées " +
		"de manière permanente.",
	"Conversations : les échanges avec le guide sont temporaires et vivent le temps de la session.",
	"Journaux : l'application écrit des journaux techniques locaux dans ~/.atlas/logs.",
	"",
	"Vous pouvez demander l'accès, la rectification ou la suppression de vos données à l'adresse " +
		"indiquée dans la section Contact.",
}

// RenderOverlay draws the topmost open overlay, or "" when none is open.
// Stacking order matches ViewState.CloseTopOverlay.
func RenderOverlay(view models.ViewState, width int) string {
	switch {
	case view.PrivacyOpen:
		return overlay("Confidentialité", privacyText, width)
	case view.ContactOpen:
		return overlay("Contactez-nous", contactText, width)
	case view.AboutOpen:
		return overlay("À propos d'Atlas Vision", aboutText, width)
	}
	return ""
}

func overlay(title string, body []string, width int) string {
	content := styles.TitleStyle().Render(title) + "\n\n" +
		strings.Join(body, "\n") + "\n\n" +
		styles.HintStyle().Render("esc  fermer")
	return styles.OverlayStyle(width).Render(content)
}
