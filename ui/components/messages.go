package components

import (
	"strings"

	"github.com/atlas-vision/atlas/internal/models"
	"github.com/atlas-vision/atlas/internal/utils"
	"github.com/atlas-vision/atlas/ui/styles"
)

func RenderMessages(messages []models.Message, awaitingReply bool, loadingDots int) string {
	var b strings.Builder

	userStyle := styles.UserStyle()
	assistantStyle := styles.AssistantStyle()

	if len(messages) == 0 {
		b.WriteString(styles.HintStyle().Render("Posez une question sur le monument identifié, ou sur le Maroc.") + "\n\n")
	}
	for _, msg := range messages {
		switch msg.Type {
		case models.User:
			b.WriteString(userStyle.Render("Vous: "+msg.Content) + "\n\n")
		case models.Assistant:
			b.WriteString(assistantStyle.Render("Guide: "+utils.RenderMarkdown(msg.Content)) + "\n\n")
		}
	}
	if awaitingReply {
		b.WriteString(assistantStyle.Render("Guide: "+strings.Repeat(".", loadingDots+1)) + "\n\n")
	}

	return b.String()
}
