package app

import (
	"image"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/atlas-vision/atlas/internal/dispatcher"
	"github.com/atlas-vision/atlas/internal/intake"
	"github.com/atlas-vision/atlas/internal/models"
	"github.com/atlas-vision/atlas/internal/update"
	"github.com/atlas-vision/atlas/ui/components"
	"github.com/atlas-vision/atlas/ui/styles"
)

const serviceUnavailable = "Service de reconnaissance indisponible."

const mainHints = "enter  valider   ctrl+r  analyser   ctrl+x  réinitialiser   tab  guide   ctrl+l  accueil   ctrl+c  quitter"

type AppModel struct {
	appModel   models.AppModel
	dispatcher *dispatcher.EventDispatcher
	previews   *intake.PreviewTable
}

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(
		update.TickCmd(),
		m.dispatcher.ListenForCoreEvents(),
	)
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle core events and continue listening
	if coreEvent, ok := msg.(update.CoreEventMsg); ok {
		cmd := update.HandleCoreEvent(&m.appModel, coreEvent)
		return m, tea.Batch(cmd, m.dispatcher.ListenForCoreEvents())
	}

	cmd := update.HandleUpdate(&m.appModel, msg, m.dispatcher.GetEventBus())
	return m, cmd
}

func (m *AppModel) View() string {
	am := &m.appModel
	width := am.Width
	if width <= 0 {
		width = 80
	}

	var screen string
	if am.View.Screen == models.Landing {
		screen = components.RenderLanding(width)
	} else {
		screen = m.mainView(width)
	}

	if overlay := components.RenderOverlay(am.View, width); overlay != "" {
		if am.Height > 0 {
			return lipgloss.Place(width, am.Height, lipgloss.Center, lipgloss.Center, overlay)
		}
		return overlay
	}
	return screen
}

func (m *AppModel) mainView(width int) string {
	am := &m.appModel
	var b strings.Builder

	b.WriteString(styles.TitleStyle().Render("Atlas Vision") + "  " +
		styles.SubtitleStyle().Render("reconnaissance de monuments marocains") + "\n\n")

	if !am.ServiceReady {
		b.WriteString(styles.ErrorStyle().Render(serviceUnavailable) + "\n\n")
	}

	b.WriteString(components.RenderImage(am.Core.Image, m.thumbnail(), width) + "\n")
	b.WriteString(components.RenderInput("Chemin de l'image", am.PathInput, am.Focus == models.FocusPath, width) + "\n")

	if result := components.RenderResult(am.Core, am.LoadingDots, width); result != "" {
		b.WriteString(result + "\n")
	}

	if am.View.ChatOpen {
		b.WriteString("\n" + styles.TitleStyle().Render("Guide") + "\n")
		b.WriteString(components.RenderMessages(am.Core.Transcript, am.Core.AwaitingReply, am.LoadingDots))
		label := "Votre question"
		if am.Core.AwaitingReply {
			label = "Votre question (en attente de réponse)"
		}
		b.WriteString(components.RenderInput(label, am.ChatInput, am.Focus == models.FocusChat, width) + "\n")
	}

	b.WriteString(styles.HintStyle().Render(mainHints) + "\n")
	b.WriteString(components.RenderStatus(am.Status, am.Loading(), am.LoadingDots, width))
	return b.String()
}

func (m *AppModel) thumbnail() image.Image {
	img := m.appModel.Core.Image
	if img == nil || m.previews == nil {
		return nil
	}
	thumb, ok := m.previews.Lookup(intake.PreviewHandle(img.Preview))
	if !ok {
		return nil
	}
	return thumb
}
