package update

import (
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atlas-vision/atlas/internal/eventbus"
	"github.com/atlas-vision/atlas/internal/models"
)

const (
	StatusReady      = "Prêt"
	StatusImageReady = "Image prête, ctrl+r pour analyser"
	StatusAnalyzing  = "Analyse en cours"
	StatusReplying   = "Le guide répond"
	StatusFound      = "Monument identifié"
	StatusNotFound   = "Aucun monument reconnu"
	StatusNoImage    = "Choisissez d'abord une image"
	StatusBusy       = "Une analyse est déjà en cours"
)

// HandleKeyMsg handles keyboard input. Navigation is applied locally; every
// recognition or chat action is forwarded to core through the event bus.
func HandleKeyMsg(appModel *models.AppModel, keyMsg tea.KeyMsg, eb *eventbus.EventBus) tea.Cmd {
	switch keyMsg.String() {
	case "ctrl+c":
		return tea.Quit
	case "ctrl+a":
		appModel.View = appModel.View.SetAbout(!appModel.View.AboutOpen)
		return nil
	case "ctrl+o":
		appModel.View = appModel.View.SetContact(!appModel.View.ContactOpen)
		return nil
	case "ctrl+p":
		appModel.View = appModel.View.SetPrivacy(!appModel.View.PrivacyOpen)
		return nil
	case "esc":
		appModel.View = appModel.View.CloseTopOverlay()
		return nil
	}

	// overlays are modal
	if appModel.View.AnyOverlayOpen() {
		return nil
	}

	if appModel.View.Screen == models.Landing {
		switch keyMsg.String() {
		case "enter":
			appModel.View = appModel.View.EnterApp()
			appModel.Focus = models.FocusPath
		case "q":
			return tea.Quit
		}
		return nil
	}

	return handleMainKey(appModel, keyMsg, eb)
}

func handleMainKey(appModel *models.AppModel, keyMsg tea.KeyMsg, eb *eventbus.EventBus) tea.Cmd {
	switch keyMsg.String() {
	case "ctrl+l":
		appModel.View = appModel.View.ShowLanding()
	case "tab":
		appModel.View = appModel.View.ToggleChat()
		if appModel.View.ChatOpen {
			appModel.Focus = models.FocusChat
		} else {
			appModel.Focus = models.FocusPath
		}
	case "ctrl+r":
		switch {
		case appModel.Core.Image == nil:
			appModel.Status = StatusNoImage
		case appModel.Core.Phase == models.Requesting:
			appModel.Status = StatusBusy
		default:
			send(appModel, eb, eventbus.AnalyzeEvent{})
		}
	case "ctrl+x":
		appModel.PathInput = ""
		send(appModel, eb, eventbus.ResetEvent{})
	case "enter":
		submit(appModel, eb)
	case "backspace":
		field := focused(appModel)
		if *field != "" {
			_, size := utf8.DecodeLastRuneInString(*field)
			*field = (*field)[:len(*field)-size]
		}
	default:
		switch keyMsg.Type {
		case tea.KeyRunes:
			*focused(appModel) += string(keyMsg.Runes)
		case tea.KeySpace:
			*focused(appModel) += " "
		}
	}
	return nil
}

func submit(appModel *models.AppModel, eb *eventbus.EventBus) {
	if appModel.Focus == models.FocusChat {
		if appModel.Core.AwaitingReply {
			return
		}
		text := strings.TrimSpace(appModel.ChatInput)
		if text == "" {
			return
		}
		if send(appModel, eb, eventbus.SendMessageEvent{Message: text}) {
			appModel.ChatInput = ""
		}
		return
	}

	path := strings.TrimSpace(appModel.PathInput)
	if path == "" {
		return
	}
	if send(appModel, eb, eventbus.SelectImageEvent{Path: path}) {
		appModel.PathInput = ""
	}
}

func send(appModel *models.AppModel, eb *eventbus.EventBus, event eventbus.UIEvent) bool {
	if err := eb.SendToCore(event); err != nil {
		appModel.Status = "Erreur interne: " + err.Error()
		return false
	}
	return true
}

func focused(appModel *models.AppModel) *string {
	if appModel.Focus == models.FocusChat {
		return &appModel.ChatInput
	}
	return &appModel.PathInput
}

// CoreEventMsg wraps core events for Bubble Tea
type CoreEventMsg struct {
	Event eventbus.CoreEvent
}

// HandleCoreEvent processes events from the core
func HandleCoreEvent(appModel *models.AppModel, coreEventMsg CoreEventMsg) tea.Cmd {
	switch event := coreEventMsg.Event.(type) {
	case eventbus.StateUpdateEvent:
		appModel.Core = event.Snapshot
		appModel.Status = StatusFor(event.Snapshot)
	}
	return nil
}

// StatusFor derives the status bar text from a core snapshot.
func StatusFor(s models.Snapshot) string {
	switch {
	case s.Phase == models.Requesting:
		return StatusAnalyzing
	case s.AwaitingReply:
		return StatusReplying
	case s.Phase == models.Failed:
		return s.Error
	case s.Phase == models.ResultReady && s.Result.Found():
		return StatusFound
	case s.Phase == models.ResultReady:
		return StatusNotFound
	case s.Image != nil:
		return StatusImageReady
	}
	return StatusReady
}

type TickMsg time.Time

func TickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func HandleWindowSizeMsg(appModel *models.AppModel, sizeMsg tea.WindowSizeMsg) {
	appModel.Width = sizeMsg.Width
	appModel.Height = sizeMsg.Height
}

func HandleTickMsg(appModel *models.AppModel) tea.Cmd {
	if appModel.Loading() {
		appModel.LoadingDots = (appModel.LoadingDots + 1) % 4
	}
	return TickCmd()
}
