package app

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atlas-vision/atlas/internal/client"
	"github.com/atlas-vision/atlas/internal/config"
	"github.com/atlas-vision/atlas/internal/core"
	"github.com/atlas-vision/atlas/internal/directory"
	"github.com/atlas-vision/atlas/internal/dispatcher"
	"github.com/atlas-vision/atlas/internal/eventbus"
	"github.com/atlas-vision/atlas/internal/intake"
	"github.com/atlas-vision/atlas/internal/log"
	"github.com/atlas-vision/atlas/internal/models"
)

const (
	thumbnailWidth  = 32
	thumbnailHeight = 20
)

// Application manages the complete application lifecycle
type Application struct {
	config     *config.Config
	eventBus   *eventbus.EventBus
	dispatcher *dispatcher.EventDispatcher
	service    *core.AtlasService
	model      *AppModel
}

func NewApplication(cfg *config.Config) (*Application, error) {
	InitLogging(cfg)

	previews := intake.NewPreviewTable(thumbnailWidth, thumbnailHeight)
	deps, err := NewDependencies(cfg.Current(), previews)
	if err != nil {
		return nil, err
	}

	eb := eventbus.NewEventBus()
	eb.SetErrorCallback(func(e eventbus.EventBusError) {
		log.Warn(log.Fields{"operation": e.Operation, "error": e.Err.Error()}, "[EventBus] delivery failed")
	})
	disp := dispatcher.NewEventDispatcher(eb)
	service := core.NewAtlasService(deps, eb)

	model := &AppModel{
		appModel: models.AppModel{
			Status:       "Prêt",
			ServiceReady: service.IsReady(),
		},
		dispatcher: disp,
		previews:   previews,
	}

	log.Info(log.Fields{"profile": cfg.ActiveProfile, "api": cfg.Current().APIBaseURL}, "[Application] created")
	return &Application{
		config:     cfg,
		eventBus:   eb,
		dispatcher: disp,
		service:    service,
		model:      model,
	}, nil
}

// InitLogging routes the process logger to rotating files next to the config.
func InitLogging(cfg *config.Config) {
	log.Init(log.Options{
		Dir:   filepath.Join(cfg.Dir(), "logs"),
		Level: os.Getenv("ATLAS_LOG_LEVEL"),
	})
}

// NewDependencies builds the recognition and chat clients for a profile.
func NewDependencies(p config.Profile, previews *intake.PreviewTable) (core.Dependencies, error) {
	atlas := client.NewAtlasClient(client.Options{
		BaseURL:           p.APIBaseURL,
		Timeout:           p.Timeout(),
		RequestsPerSecond: p.RequestsPerSecond,
		Burst:             p.Burst,
	})

	var responder client.Responder = atlas
	if p.ChatProvider == config.ProviderOpenAI {
		responder = client.FallbackResponder{
			client.NewOpenAIResponder(p.OpenAIAPIKey, p.OpenAIBaseURL, p.Model()),
			atlas,
		}
	}

	dir := directory.Default()
	if p.DirectoryFile != "" {
		loaded, err := directory.Load(p.DirectoryFile)
		if err != nil {
			return core.Dependencies{}, fmt.Errorf("load directory: %w", err)
		}
		dir = loaded
	}

	return core.Dependencies{
		Recognizer: atlas,
		Responder:  responder,
		Directory:  dir,
		Previews:   previews,
	}, nil
}

func (app *Application) Start() error {
	app.service.Start()

	p := tea.NewProgram(app.model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (app *Application) Stop() {
	app.service.Stop()
	app.dispatcher.Stop()
	app.eventBus.Close()
	log.Info(nil, "[Application] stopped")
}
