package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/atlas-vision/atlas/internal/app"
	"github.com/atlas-vision/atlas/internal/config"
	"github.com/atlas-vision/atlas/internal/core"
	"github.com/atlas-vision/atlas/internal/intake"
	"github.com/atlas-vision/atlas/internal/models"
	"github.com/atlas-vision/atlas/ui/components"
)

var (
	analyzeJSON bool
	askImage    string
)

// oneShot runs the orchestrator and session outside the TUI.
type oneShot struct {
	state        *core.AtlasState
	orchestrator *core.Orchestrator
	session      *core.Session
}

func newOneShot() (*oneShot, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.InitLogging(cfg)

	deps, err := app.NewDependencies(cfg.Current(), nil)
	if err != nil {
		return nil, err
	}
	state := core.NewAtlasState()
	return &oneShot{
		state:        state,
		orchestrator: core.NewOrchestrator(state, intake.New(nil), deps.Recognizer, deps.Directory, deps.Compress),
		session:      core.NewSession(state, deps.Responder),
	}, nil
}

// recognize selects and analyzes path, reporting Failed as an error.
func (o *oneShot) recognize(ctx context.Context, path string) (models.Snapshot, error) {
	if err := o.orchestrator.SelectImage(path); err != nil {
		return models.Snapshot{}, fmt.Errorf("cannot use %s: %w", path, err)
	}
	o.orchestrator.Analyze(ctx)

	snap := o.state.Snapshot()
	if snap.Phase == models.Failed {
		return snap, errors.New(snap.Error)
	}
	return snap, nil
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [image]",
	Short: "Identify the landmark in an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		o, err := newOneShot()
		if err != nil {
			return err
		}
		snap, err := o.recognize(ctx, args[0])
		if err != nil {
			return err
		}

		if analyzeJSON {
			enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(snap.Result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), components.RenderResult(snap, 0, 80))
		return nil
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the guide a question",
	Long: `Ask the guide a question. With --image the landmark in the image is
identified first and becomes the subject of the question.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		o, err := newOneShot()
		if err != nil {
			return err
		}
		if askImage != "" {
			snap, err := o.recognize(ctx, askImage)
			if err != nil {
				return err
			}
			if snap.Result.Found() {
				fmt.Fprintln(cmd.OutOrStdout(), components.RenderResult(snap, 0, 80))
			}
		}

		question := args[0]
		for _, a := range args[1:] {
			question += " " + a
		}
		if !o.session.SendTurn(ctx, question) {
			return errors.New("question is empty")
		}

		transcript := o.state.Transcript()
		fmt.Fprintln(cmd.OutOrStdout(), components.RenderMessages(transcript[len(transcript)-1:], false, 0))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the result as JSON")
	askCmd.Flags().StringVar(&askImage, "image", "", "identify this image first and ask about its landmark")
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(askCmd)
}
