package models

// Focus selects which text field receives typed keys in the main view.
type Focus int

const (
	FocusPath Focus = iota
	FocusChat
)

// AppModel represents the UI state - only local UI concerns
type AppModel struct {
	View         ViewState // navigation and overlays
	Core         Snapshot  // last state pushed by core
	PathInput    string    // image path being typed
	ChatInput    string    // chat question being typed
	Focus        Focus
	Status       string // status bar text
	LoadingDots  int    // animation counter for loading dots
	Width        int
	Height       int
	ServiceReady bool
}

func (m *AppModel) Loading() bool {
	return m.Core.Phase == Requesting || m.Core.AwaitingReply
}
