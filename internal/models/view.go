package models

type Screen int

const (
	Landing Screen = iota
	MainApp
)

// ViewState is the navigation state. It is a value: every transition returns
// a new ViewState and leaves the receiver untouched.
type ViewState struct {
	Screen      Screen
	AboutOpen   bool
	ContactOpen bool
	PrivacyOpen bool
	ChatOpen    bool
}

func (v ViewState) EnterApp() ViewState {
	v.Screen = MainApp
	return v
}

func (v ViewState) ShowLanding() ViewState {
	v.Screen = Landing
	return v
}

func (v ViewState) SetAbout(open bool) ViewState {
	v.AboutOpen = open
	return v
}

func (v ViewState) SetContact(open bool) ViewState {
	v.ContactOpen = open
	return v
}

func (v ViewState) SetPrivacy(open bool) ViewState {
	v.PrivacyOpen = open
	return v
}

func (v ViewState) ToggleChat() ViewState {
	v.ChatOpen = !v.ChatOpen
	return v
}

func (v ViewState) AnyOverlayOpen() bool {
	return v.AboutOpen || v.ContactOpen || v.PrivacyOpen
}

// CloseTopOverlay closes one overlay, privacy first, then contact, then about.
func (v ViewState) CloseTopOverlay() ViewState {
	switch {
	case v.PrivacyOpen:
		v.PrivacyOpen = false
	case v.ContactOpen:
		v.ContactOpen = false
	case v.AboutOpen:
		v.AboutOpen = false
	}
	return v
}
