package styles

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("173") // terracotta
	green  = lipgloss.Color("72")
	muted  = lipgloss.Color("245")
	red    = lipgloss.Color("167")
	sand   = lipgloss.Color("223")
)

func InputStyle(width int, focused bool) lipgloss.Style {
	border := lipgloss.Color("240")
	if focused {
		border = lipgloss.Color("62")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(max(width-4, 10))
}

func InputLabelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(muted)
}

func StatusStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Background(lipgloss.Color("235")).
		Padding(0, 1).
		Width(width)
}

func TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(accent).
		Bold(true)
}

func SubtitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(sand).
		Italic(true)
}

func HintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(muted)
}

func PanelStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("238")).
		Padding(0, 1).
		Width(max(width-2, 10))
}

func CardStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Width(max(width-4, 10))
}

func ConfidenceStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(green).Bold(true)
}

func LabelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(muted).Width(12)
}

func LinkStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)
}

func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(red).Bold(true)
}

func NoticeStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(sand)
}

func OverlayStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(accent).
		Padding(1, 2).
		Width(max(min(width-8, 72), 20))
}

func UserStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color("39")).
		Padding(0, 1).
		MarginLeft(2)
}

func AssistantStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color("214")).
		Padding(0, 1).
		MarginLeft(2)
}
