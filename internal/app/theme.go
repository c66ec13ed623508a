package app

import "github.com/charmbracelet/lipgloss"

const (
	sidebarWidth                = 30
	chatBubblePaddingVertical   = 0
	chatBubblePaddingHorizontal = 1
)

var (
	headerStyle          = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	helpStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	phaseStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).Bold(true)
	projectStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	projectMetaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Faint(true)
	newProjectStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	selectedStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("236"))
	identityStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	dividerStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	sidebarStyle         = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderRight(true).BorderForeground(lipgloss.Color("238")).PaddingRight(1)
	sidebarFocusedStyle  = sidebarStyle.BorderForeground(lipgloss.Color("69"))
	userBubbleStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Background(lipgloss.Color("236")).Padding(chatBubblePaddingVertical, chatBubblePaddingHorizontal)
	agentBubbleStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(chatBubblePaddingVertical, chatBubblePaddingHorizontal)
	phaseContentStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("69")).Padding(chatBubblePaddingVertical, chatBubblePaddingHorizontal)
	editFrameStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("179")).Padding(0, 1)
	editLabelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	editLabelActiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("117")).Bold(true)
	toastInfoStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("29")).Bold(true)
	toastWarningStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("136")).Bold(true)
	toastErrorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("160")).Bold(true)
)
