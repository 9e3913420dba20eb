package dash

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/madokanomi/publimatch-cli/internal/modal"
	"github.com/madokanomi/publimatch-cli/internal/types"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	panelFocusStyle = panelStyle.
			BorderForeground(lipgloss.Color("111"))
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("236")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	senderStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("157"))
	selfStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("216"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("157"))
	buttonStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 2)
	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("111")).
			Padding(1, 3)
)

func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	sidebar := lipgloss.JoinVertical(lipgloss.Left,
		m.renderNotifications(),
		m.renderConversations(),
	)
	main := lipgloss.JoinVertical(lipgloss.Left,
		m.renderMessagePanel(),
		m.renderInput(),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
	output := lipgloss.JoinVertical(lipgloss.Left, body, m.statusLine())

	if m.modalState.Phase != modal.PhaseIdle {
		overlay := m.renderModal()
		output = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, overlay)
	}
	return m.zoneManager.Scan(output)
}

func (m *Model) renderNotifications() string {
	items := m.notifications.Items()
	height := m.sidebarPanelHeight()

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Notifications (%d)", len(items))))
	b.WriteString("\n")
	if len(items) == 0 {
		b.WriteString(dimStyle.Render("nothing new"))
	}
	for i, item := range items {
		if i >= height {
			b.WriteString(dimStyle.Render(fmt.Sprintf("… %d more", len(items)-height)))
			break
		}
		line := item.Title
		if item.Subtitle != "" {
			line += " " + dimStyle.Render(item.Subtitle)
		}
		line += " " + dimStyle.Render(relTime(item.CreatedAt))
		if m.focus == focusNotifications && i == m.notifCursor {
			line = selectedStyle.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(m.zoneManager.Mark("notif-"+item.ID, line))
		b.WriteString("\n")
	}

	style := panelStyle
	if m.focus == focusNotifications {
		style = panelFocusStyle
	}
	return style.Width(m.sidebarWidth() - 2).Render(strings.TrimRight(b.String(), "\n"))
}

func (m *Model) renderConversations() string {
	summaries := m.conversations.Summaries()
	height := m.sidebarPanelHeight()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Conversations"))
	b.WriteString("\n")
	if len(summaries) == 0 {
		b.WriteString(dimStyle.Render("no conversations yet"))
	}
	for i, summary := range summaries {
		if i >= height {
			b.WriteString(dimStyle.Render(fmt.Sprintf("… %d more", len(summaries)-height)))
			break
		}
		other := summary.Other(m.principal.ID)
		line := other.DisplayName
		if preview := summary.LastMessage.Text; preview != "" {
			line += " " + dimStyle.Render(truncate(preview, 24))
		}
		switch {
		case summary.ID == m.conversations.SelectedID():
			line = selectedStyle.Render("● " + line)
		case m.focus == focusConversations && i == m.convCursor:
			line = selectedStyle.Render("▸ " + line)
		default:
			line = "  " + line
		}
		b.WriteString(m.zoneManager.Mark("conv-"+summary.ID, line))
		b.WriteString("\n")
	}

	style := panelStyle
	if m.focus == focusConversations {
		style = panelFocusStyle
	}
	return style.Width(m.sidebarWidth() - 2).Render(strings.TrimRight(b.String(), "\n"))
}

func (m *Model) renderMessagePanel() string {
	header := dimStyle.Render("select a conversation")
	if summary, ok := m.conversations.Selected(); ok {
		header = titleStyle.Render(summary.Other(m.principal.ID).DisplayName)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View())
}

// renderMessages rebuilds the viewport content from the selected
// conversation. Called whenever the conversation feed changes.
func (m *Model) renderMessages() {
	messages := m.conversations.Messages()
	lines := make([]string, 0, len(messages)*2)
	for _, message := range messages {
		sender := m.senderLabel(message)
		byline := sender + " " + dimStyle.Render(relTime(message.CreatedAt))
		lines = append(lines, m.zoneManager.Mark("msg-"+message.ID, byline))
		lines = append(lines, wrap(message.Text, m.viewport.Width), "")
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(strings.Join(lines, "\n"))
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) senderLabel(message types.Message) string {
	if m.principal != nil && message.SenderID == m.principal.ID {
		return selfStyle.Render("you")
	}
	if summary, ok := m.conversations.Selected(); ok {
		if other := summary.Other(m.principal.ID); other.ID == message.SenderID {
			return senderStyle.Render(other.DisplayName)
		}
	}
	return senderStyle.Render(message.SenderID)
}

func (m *Model) renderInput() string {
	return m.input.View()
}

func (m *Model) statusLine() string {
	left := "tab: focus · enter: open/send · x: dismiss · r: refresh · q: quit"
	if m.status != "" {
		left = m.status
	}
	return statusStyle.Render(truncate(left, m.width))
}

func (m *Model) renderModal() string {
	s := m.modalState
	var body string
	var buttons []string

	switch s.Phase {
	case modal.PhaseLoading:
		body = dimStyle.Render("Loading campaign...")
	case modal.PhaseInvitation:
		body = lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(s.Campaign.Title),
			wrap(s.Campaign.Description, 48),
			"",
			dimStyle.Render(fmt.Sprintf("budget: %s", humanize.CommafWithDigits(s.Campaign.Budget, 0))),
		)
		buttons = []string{
			m.zoneManager.Mark("modal-accept", buttonStyle.Render("[a]ccept")),
			m.zoneManager.Mark("modal-decline", buttonStyle.Render("[d]ecline")),
		}
	case modal.PhaseFinalize:
		// The finalize flow opens straight from the notification, so the
		// notification title is the only name we have for the campaign.
		body = lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(s.Notification.Title),
			"Finalize this campaign?",
		)
		buttons = []string{
			m.zoneManager.Mark("modal-finalize", buttonStyle.Render("[y]es, finalize")),
			m.zoneManager.Mark("modal-reject", buttonStyle.Render("[n]o, reject")),
		}
	case modal.PhaseConfirmSend:
		body = lipgloss.JoinVertical(lipgloss.Left,
			successStyle.Render("Invitation accepted."),
			"Send an intro message to the campaign creator?",
		)
		buttons = []string{
			m.zoneManager.Mark("modal-intro-yes", buttonStyle.Render("[y]es")),
			m.zoneManager.Mark("modal-intro-no", buttonStyle.Render("[n]ot now")),
		}
	case modal.PhaseSuccess:
		body = successStyle.Render(s.Message)
	case modal.PhaseError:
		body = errorStyle.Render(s.Message)
	}

	content := body
	if len(buttons) > 0 {
		content = lipgloss.JoinVertical(lipgloss.Left,
			body, "",
			lipgloss.JoinHorizontal(lipgloss.Top, buttons...),
		)
	}
	content = lipgloss.JoinVertical(lipgloss.Left,
		content,
		dimStyle.Render("esc to close"),
	)
	return m.zoneManager.Mark("modal", modalStyle.Render(content))
}

func (m *Model) sidebarPanelHeight() int {
	h := (m.height - 8) / 2
	if h < 3 {
		h = 3
	}
	return h
}

func relTime(ms int64) string {
	if ms == 0 {
		return ""
	}
	return humanize.Time(time.UnixMilli(ms))
}

func truncate(s string, max int) string {
	if max <= 1 || runewidth.StringWidth(s) <= max {
		return s
	}
	return runewidth.Truncate(s, max, "…")
}

func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	var b strings.Builder
	lineLen := 0
	for _, word := range strings.Fields(s) {
		if lineLen > 0 && lineLen+len(word)+1 > width {
			b.WriteString("\n")
			lineLen = 0
		} else if lineLen > 0 {
			b.WriteString(" ")
			lineLen++
		}
		b.WriteString(word)
		lineLen += len(word)
	}
	return b.String()
}
