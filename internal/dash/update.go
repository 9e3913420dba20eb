package dash

import (
	"context"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/madokanomi/publimatch-cli/internal/modal"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.MouseMsg:
		return m.handleMouseMsg(msg)
	case notificationsChangedMsg:
		m.clampCursors()
		return m, nil
	case conversationsChangedMsg:
		m.clampCursors()
		m.renderMessages()
		return m, nil
	case campaignsChangedMsg:
		return m, m.refreshCmd()
	case sessionChangedMsg:
		if msg.principal == nil {
			return m, tea.Quit
		}
		m.principal = msg.principal
		return m, m.refreshCmd()
	case modalChangedMsg:
		m.modalState = msg.state
		return m, nil
	case navigateMsg:
		return m, m.selectCmd(msg.conversationID)
	case refreshDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.status = ""
		}
		m.renderMessages()
		return m, nil
	case selectDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.focus = focusInput
			m.input.Focus()
		}
		m.renderMessages()
		m.viewport.GotoBottom()
		return m, nil
	case sendDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		m.renderMessages()
		m.viewport.GotoBottom()
		return m, nil
	case statusMsg:
		m.status = msg.text
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.modalState.Phase != modal.PhaseIdle {
		return m.handleModalKey(msg)
	}

	switch msg.String() {
	case "tab":
		m.cycleFocus()
		return m, nil
	}

	if m.focus == focusInput {
		return m.handleInputKey(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		m.status = "refreshing..."
		return m, m.refreshCmd()
	case "j", "down":
		m.moveCursor(1)
		return m, nil
	case "k", "up":
		m.moveCursor(-1)
		return m, nil
	case "enter":
		return m.activateCursor()
	case "x":
		if m.focus == focusNotifications {
			return m, m.acknowledgeCmd()
		}
	case "y":
		if m.focus == focusConversations {
			return m, m.yankLastMessageCmd()
		}
	}
	return m, nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.focus = focusConversations
		return m, nil
	case "enter":
		text := m.input.Value()
		if text == "" {
			return m, nil
		}
		m.input.Reset()
		return m, m.sendCmd(text)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "esc" {
		return m, m.presenterCmd(m.presenter.Close)
	}
	switch m.modalState.Phase {
	case modal.PhaseInvitation:
		switch key {
		case "a", "enter":
			return m, m.presenterCmd(m.presenter.Accept)
		case "d":
			return m, m.presenterCmd(m.presenter.Decline)
		}
	case modal.PhaseFinalize:
		switch key {
		case "y", "enter":
			return m, m.presenterCmd(m.presenter.ConfirmFinalize)
		case "n":
			return m, m.presenterCmd(m.presenter.RejectFinalize)
		}
	case modal.PhaseConfirmSend:
		switch key {
		case "y", "enter":
			return m, m.presenterCmd(m.presenter.ConfirmIntro)
		case "n":
			return m, m.presenterCmd(m.presenter.DeclineIntro)
		}
	}
	return m, nil
}

func (m *Model) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.modalState.Phase != modal.PhaseIdle {
		// Hovering the modal parks the auto-dismiss timer, matching the
		// feed panels where pointer presence means the user is reading.
		hover := m.zoneManager.Get("modal").InBounds(msg)
		hold := m.presenterCmd(func(ctx context.Context) { m.presenter.SetHold(ctx, hover) })
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if cmd := m.modalClick(msg); cmd != nil {
				return m, cmd
			}
		}
		return m, hold
	}

	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		for i, item := range m.notifications.Items() {
			if m.zoneManager.Get("notif-" + item.ID).InBounds(msg) {
				m.focus = focusNotifications
				m.notifCursor = i
				return m.activateCursor()
			}
		}
		for i, summary := range m.conversations.Summaries() {
			if m.zoneManager.Get("conv-" + summary.ID).InBounds(msg) {
				m.focus = focusConversations
				m.convCursor = i
				return m.activateCursor()
			}
		}
		for _, message := range m.conversations.Messages() {
			if m.zoneManager.Get("msg-" + message.ID).InBounds(msg) {
				return m, m.yankTextCmd(message.Text)
			}
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) modalClick(msg tea.MouseMsg) tea.Cmd {
	switch {
	case m.zoneManager.Get("modal-accept").InBounds(msg):
		return m.presenterCmd(m.presenter.Accept)
	case m.zoneManager.Get("modal-decline").InBounds(msg):
		return m.presenterCmd(m.presenter.Decline)
	case m.zoneManager.Get("modal-finalize").InBounds(msg):
		return m.presenterCmd(m.presenter.ConfirmFinalize)
	case m.zoneManager.Get("modal-reject").InBounds(msg):
		return m.presenterCmd(m.presenter.RejectFinalize)
	case m.zoneManager.Get("modal-intro-yes").InBounds(msg):
		return m.presenterCmd(m.presenter.ConfirmIntro)
	case m.zoneManager.Get("modal-intro-no").InBounds(msg):
		return m.presenterCmd(m.presenter.DeclineIntro)
	case m.zoneManager.Get("modal-close").InBounds(msg):
		return m.presenterCmd(m.presenter.Close)
	}
	return nil
}

func (m *Model) cycleFocus() {
	switch m.focus {
	case focusNotifications:
		m.focus = focusConversations
	case focusConversations:
		m.focus = focusInput
		m.input.Focus()
	case focusInput:
		m.input.Blur()
		m.focus = focusNotifications
	}
}

func (m *Model) moveCursor(delta int) {
	switch m.focus {
	case focusNotifications:
		m.notifCursor += delta
	case focusConversations:
		m.convCursor += delta
	}
	m.clampCursors()
}

func (m *Model) activateCursor() (tea.Model, tea.Cmd) {
	switch m.focus {
	case focusNotifications:
		items := m.notifications.Items()
		if m.notifCursor >= len(items) {
			return m, nil
		}
		item := items[m.notifCursor]
		return m, func() tea.Msg {
			m.presenter.Open(m.ctx, item)
			return nil
		}
	case focusConversations:
		summaries := m.conversations.Summaries()
		if m.convCursor >= len(summaries) {
			return m, nil
		}
		return m, m.selectCmd(summaries[m.convCursor].ID)
	}
	return m, nil
}

func (m *Model) selectCmd(conversationID string) tea.Cmd {
	return func() tea.Msg {
		return selectDoneMsg{err: m.conversations.Select(m.ctx, conversationID)}
	}
}

func (m *Model) sendCmd(text string) tea.Cmd {
	receiverID := ""
	if summary, ok := m.conversations.Selected(); ok && m.principal != nil {
		receiverID = summary.Other(m.principal.ID).ID
	}
	return func() tea.Msg {
		return sendDoneMsg{err: m.conversations.Send(m.ctx, text, receiverID)}
	}
}

func (m *Model) acknowledgeCmd() tea.Cmd {
	items := m.notifications.Items()
	if m.notifCursor >= len(items) {
		return nil
	}
	id := items[m.notifCursor].ID
	return func() tea.Msg {
		if err := m.notifications.Acknowledge(m.ctx, id); err != nil {
			m.logger.Warn("acknowledge notification", zap.String("id", id), zap.Error(err))
			return statusMsg{text: "dismissed locally, server delete will retry"}
		}
		return nil
	}
}

func (m *Model) yankLastMessageCmd() tea.Cmd {
	summaries := m.conversations.Summaries()
	if m.convCursor >= len(summaries) {
		return nil
	}
	return m.yankTextCmd(summaries[m.convCursor].LastMessage.Text)
}

func (m *Model) yankTextCmd(text string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return statusMsg{text: "clipboard unavailable"}
		}
		return statusMsg{text: "copied"}
	}
}

// presenterCmd wraps a synchronous presenter call so it runs off the
// render loop. State changes arrive back as modalChangedMsg.
func (m *Model) presenterCmd(call func(context.Context)) tea.Cmd {
	return func() tea.Msg {
		call(m.ctx)
		return nil
	}
}
