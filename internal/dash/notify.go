package dash

import (
	"github.com/gen2brain/beeep"
	"go.uber.org/zap"

	"github.com/madokanomi/publimatch-cli/internal/realtime"
)

// maybeNotify raises a desktop notification for pushed events. Messages
// from the principal's own sends are skipped; so is the message event for
// the conversation currently on screen.
func (m *Model) maybeNotify(ev realtime.Event) {
	switch ev.Kind {
	case realtime.EventNewNotification:
		if ev.Notification == nil {
			return
		}
		if err := beeep.Notify("PubliMatch", ev.Notification.Title, ""); err != nil {
			m.logger.Debug("desktop notify", zap.Error(err))
		}
	case realtime.EventNewMessage:
		if ev.Message == nil {
			return
		}
		// Runs on the socket goroutine; read the principal from the
		// store, not the model.
		if p := m.session.Principal(); p != nil && ev.Message.SenderID == p.ID {
			return
		}
		if ev.Message.ConversationID == m.conversations.SelectedID() {
			return
		}
		if err := beeep.Notify("PubliMatch", ev.Message.Text, ""); err != nil {
			m.logger.Debug("desktop notify", zap.Error(err))
		}
	}
}
