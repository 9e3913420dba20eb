package dash

import (
	"github.com/madokanomi/publimatch-cli/internal/modal"
	"github.com/madokanomi/publimatch-cli/internal/types"
)

// Messages delivered into the bubbletea loop from subscriptions and
// background commands.

type notificationsChangedMsg struct{}

type conversationsChangedMsg struct{}

type campaignsChangedMsg struct{}

type sessionChangedMsg struct {
	principal *types.Principal
}

type modalChangedMsg struct {
	state modal.State
}

type navigateMsg struct {
	conversationID string
}

type refreshDoneMsg struct {
	err error
}

type selectDoneMsg struct {
	err error
}

type sendDoneMsg struct {
	err error
}

type statusMsg struct {
	text string
}
