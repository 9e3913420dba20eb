package dash

import (
	"strings"
	"testing"

	zone "github.com/lrstanley/bubblezone"

	"github.com/madokanomi/publimatch-cli/internal/modal"
	"github.com/madokanomi/publimatch-cli/internal/types"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short stays", "hello", 10, "hello"},
		{"exact stays", "hello", 5, "hello"},
		{"long gets ellipsis", "hello world", 8, "hello w…"},
		{"multibyte runes stay whole", "héllo wörld", 8, "héllo w…"},
		{"wide runes counted by width", "キャンペーン", 8, "キャン…"},
		{"zero width untouched", "hello", 0, "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits on one line", "a b c", 10, "a b c"},
		{"breaks at width", "aaaa bbbb cccc", 9, "aaaa bbbb\ncccc"},
		{"zero width untouched", "a b", 0, "a b"},
		{"collapses whitespace", "a   b", 10, "a b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wrap(tt.in, tt.width); got != tt.want {
				t.Errorf("wrap(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestFinalizeModalShowsNotificationTitle(t *testing.T) {
	m := &Model{
		zoneManager: zone.New(),
		modalState: modal.State{
			Phase: modal.PhaseFinalize,
			Notification: types.NotificationItem{
				ID:    "n1",
				Kind:  types.NotificationFinalizeRequest,
				Title: "Summer Launch",
			},
		},
	}
	got := m.renderModal()
	if !strings.Contains(got, "Summer Launch") {
		t.Errorf("finalize modal does not show the notification title:\n%s", got)
	}
	if !strings.Contains(got, "Finalize this campaign?") {
		t.Errorf("finalize modal is missing the prompt:\n%s", got)
	}
}
