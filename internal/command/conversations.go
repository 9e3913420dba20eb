package command

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/madokanomi/publimatch-cli/internal/cache"
	"github.com/madokanomi/publimatch-cli/internal/types"
)

// NewConversationsCmd creates the conversations command group.
func NewConversationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"convs"},
		Short:   "List conversations and send messages",
		RunE:    runConversationsList,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List conversations, most recently active first",
			Args:  cobra.NoArgs,
			RunE:  runConversationsList,
		},
		&cobra.Command{
			Use:   "show <conversation-id>",
			Short: "Print a conversation's messages",
			Args:  cobra.ExactArgs(1),
			RunE:  runConversationsShow,
		},
		&cobra.Command{
			Use:   "send <conversation-id> <text...>",
			Short: "Send a message",
			Args:  cobra.MinimumNArgs(2),
			RunE:  runConversationsSend,
		},
	)
	return cmd
}

func runConversationsList(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return writeCommandError(cmd, err)
	}
	defer app.Close()

	principal := app.Session.Principal()
	if principal == nil {
		return writeCommandError(cmd, errNotLoggedIn)
	}

	fromCache := false
	summaries, err := app.API.Conversations(cmd.Context())
	if err != nil {
		cached, cacheErr := loadCachedConversations(app.Config.StateDir, principal.ID)
		if cacheErr != nil || cached == nil {
			return writeCommandError(cmd, err)
		}
		app.Logger.Warn("serving cached conversations", zap.Error(err))
		summaries = cached
		fromCache = true
	} else {
		saveCachedConversations(app, principal.ID, summaries)
	}

	if app.JSONMode {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(summaries)
	}

	out := cmd.OutOrStdout()
	if fromCache {
		fmt.Fprintln(out, "(offline, showing cached snapshot)")
	}
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No conversations")
		return nil
	}
	for _, summary := range summaries {
		other := summary.Other(principal.ID)
		line := fmt.Sprintf("%-12s %s", summary.ID, other.DisplayName)
		if summary.LastMessage.Text != "" {
			age := humanize.Time(time.UnixMilli(summary.LastMessage.CreatedAt))
			line += fmt.Sprintf(" · %s (%s)", summary.LastMessage.Text, age)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func runConversationsShow(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return writeCommandError(cmd, err)
	}
	defer app.Close()

	principal := app.Session.Principal()
	if principal == nil {
		return writeCommandError(cmd, errNotLoggedIn)
	}

	messages, err := app.API.Messages(cmd.Context(), args[0])
	if err != nil {
		return writeCommandError(cmd, err)
	}
	if app.JSONMode {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(messages)
	}
	out := cmd.OutOrStdout()
	for _, message := range messages {
		sender := message.SenderID
		if sender == principal.ID {
			sender = "you"
		}
		ts := time.UnixMilli(message.CreatedAt).Format("2006-01-02 15:04")
		fmt.Fprintf(out, "[%s] %s: %s\n", ts, sender, message.Text)
	}
	return nil
}

func runConversationsSend(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return writeCommandError(cmd, err)
	}
	defer app.Close()

	principal := app.Session.Principal()
	if principal == nil {
		return writeCommandError(cmd, errNotLoggedIn)
	}

	conversationID := args[0]
	text := strings.Join(args[1:], " ")

	receiverID, err := resolveReceiver(cmd, app, principal, conversationID)
	if err != nil {
		return writeCommandError(cmd, err)
	}

	message, err := app.API.SendMessage(cmd.Context(), conversationID, receiverID, text)
	if err != nil {
		return writeCommandError(cmd, err)
	}
	if app.JSONMode {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(message)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sent %s\n", message.ID)
	return nil
}

// resolveReceiver finds the other participant of a conversation from the
// summary list.
func resolveReceiver(cmd *cobra.Command, app *App, principal *types.Principal, conversationID string) (string, error) {
	summaries, err := app.API.Conversations(cmd.Context())
	if err != nil {
		return "", err
	}
	for _, summary := range summaries {
		if summary.ID == conversationID {
			return summary.Other(principal.ID).ID, nil
		}
	}
	return "", fmt.Errorf("conversation %q not found", conversationID)
}

func loadCachedConversations(stateDir, principalID string) ([]types.ConversationSummary, error) {
	store, err := cache.Open(stateDir)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.LoadConversations(principalID)
}

func saveCachedConversations(app *App, principalID string, summaries []types.ConversationSummary) {
	store, err := cache.Open(app.Config.StateDir)
	if err != nil {
		app.Logger.Debug("open cache", zap.Error(err))
		return
	}
	defer store.Close()
	if err := store.SaveConversations(principalID, summaries); err != nil {
		app.Logger.Debug("cache conversations", zap.Error(err))
	}
}
