package command

import (
	"os"

	"github.com/spf13/cobra"
)

const AppName = "pm"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "PubliMatch - CLI for the influencer campaign marketplace",
		Long:          "PubliMatch is a terminal client for the campaign marketplace: notifications, conversations and campaign invitations.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("state-dir", "", "state directory (default ~/.publimatch)")
	cmd.PersistentFlags().Bool("json", false, "output in JSON format")
	cmd.PersistentFlags().Bool("debug", false, "verbose logging")

	cmd.AddCommand(
		NewLoginCmd(),
		NewLogoutCmd(),
		NewWhoamiCmd(),
		NewNotificationsCmd(),
		NewConversationsCmd(),
		NewInviteCmd(),
		NewCampaignCmd(),
		NewDashCmd(),
	)

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd(Version).Execute()
}
