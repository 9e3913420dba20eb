package command

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewCampaignCmd creates the campaign command group.
func NewCampaignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "campaign",
		Aliases: []string{"campaigns"},
		Short:   "Inspect and finalize campaigns",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show campaign details",
			Args:  cobra.ExactArgs(1),
			RunE:  runCampaignShow,
		},
		&cobra.Command{
			Use:   "finalize <id>",
			Short: "Finalize a campaign",
			Args:  cobra.ExactArgs(1),
			RunE:  runCampaignFinalize,
		},
		&cobra.Command{
			Use:   "reject <id>",
			Short: "Reject a campaign's finalize request",
			Args:  cobra.ExactArgs(1),
			RunE:  runCampaignReject,
		},
	)
	return cmd
}

func runCampaignShow(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return writeCommandError(cmd, err)
	}
	defer app.Close()

	if app.Session.Principal() == nil {
		return writeCommandError(cmd, errNotLoggedIn)
	}

	campaign, err := app.API.Campaign(cmd.Context(), args[0])
	if err != nil {
		return writeCommandError(cmd, err)
	}
	if app.JSONMode {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(campaign)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", campaign.Title, campaign.Status)
	if campaign.Description != "" {
		fmt.Fprintln(out, campaign.Description)
	}
	if campaign.Budget > 0 {
		fmt.Fprintf(out, "Budget: %s\n", humanize.CommafWithDigits(campaign.Budget, 2))
	}
	return nil
}

func runCampaignFinalize(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return writeCommandError(cmd, err)
	}
	defer app.Close()

	if app.Session.Principal() == nil {
		return writeCommandError(cmd, errNotLoggedIn)
	}
	if err := app.API.FinalizeCampaign(cmd.Context(), args[0]); err != nil {
		return writeCommandError(cmd, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Campaign finalized.")
	return nil
}

func runCampaignReject(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return writeCommandError(cmd, err)
	}
	defer app.Close()

	if app.Session.Principal() == nil {
		return writeCommandError(cmd, errNotLoggedIn)
	}
	if err := app.API.RejectFinalize(cmd.Context(), args[0]); err != nil {
		return writeCommandError(cmd, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Finalize request rejected.")
	return nil
}
