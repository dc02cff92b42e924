package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/foxzi/mailpanel/internal/config"
	"github.com/foxzi/mailpanel/internal/report"
	"github.com/foxzi/mailpanel/internal/strapi"
)

// configuredDir is the value of a bare --pdf flag
const configuredDir = "auto"

var reportPDF string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Campaign reports",
}

var reportSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the campaigns of the logged-in user",
	RunE:  runReportSummary,
}

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Show every campaign with its owner and engagement",
	RunE:  runFleet,
}

func init() {
	reportSummaryCmd.Flags().StringVar(&reportPDF, "pdf", "", "Write a PDF report to this directory (bare flag uses reports.output_dir)")
	reportSummaryCmd.Flags().Lookup("pdf").NoOptDefVal = configuredDir

	reportCmd.AddCommand(reportSummaryCmd)
	rootCmd.AddCommand(reportCmd, fleetCmd)
}

// pdfDir resolves a --pdf value against the configured output directory
func pdfDir(cfg *config.Config, value string) string {
	if value == configuredDir {
		return cfg.Reports.OutputDir
	}
	return value
}

func runReportSummary(cmd *cobra.Command, args []string) error {
	application, err := openApp()
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, sess, err := application.SessionContext(context.Background())
	if err != nil {
		return err
	}

	rep, err := application.Reports.GetUserCampaigns(ctx, sess.User.ID)
	if err != nil {
		return err
	}

	fmt.Printf("Campaigns: %d\n", rep.TotalCampaigns)
	fmt.Printf("  draft: %d, scheduled: %d, sent: %d, cancelled: %d\n",
		rep.CampaignStats.Draft, rep.CampaignStats.Scheduled, rep.CampaignStats.Sent, rep.CampaignStats.Cancelled)
	fmt.Printf("Contacts:  %d\n", rep.TotalContacts)

	if len(rep.ContactGroups) > 0 {
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "GROUP\tCONTACTS")
		fmt.Fprintln(w, "-----\t--------")
		for _, g := range rep.ContactGroups {
			fmt.Fprintf(w, "%s\t%d\n", g.Name, g.ContactCount)
		}
		w.Flush()
	}

	if reportPDF != "" {
		doc, err := report.BuildUserReport(rep, sess.User)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		path, err := doc.SaveFile(pdfDir(application.Config(), reportPDF))
		if err != nil {
			return err
		}
		fmt.Printf("\nReport written: %s\n", path)
	}
	return nil
}

func runFleet(cmd *cobra.Command, args []string) error {
	application, err := openApp()
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := context.Background()
	if token := application.Config().ContentAPI.APIToken; token != "" {
		ctx = strapi.ContextWithToken(ctx, token)
	} else if ctx, _, err = application.SessionContext(ctx); err != nil {
		return err
	}

	view, err := application.Admin.LoadFleetView(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tOWNER\tOPENS\tCLICKS\tREGISTRATIONS\tREVENUE")
	fmt.Fprintln(w, "--\t----\t------\t-----\t-----\t------\t-------------\t-------")
	for _, c := range view.Campaigns {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%.2f\n",
			c.ID, c.Name, c.Status, c.Owner.Username,
			c.Metrics.Opens, c.Metrics.Clicks, c.Metrics.Registrations, c.Metrics.Revenue)
	}
	w.Flush()

	s := view.Stats
	fmt.Printf("\nCampaigns: %d, users: %d\n", s.TotalCampaigns, s.TotalUsers)
	fmt.Printf("Opens: %d, clicks: %d, registrations: %d, revenue: %.2f\n",
		s.TotalOpens, s.TotalClicks, s.TotalRegistrations, s.TotalRevenue)
	return nil
}
