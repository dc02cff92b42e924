package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/foxzi/mailpanel/internal/abtest"
	"github.com/foxzi/mailpanel/internal/models"
	"github.com/foxzi/mailpanel/internal/report"
)

var (
	simSentA  int
	simSentB  int
	abtestReq abtest.Request
	abtestPDF string
)

var abtestCmd = &cobra.Command{
	Use:   "abtest",
	Short: "A/B test commands",
}

var abtestSimulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate results for two audience sizes without saving",
	RunE:  runABTestSimulate,
}

var abtestCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an A/B test from two contact groups",
	RunE:  runABTestCreate,
}

var abtestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved A/B tests",
	RunE:  runABTestList,
}

var abtestShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show A/B test results",
	Args:  cobra.ExactArgs(1),
	RunE:  runABTestShow,
}

var abtestDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an A/B test",
	Args:  cobra.ExactArgs(1),
	RunE:  runABTestDelete,
}

func init() {
	abtestSimulateCmd.Flags().IntVar(&simSentA, "sent-a", 1000, "Audience size of variant A")
	abtestSimulateCmd.Flags().IntVar(&simSentB, "sent-b", 1000, "Audience size of variant B")

	abtestCreateCmd.Flags().StringVar(&abtestReq.Name, "name", "", "Test name")
	abtestCreateCmd.Flags().StringVar(&abtestReq.GroupA, "group-a", "", "Contact group of variant A")
	abtestCreateCmd.Flags().StringVar(&abtestReq.GroupB, "group-b", "", "Contact group of variant B")
	abtestCreateCmd.Flags().StringVar(&abtestReq.Subject, "subject", "", "Email subject")
	abtestCreateCmd.Flags().Int64Var(&abtestReq.CampaignID, "campaign-id", 0, "Related campaign id")
	abtestCreateCmd.Flags().StringVar(&abtestReq.CampaignName, "campaign-name", "", "Related campaign name")

	abtestShowCmd.Flags().StringVar(&abtestPDF, "pdf", "", "Write a PDF report to this directory (bare flag uses reports.output_dir)")
	abtestShowCmd.Flags().Lookup("pdf").NoOptDefVal = configuredDir

	abtestCmd.AddCommand(abtestSimulateCmd, abtestCreateCmd, abtestListCmd, abtestShowCmd, abtestDeleteCmd)
	rootCmd.AddCommand(abtestCmd)
}

func runABTestSimulate(cmd *cobra.Command, args []string) error {
	application, err := openApp()
	if err != nil {
		return err
	}
	defer application.Close()

	printResults(application.ABTests.Simulate(simSentA, simSentB))
	return nil
}

func runABTestCreate(cmd *cobra.Command, args []string) error {
	application, err := openApp()
	if err != nil {
		return err
	}
	defer application.Close()

	t, err := application.ABTests.Create(context.Background(), abtestReq)
	if err != nil {
		return err
	}

	fmt.Printf("A/B test created: %s\n\n", t.ID)
	printResults(*t.Results)
	return nil
}

func runABTestList(cmd *cobra.Command, args []string) error {
	application, err := openApp()
	if err != nil {
		return err
	}
	defer application.Close()

	tests, err := application.ABTests.Repository().List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list A/B tests: %w", err)
	}

	if len(tests) == 0 {
		fmt.Println("No A/B tests")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tGROUPS\tDATE\tWINNER")
	fmt.Fprintln(w, "--\t----\t------\t----\t------")
	for _, t := range tests {
		winner := "-"
		if t.Results != nil {
			if v := abtest.Winner(*t.Results); v != "" {
				winner = v
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s / %s\t%s\t%s\n", t.ID, t.Name, t.GroupA, t.GroupB, t.Date, winner)
	}
	w.Flush()

	return nil
}

func runABTestShow(cmd *cobra.Command, args []string) error {
	application, err := openApp()
	if err != nil {
		return err
	}
	defer application.Close()

	t, err := application.ABTests.Repository().GetByID(context.Background(), args[0])
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("A/B test not found: %s", args[0])
	}

	fmt.Printf("A/B test: %s\n\n", t.ID)
	fmt.Printf("Name:     %s\n", t.Name)
	fmt.Printf("Date:     %s\n", t.Date)
	fmt.Printf("Subject:  %s\n", t.Subject)
	fmt.Printf("Groups:   %s / %s\n", t.GroupA, t.GroupB)
	if t.CampaignName != "" {
		fmt.Printf("Campaign: %s (%d)\n", t.CampaignName, t.CampaignID)
	}
	if t.Results == nil {
		return nil
	}
	fmt.Println()
	printResults(*t.Results)

	if abtestPDF != "" {
		doc, err := report.BuildABTestReport(*t)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		path, err := doc.SaveFile(pdfDir(application.Config(), abtestPDF))
		if err != nil {
			return err
		}
		fmt.Printf("\nReport written: %s\n", path)
	}
	return nil
}

func runABTestDelete(cmd *cobra.Command, args []string) error {
	application, err := openApp()
	if err != nil {
		return err
	}
	defer application.Close()

	removed, err := application.ABTests.Repository().Remove(context.Background(), args[0])
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("A/B test not found: %s", args[0])
	}

	fmt.Printf("A/B test deleted: %s\n", args[0])
	return nil
}

func printResults(r models.ABTestResults) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tSENT\tOPENED\tCLICKED\tCONVERTED\tREVENUE\tCONV. RATE")
	fmt.Fprintln(w, "-------\t----\t------\t-------\t---------\t-------\t----------")
	for _, row := range []struct {
		name string
		f    models.Funnel
	}{{"A", r.GroupA}, {"B", r.GroupB}} {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%.2f%%\n",
			row.name, row.f.Sent, row.f.Opened, row.f.Clicked, row.f.Converted, row.f.Revenue,
			row.f.ConversionRate()*100)
	}
	w.Flush()

	if winner := abtest.Winner(r); winner != "" {
		fmt.Printf("\nWinner: %s\n", winner)
	} else {
		fmt.Println("\nNo clear winner")
	}
}
