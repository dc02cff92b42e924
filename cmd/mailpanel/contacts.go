package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/foxzi/mailpanel/internal/models"
)

var (
	contactsGroup string
	contactName   string
	contactEmail  string
	contactPhone  string
	importGroup   string
)

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Local contact management",
}

var contactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contacts",
	RunE:  runContactsList,
}

var contactsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a contact",
	RunE:  runContactsAdd,
}

var contactsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a contact",
	Args:  cobra.ExactArgs(1),
	RunE:  runContactsRemove,
}

var contactsImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import contacts from a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runContactsImport,
}

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Contact group management",
}

var groupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List groups with their sizes",
	RunE:  runGroupsList,
}

var groupsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a group",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupsAdd,
}

var groupsRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a group, moving its contacts to the first remaining group",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupsRemove,
}

var groupsRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a group",
	Args:  cobra.ExactArgs(2),
	RunE:  runGroupsRename,
}

func init() {
	contactsListCmd.Flags().StringVar(&contactsGroup, "group", "", "Filter by group")

	contactsAddCmd.Flags().StringVar(&contactEmail, "email", "", "Contact email")
	contactsAddCmd.Flags().StringVar(&contactName, "name", "", "Contact name")
	contactsAddCmd.Flags().StringVar(&contactPhone, "phone", "", "Contact phone")
	contactsAddCmd.Flags().StringVar(&contactsGroup, "group", "", "Contact group")
	contactsAddCmd.MarkFlagRequired("email")

	contactsImportCmd.Flags().StringVar(&importGroup, "group", "", "Group for imported contacts")
	contactsImportCmd.MarkFlagRequired("group")

	contactsCmd.AddCommand(contactsListCmd, contactsAddCmd, contactsRemoveCmd, contactsImportCmd)
	groupsCmd.AddCommand(groupsListCmd, groupsAddCmd, groupsRemoveCmd, groupsRenameCmd)
	rootCmd.AddCommand(contactsCmd, groupsCmd)
}

func runContactsList(cmd *cobra.Command, args []string) error {
	application, err := openApp()
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := context.Background()

	var list []models.Contact
	if contactsGroup != "" {
		list, err = application.Contacts.ContactsByGroup(ctx, contactsGroup)
	} else {
		list, err = application.Contacts.ListContacts(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list contacts: %w", err)
	}

	if len(list) == 0 {
		fmt.Println("No contacts")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tGROUP")
	fmt.Fprintln(w, "--\t----\t-----\t-----\t-----")
	for _, c := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Email, c.Phone, c.Group)
	}
	w.Flush()
	fmt.Printf("\nTotal: %d contacts\n", len(list))

	return nil
}

func runContactsAdd(cmd *cobra.Command, args []string) error {
	application, err := openApp()
	if err != nil {
		return err
	}
	defer application.Close()

	c, err := application.Contacts.AddContact(context.Background(), models.ContactInput{
		Name:  contactName,
		Email: contactEmail,
		Phone: contactPhone,
		Group: contactsGroup,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Contact added: %d\n", c.ID)
	return nil
}

func runContactsRemove(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid contact id: %s", args[0])
	}

	application, err := openApp()
	if err != nil {
		return err
	}
	defer application.Close()

	removed, err := application.Contacts.RemoveContact(context.Background(), id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("contact not found: %d", id)
	}

	fmt.Printf("Contact removed: %d\n", id)
	return nil
}

func runContactsImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	application, err := openApp()
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := context.Background()

	result, err := application.Contacts.ImportCSV(ctx, f, importGroup)
	if err != nil {
		return err
	}
	if err := application.Contacts.AddGroup(ctx, importGroup); err != nil {
		return err
	}

	fmt.Printf("Rows: %d, imported: %d, skipped: %d\n", result.Total, result.Imported, result.Skipped)
	for _, e := range result.Errors {
		fmt.Printf("  %s\n", e)
	}
	return nil
}

func runGroupsList(cmd *cobra.Command, args []string) error {
	application, err := openApp()
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := context.Background()

	groups, err := application.Contacts.ListGroups(ctx)
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}

	if len(groups) == 0 {
		fmt.Println("No groups")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tCONTACTS")
	fmt.Fprintln(w, "-----\t--------")
	for _, g := range groups {
		n, err := application.Contacts.CountInGroup(ctx, g)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\n", g, n)
	}
	w.Flush()

	return nil
}

func runGroupsAdd(cmd *cobra.Command, args []string) error {
	application, err := openApp()
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Contacts.AddGroup(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Group added: %s\n", args[0])
	return nil
}

func runGroupsRemove(cmd *cobra.Command, args []string) error {
	application, err := openApp()
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Contacts.RemoveGroup(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Group removed: %s\n", args[0])
	return nil
}

func runGroupsRename(cmd *cobra.Command, args []string) error {
	application, err := openApp()
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Contacts.RenameGroup(context.Background(), args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("Group renamed: %s -> %s\n", args[0], args[1])
	return nil
}
