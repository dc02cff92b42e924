package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginIdentifier string
	loginPassword   string
	loginRemember   bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the content API",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session",
	RunE:  runLogout,
}

func init() {
	loginCmd.Flags().StringVar(&loginIdentifier, "identifier", "", "Username or email (will prompt if not provided)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (will prompt if not provided)")
	loginCmd.Flags().BoolVar(&loginRemember, "remember", false, "Remember the identifier for the next login")

	rootCmd.AddCommand(loginCmd, logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	application, err := openApp()
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := context.Background()

	identifier := loginIdentifier
	if identifier == "" {
		remembered, err := application.Sessions.RememberedIdentifier(ctx)
		if err != nil {
			return fmt.Errorf("failed to read remembered identifier: %w", err)
		}
		if remembered != "" {
			fmt.Printf("Identifier [%s]: ", remembered)
		} else {
			fmt.Print("Identifier: ")
		}
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read identifier: %w", err)
		}
		identifier = strings.TrimSpace(line)
		if identifier == "" {
			identifier = remembered
		}
	}

	password := loginPassword
	if password == "" {
		fmt.Print("Password: ")
		pwBytes, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println()
		password = string(pwBytes)
	}

	sess, err := application.Sessions.Login(ctx, identifier, password, loginRemember)
	if err != nil {
		return err
	}

	fmt.Printf("Logged in as %s (id %d)\n", sess.User.Username, sess.User.ID)
	if sess.ExpiresAt != nil {
		fmt.Printf("Session expires: %s\n", sess.ExpiresAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	application, err := openApp()
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Sessions.Logout(context.Background()); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}
