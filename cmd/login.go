package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tradedash/config"
	"tradedash/pkg/api"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and obtain an API token",
	Long: `Exchange email and password for a bearer token.

The token is printed as an export line; add it to your shell environment or
to the .tradedash.yaml config file.

Examples:
  tradedash login
  tradedash login --email you@example.com`,
	Run: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
}

func runLogin(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)

	email := loginEmail
	if email == "" {
		fmt.Print("Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		email = strings.TrimSpace(line)
	}

	fmt.Print("Password: ")
	line, err := reader.ReadString('\n')
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	password := strings.TrimSpace(line)

	log := newLogger(verbose)
	defer log.Sync()

	client := api.New(cfg.BaseURL, cfg.HTTPTimeout, nil, log)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout+5*time.Second)
	defer cancel()

	session, err := client.Login(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	printSuccess(color.GreenString("Signed in."))
	fmt.Println("Add this to your environment:")
	color.Cyan("  export TRADEDASH_JWT_TOKEN=%s\n", session.AccessToken)
}
