package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tacowasa/internal/github"
)

var importUser string

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <owner>/<repo>",
		Short: "Import a GitHub repository as a new project",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}

	cmd.Flags().StringVar(&importUser, "user", "", "Importing username, becomes the project owner")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	owner, repo, ok := strings.Cut(args[0], "/")
	if !ok || owner == "" || repo == "" {
		return fmt.Errorf("expected <owner>/<repo>, got %q", args[0])
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	project, err := a.sync.ImportRepository(ctx, github.ImportInput{
		Owner:    owner,
		Repo:     repo,
		Username: importUser,
	})
	if err != nil {
		return fmt.Errorf("import %s/%s: %w", owner, repo, err)
	}

	fmt.Printf("imported %s/%s as project %d (%d tasks, %d members)\n",
		owner, repo, project.ID, len(project.Tasks), len(project.Members))
	return nil
}
