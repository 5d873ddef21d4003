package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_careerlift/internal/app"
	"github.com/anatolykoptev/go_careerlift/internal/resume"
)

var (
	uploadPerson string
	uploadName   string
	listPerson   string

	resumeCmd = &cobra.Command{
		Use:   "resume",
		Short: "Upload and query résumés",
	}

	resumeUploadCmd = &cobra.Command{
		Use:   "upload <file>",
		Short: "Extract a résumé (.txt, .md, .pdf, .doc, .docx) into the graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Resumes.Upload(ctx, resume.Upload{
					Filename:   filepath.Base(args[0]),
					Data:       data,
					PersonName: uploadPerson,
					ResumeName: uploadName,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}

	resumeListCmd = &cobra.Command{
		Use:   "list",
		Short: "List résumés, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				list, err := a.Resumes.List(ctx, listPerson)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), list)
			})
		},
	}

	resumeGraphCmd = &cobra.Command{
		Use:   "graph <person>",
		Short: "Show a person's skills, experience and education",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				g, err := a.Resumes.Graph(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), g)
			})
		},
	}

	resumeScoreCmd = &cobra.Command{
		Use:   "score <person>",
		Short: "Score every stored job against a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				scored, err := a.Resumes.Score(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), scored)
			})
		},
	}

	ollamaStatusCmd = &cobra.Command{
		Use:   "ollama-status",
		Short: "Check the résumé extraction model backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				st := a.Ollama.Status(ctx)
				if err := printJSON(cmd.OutOrStdout(), st); err != nil {
					return err
				}
				if st.Error != "" {
					return fmt.Errorf("ollama: %s", st.Error)
				}
				return nil
			})
		},
	}
)

func init() {
	resumeUploadCmd.Flags().StringVarP(&uploadPerson, "person", "p", "", "person the résumé belongs to (default: extracted name)")
	resumeUploadCmd.Flags().StringVar(&uploadName, "name", "", "résumé label (default \"Default Resume\")")
	resumeListCmd.Flags().StringVarP(&listPerson, "person", "p", "", "only this person's résumés")

	resumeCmd.AddCommand(resumeUploadCmd, resumeListCmd, resumeGraphCmd, resumeScoreCmd, ollamaStatusCmd)
	rootCmd.AddCommand(resumeCmd)
}
