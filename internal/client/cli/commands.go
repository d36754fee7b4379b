package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/al0nec0der/MarkPDF/internal/common"
)

// Prompt indirections replaced in tests.
var (
	getSimpleText  = GetSimpleText
	getPassword    = GetPassword
	getNewPassword = GetNewPassword
)

func (a *App) username(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	return getSimpleText(a.reader, "Username", cmd.OutOrStdout())
}

func (a *App) registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register [username]",
		Short: "Create an account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := a.username(cmd, args)
			if err != nil {
				return err
			}
			password, err := getNewPassword(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			u, err := a.backend.Register(cmd.Context(), name, string(password))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s). Run login to sign in.\n", u.Username, u.ID)
			return nil
		},
	}
}

func (a *App) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [username]",
		Short: "Sign in and remember the session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := a.username(cmd, args)
			if err != nil {
				return err
			}
			password, err := getPassword(cmd.OutOrStdout(), "Password")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			pair, err := a.backend.Login(cmd.Context(), name, string(password))
			if err != nil {
				return err
			}
			if err := a.tokens.SignIn(a.config.ServerURL, name, pair.AccessToken, pair.RefreshToken); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", name)
			return nil
		},
	}
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.tokens.RequireSignedIn() != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			if err := a.backend.Logout(cmd.Context()); err != nil {
				a.logger.Warn(cmd.Context(), "server logout failed, clearing local session anyway", "error", err)
			}
			if err := a.tokens.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

// signedIn is a PreRunE for commands that need a session.
func (a *App) signedIn(*cobra.Command, []string) error {
	return a.tokens.RequireSignedIn()
}

func (a *App) uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "upload <file.pdf>",
		Short:   "Upload a PDF",
		Args:    cobra.ExactArgs(1),
		PreRunE: a.signedIn,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			d, err := a.backend.UploadDocument(cmd.Context(), filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s as %s (%d pages)\n", d.FileName, d.ID, d.PageCount)
			return nil
		},
	}
}

func (a *App) docsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "docs",
		Short:   "List your documents",
		Args:    cobra.NoArgs,
		PreRunE: a.signedIn,
		RunE: func(cmd *cobra.Command, _ []string) error {
			docs, err := a.backend.ListDocuments(cmd.Context())
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No documents")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSIZE\tUPLOADED")
			for _, d := range docs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", d.ID, d.FileName, d.SizeBytes, d.CreatedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}

func (a *App) highlightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "highlights <document-id>",
		Short:   "List your highlights on a document",
		Args:    cobra.ExactArgs(1),
		PreRunE: a.signedIn,
		RunE: func(cmd *cobra.Command, args []string) error {
			hs, err := a.backend.ListHighlights(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(hs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No highlights")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPAGE\tTEXT")
			for _, h := range hs {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", h.ID, h.Position.PageNumber, displayText(h))
			}
			return tw.Flush()
		},
	}
}

func (a *App) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <document-id>",
		Short:   "Delete a document and its highlights",
		Args:    cobra.ExactArgs(1),
		PreRunE: a.signedIn,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.backend.DeleteDocument(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, common.ErrDocumentNotFound) {
					return fmt.Errorf("no document %s", args[0])
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
