package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/al0nec0der/MarkPDF/internal/buildinfo"
)

// rootCmd builds the command tree. The global flags are read by package
// config before the tree runs; they are declared here so that cobra accepts
// them and lists them in help.
func (a *App) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "markpdf",
		Short:         "Upload PDFs and annotate them with highlights",
		SilenceUsage: true,
	}

	if a.out != nil {
		root.SetOut(a.out)
		root.SetErr(a.out)
	}

	pf := root.PersistentFlags()
	pf.StringP("server", "a", a.config.ServerURL, "base URL of the MarkPDF API")
	pf.StringP("session", "f", a.config.SessionFile, "file holding the signed-in session")
	pf.Float64P("scale", "z", a.config.Scale, "initial viewer zoom")
	pf.DurationP("timeout", "o", a.config.RequestTimeout, "per-request timeout")
	pf.StringP("config", "c", "", "JSON config file")

	root.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.uploadCmd(),
		a.docsCmd(),
		a.highlightsCmd(),
		a.deleteCmd(),
		a.viewCmd(),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "markpdf %s\n", buildinfo.String())
		},
	}
}
