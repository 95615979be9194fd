package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/server/endpoints"
	"github.com/jackzampolin/folio/version"
)

// versionReport is printed by `folio version`. Server is set with --server.
type versionReport struct {
	Client version.Info `json:"client" yaml:"client"`
	Server string       `json:"server,omitempty" yaml:"server,omitempty"`
}

var versionServer string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the build metadata of this binary.

With --server, also ask a running folio server for its release, which is
useful when the CLI and server were built separately.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		report := versionReport{Client: version.Get()}
		if versionServer != "" {
			var status endpoints.StatusResponse
			if err := api.NewClient(versionServer).Get(cmd.Context(), "/status", &status); err != nil {
				return err
			}
			report.Server = status.Version
		}
		return api.Output(report)
	},
}

func init() {
	versionCmd.Flags().StringVar(&versionServer, "server", "", "also query the server at this URL")
}
