package cli

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/oms-authenticator/internal/api"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Request tokens from oms-authenticator",
}

var (
	tokenProvider  string
	tokenOwnerID   string
	tokenSubjectID string
	tokenRequestID string
	tokenCached    bool
)

var sessionTokenCmd = &cobra.Command{
	Use:   "session",
	Short: "Request a session token",
	Long: `Request a session token for a connection of an order management station.

Without --requestid any live cached token is returned. With --cached the
service never contacts the authority.

Example:
  oms-client token session --provider gis --omsid 7a1c --connectionid 42`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appLogger.Debug("Session token command",
			slog.String("provider", tokenProvider),
			slog.String("omsid", tokenOwnerID),
			slog.String("connectionid", tokenSubjectID),
			slog.Bool("cached", tokenCached),
		)

		client := newClient()
		var (
			resp *api.TokenResponse
			err  error
		)
		if tokenCached {
			resp, err = client.CachedSessionToken(cmd.Context(), tokenProvider, tokenOwnerID, tokenSubjectID)
		} else {
			resp, err = client.SessionToken(cmd.Context(), tokenProvider, tokenOwnerID, tokenSubjectID, tokenRequestID)
		}
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

var authorityTokenCmd = &cobra.Command{
	Use:   "authority",
	Short: "Request an authority token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appLogger.Debug("Authority token command", slog.String("provider", tokenProvider))

		resp, err := newClient().AuthorityToken(cmd.Context(), tokenProvider, tokenRequestID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

func init() {
	tokenCmd.PersistentFlags().StringVar(&tokenProvider, "provider", "", "Provider path segment (required)")
	tokenCmd.PersistentFlags().StringVar(&tokenRequestID, "requestid", "", "Request id")
	_ = tokenCmd.MarkPersistentFlagRequired("provider")

	tokenCmd.AddCommand(sessionTokenCmd)
	tokenCmd.AddCommand(authorityTokenCmd)

	sessionTokenCmd.Flags().StringVar(&tokenOwnerID, "omsid", "", "Order management station id (required)")
	sessionTokenCmd.Flags().StringVar(&tokenSubjectID, "connectionid", "", "Connection id (required)")
	sessionTokenCmd.Flags().BoolVar(&tokenCached, "cached", false, "Only return a cached token")
	_ = sessionTokenCmd.MarkFlagRequired("omsid")
	_ = sessionTokenCmd.MarkFlagRequired("connectionid")
	// requestid is inherited, so the command must be attached first
	sessionTokenCmd.MarkFlagsMutuallyExclusive("cached", "requestid")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
