package cli

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	signProvider      string
	signPayloadFile   string
	signPayloadBase64 string
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign a payload with the provider certificate",
	Long: `Sign a payload with the certificate of a provider and print the detached signature.

The payload is read from --payload-file ("-" for stdin) and base64 encoded,
or passed already encoded with --payload-base64.

Example:
  oms-client sign --provider gis --payload-file ./document.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := signPayload(cmd.InOrStdin())
		if err != nil {
			return err
		}

		appLogger.Debug("Sign command",
			slog.String("provider", signProvider),
			slog.Int("payload_length", len(payload)),
		)

		resp, err := newClient().Sign(cmd.Context(), signProvider, payload)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.Signature)
		return err
	},
}

func init() {
	signCmd.Flags().StringVar(&signProvider, "provider", "", "Provider path segment (required)")
	signCmd.Flags().StringVar(&signPayloadFile, "payload-file", "", "File holding the raw payload, - for stdin")
	signCmd.Flags().StringVar(&signPayloadBase64, "payload-base64", "", "Base64 encoded payload")
	_ = signCmd.MarkFlagRequired("provider")
	signCmd.MarkFlagsMutuallyExclusive("payload-file", "payload-base64")
	signCmd.MarkFlagsOneRequired("payload-file", "payload-base64")
}

// signPayload returns the base64 payload selected by the flags.
func signPayload(stdin io.Reader) (string, error) {
	if signPayloadBase64 != "" {
		if _, err := base64.StdEncoding.DecodeString(signPayloadBase64); err != nil {
			return "", fmt.Errorf("--payload-base64 is not valid base64: %w", err)
		}
		return signPayloadBase64, nil
	}

	var (
		raw []byte
		err error
	)
	if signPayloadFile == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(signPayloadFile)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read payload: %w", err)
	}
	if len(raw) == 0 {
		return "", errors.New("payload is empty")
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
