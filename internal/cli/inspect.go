package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <token>",
	Short: "Print the header and claims of a token",
	Long: `Decode a compact JWS token (as issued by gis-v3 providers) and print its
protected header and claims. The signature is not verified.

Example:
  oms-client token session --provider gis --omsid 7a1c --connectionid 42 | jq -r .token | xargs oms-client inspect`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspectToken(cmd.OutOrStdout(), args[0])
	},
}

// inspectToken writes the key id, algorithm, expiry and claims of a compact JWS.
func inspectToken(w io.Writer, raw string) error {
	msg, err := jws.Parse([]byte(strings.TrimSpace(raw)))
	if err != nil {
		return fmt.Errorf("token is not a compact JWS: %w", err)
	}

	sigs := msg.Signatures()
	if len(sigs) == 0 {
		return fmt.Errorf("token has no signature")
	}
	headers := sigs[0].ProtectedHeaders()

	if kid, ok := headers.KeyID(); ok {
		fmt.Fprintf(w, "key id:     %s\n", kid)
	}
	if alg, ok := headers.Algorithm(); ok {
		fmt.Fprintf(w, "algorithm:  %s\n", alg.String())
	}

	payload := msg.Payload()
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		fmt.Fprintf(w, "payload:\n%s\n", payload)
		return nil
	}

	if exp, ok := claims["exp"].(float64); ok {
		fmt.Fprintf(w, "expires:    %s\n", time.Unix(int64(exp), 0).UTC().Format(time.RFC3339))
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, payload, "", "  "); err != nil {
		return fmt.Errorf("failed to format claims: %w", err)
	}
	fmt.Fprintf(w, "claims:\n%s\n", pretty.String())
	return nil
}
