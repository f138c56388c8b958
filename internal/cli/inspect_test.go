package cli

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
)

func compactJWS(header, payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(header)) + "." +
		enc.EncodeToString([]byte(payload)) + "." +
		enc.EncodeToString([]byte("signature"))
}

func TestInspectToken(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		want    []string
		wantErr bool
	}{
		{
			name:  "jwt claims",
			token: compactJWS(`{"alg":"RS256","kid":"key-1","typ":"JWT"}`, `{"pid":"42","exp":1772438400}`),
			want: []string{
				"key id:     key-1",
				"algorithm:  RS256",
				"expires:    2026-03-02T08:00:00Z",
				`"pid": "42"`,
			},
		},
		{
			name:  "opaque payload",
			token: compactJWS(`{"alg":"RS256"}`, `not json`),
			want:  []string{"algorithm:  RS256", "payload:\nnot json"},
		},
		{
			name:    "not a jws",
			token:   "0b3c9a1e-opaque-token",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := inspectToken(&out, tt.token+"\n")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("inspectToken() error: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}
