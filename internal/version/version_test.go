package version

import "testing"

func TestGet(t *testing.T) {
	t.Run("ldflags values take precedence", func(t *testing.T) {
		defer func(v, c, d string) { version, gitCommit, buildDate = v, c, d }(version, gitCommit, buildDate)
		version, gitCommit, buildDate = "v9.9.9", "abc1234", "2026-01-01T00:00:00Z"

		got := Get()
		want := Info{Version: "v9.9.9", GitCommit: "abc1234", BuildDate: "2026-01-01T00:00:00Z"}
		if got != want {
			t.Errorf("Get() = %+v, want %+v", got, want)
		}
	})

	t.Run("never empty", func(t *testing.T) {
		got := Get()
		if got.Version == "" || got.GitCommit == "" || got.BuildDate == "" {
			t.Errorf("Get() returned empty fields: %+v", got)
		}
	})
}
