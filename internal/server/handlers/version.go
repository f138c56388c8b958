package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/information-sharing-networks/oms-authenticator/internal/version"
)

// HandleVersion godoc
//
//	@Summary		Get version information
//	@Description	Returns the version and build information for the service
//	@Tags			Common
//	@Produce		json
//	@Success		200	{object}	VersionResponse	"Version information"
//	@Router			/version [get]
func HandleVersion(info version.Info) http.HandlerFunc {
	// Pre-create the response to avoid allocating on every request
	response := VersionResponse{
		Version:   info.Version,
		GitCommit: info.GitCommit,
		BuildDate: info.BuildDate,
		Service:   "oms-authenticator",
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, "Failed to encode version", http.StatusInternalServerError)
			return
		}
	}
}

type VersionResponse struct {
	Version   string `json:"version" example:"v1.2.0"`
	GitCommit string `json:"gitCommit" example:"3f2c1ab"`
	BuildDate string `json:"buildDate" example:"2026-01-28T10:00:00Z"`
	Service   string `json:"service" example:"oms-authenticator"`
}
