package handlers

import (
	"net/http"

	"github.com/swaggo/swag"

	// registers the OpenAPI document
	"github.com/information-sharing-networks/oms-authenticator/internal/docs"
)

// HandleDocs serves the OpenAPI document.
func HandleDocs(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		http.Error(w, "Failed to read API document", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}
