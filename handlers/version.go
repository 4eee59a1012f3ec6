package handlers

import (
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/gorilla/mux"
)

// Version is read from version.txt next to the binary, cached after the
// first lookup.
var (
	version     string
	versionOnce sync.Once
)

type VersionHandler struct{}

type VersionResponse struct {
	Version string `json:"version"`
}

func NewVersionHandler() *VersionHandler {
	return &VersionHandler{}
}

// RegisterRoutes attaches the /version endpoint to the router.
func (h *VersionHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)
}

func serverVersion() string {
	versionOnce.Do(func() {
		data, err := os.ReadFile("version.txt")
		if err != nil {
			version = "unknown"
			return
		}
		version = strings.TrimSpace(string(data))
	})
	return version
}

func (h *VersionHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: serverVersion()})
}
