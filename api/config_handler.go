package api

import (
	"net/http"

	"github.com/seenimoa/companydash/internal/config"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	Config  config.Config         `json:"config"`
	Secrets []config.SecretStatus `json:"secrets"`
}

// handleGetConfig returns the running configuration. Secret-bearing values
// are replaced by their masked form.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	secrets := config.CheckSecrets(s.cfg)

	cfg := *s.cfg
	for _, st := range secrets {
		if st.Name == "Redis URL" && st.IsSet {
			cfg.Session.RedisURL = st.Masked
		}
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    ConfigResponse{Config: cfg, Secrets: secrets},
	})
}
