package settings

import (
	"encoding/json"
	"net/http"
)

func GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	s, err := Load(r.Context())
	if err != nil {
		http.Error(w, "Failed to load settings: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s)
}

func PutSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var s CoverageSettings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if s.NetworkTypes == nil {
		s.NetworkTypes = map[string]NetworkTypeStyle{}
	}

	if err := Save(r.Context(), s); err != nil {
		http.Error(w, "Failed to save settings: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s)
}
