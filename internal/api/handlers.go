package api

import (
	"net/http"

	"github.com/oszuidwest/minnal/internal/types"
)

// confirmUninstallHeader must carry the function name to allow DELETE /api/extension.
const confirmUninstallHeader = "X-Confirm-Uninstall"

// VersionResponse is returned by GET /api/version.
type VersionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	v, err := s.service.Version()
	if err != nil {
		respondError(w, errorCode(err), err.Error())
		return
	}

	info := s.service.VersionInfo()
	respondJSON(w, http.StatusOK, VersionResponse{
		Version:   v,
		Commit:    info.Commit,
		BuildTime: info.BuildTime,
		GoVersion: info.GoVersion,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.service.Health(r.Context()))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.Status(r.Context())
	if err != nil {
		respondError(w, errorCode(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleInstall(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Install(r.Context())
	if err != nil {
		respondError(w, errorCode(err), err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

func (s *Server) handleUninstall(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get(confirmUninstallHeader) != types.VersionFunction {
		respondError(w, http.StatusBadRequest, "Ontbrekende bevestigingsheader: "+confirmUninstallHeader)
		return
	}

	if err := s.service.Uninstall(r.Context()); err != nil {
		respondError(w, errorCode(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": types.VersionFunction + "() verwijderd",
	})
}
