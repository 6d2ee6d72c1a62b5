package handlers

import (
	"net/http"

	"github.com/ericlee/eoss/internal/logger"
	"github.com/ericlee/eoss/pkg/config"
	"github.com/ericlee/eoss/pkg/mds"
)

// StatsHandler serves GET /eoss/v1/stats, a JSON summary of the catalog.
// Stats stay readable under SAFEMODE.
type StatsHandler struct {
	cfg    config.Config
	log    *logger.Logger
	mdsLog *logger.Logger
}

// NewStatsHandler creates the stats endpoint handler.
func NewStatsHandler(cfg config.Config, log, mdsLog *logger.Logger) *StatsHandler {
	return &StatsHandler{cfg: cfg, log: log, mdsLog: mdsLog}
}

// Get collects and renders the catalog summary.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	client := mds.NewClient(mds.Config{
		Path:  h.cfg.MetadataDBPath,
		Table: h.cfg.MetadataDBTable,
	}, h.mdsLog)

	if err := client.Open(); err != nil {
		h.log.Error("failed to connect to metadata database", "error", err)
		text(w, StatusMDSConnectFailure, bodyMDSConnect)
		return
	}
	defer client.Close()

	stats, err := client.Stats()
	if err != nil {
		h.log.Error("failed to collect object stats", "error", err)
		text(w, StatusMDSExecFailure, bodyMDSExec)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
