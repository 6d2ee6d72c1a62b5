// Package handlers maps HTTP methods onto coordinator calls and translates
// coordinator outcomes into the object API's status codes.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/ericlee/eoss/internal/logger"
	"github.com/ericlee/eoss/pkg/config"
	"github.com/ericlee/eoss/pkg/lock"
	"github.com/ericlee/eoss/pkg/mds"
	"github.com/ericlee/eoss/pkg/metrics"
	"github.com/ericlee/eoss/pkg/object"
)

// ObjectVersionHeader is the request header carrying the optional version
// tag.
const ObjectVersionHeader = "X-EOSS-Object-Version"

// ObjectHandler serves GET/HEAD/PUT/DELETE on /eoss/v1/object/{filename}.
//
// Every request opens its own metadata session; sessions are never shared
// across concurrent requests. Writers (PUT, DELETE) hold an exclusive
// object lock for the whole coordinator operation; readers take a shared
// lock only long enough to begin streaming.
type ObjectHandler struct {
	cfg     config.Config
	locks   *lock.Manager
	metrics *metrics.Metrics

	log    *logger.Logger // eoss.log
	mdsLog *logger.Logger // mds_client.log
	objLog *logger.Logger // object_client.log
}

// NewObjectHandler creates the object endpoint handler. metrics may be nil.
func NewObjectHandler(cfg config.Config, locks *lock.Manager, m *metrics.Metrics, log, mdsLog, objLog *logger.Logger) *ObjectHandler {
	return &ObjectHandler{
		cfg:     cfg,
		locks:   locks,
		metrics: m,
		log:     log,
		mdsLog:  mdsLog,
		objLog:  objLog,
	}
}

// session opens the per-request metadata session and builds the
// coordinator for the addressed object. A connect failure is already
// answered when (nil, nil) is returned.
func (h *ObjectHandler) session(w http.ResponseWriter, r *http.Request) (*mds.Client, *object.Coordinator) {
	filename := chi.URLParam(r, "filename")
	version := r.Header.Get(ObjectVersionHeader)

	client := mds.NewClient(mds.Config{
		Path:  h.cfg.MetadataDBPath,
		Table: h.cfg.MetadataDBTable,
	}, h.mdsLog)

	if err := client.Open(); err != nil {
		h.log.Error("failed to connect to metadata database", "error", err)
		text(w, StatusMDSConnectFailure, bodyMDSConnect)
		return nil, nil
	}

	coord := object.NewCoordinator(
		h.cfg.VersionSalt, h.cfg.StoragePath, filename, version, client, h.objLog)

	h.log.Info("object request",
		"method", r.Method,
		"object_filename", filename,
		"object_version", version,
		"object_name", coord.ObjectName(),
	)
	return client, coord
}

// probe runs the existence check, answering the request itself on failure.
func (h *ObjectHandler) probe(w http.ResponseWriter, coord *object.Coordinator) (object.State, bool) {
	state, err := coord.CheckExists()
	if err != nil {
		h.writeMDSError(w, err)
		return state, false
	}
	h.log.Info("object existence state",
		"object_name", coord.ObjectName(), "state", state.String())
	return state, true
}

// Head serves the state-aware existence probe.
func (h *ObjectHandler) Head(w http.ResponseWriter, r *http.Request) {
	client, coord := h.session(w, r)
	if client == nil {
		return
	}
	defer client.Close()

	state, ok := h.probe(w, coord)
	if !ok {
		return
	}
	if state == object.StatePresent {
		text(w, http.StatusOK, bodyObjectExists)
		return
	}
	writeState(w, state)
}

// Get streams the object back as an attachment.
//
// The shared lock is released before the body is written: a concurrent
// DELETE may then unlink the final file, but the open handle keeps the
// bytes alive for this reader.
func (h *ObjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	client, coord := h.session(w, r)
	if client == nil {
		return
	}
	defer client.Close()

	handle, err := h.locks.AcquireShared(coord.ObjectName())
	if err != nil {
		if errors.Is(err, lock.ErrBusy) {
			text(w, http.StatusConflict, bodyReadConflict)
			return
		}
		text(w, StatusInternalFailure, bodyInternalFailure)
		return
	}

	state, ok := h.probe(w, coord)
	if !ok {
		handle.Release()
		return
	}
	if state != object.StatePresent {
		handle.Release()
		writeState(w, state)
		return
	}

	f, err := os.Open(coord.FinalPath())
	handle.Release()
	if err != nil {
		h.log.Error("failed to open object file",
			"object_name", coord.ObjectName(), "error", err)
		text(w, StatusInternalFailure, bodyInternalFailure)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		text(w, StatusInternalFailure, bodyInternalFailure)
		return
	}

	filename := chi.URLParam(r, "filename")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeContent(w, r, filename, fi.ModTime(), f)
}

// Put runs the upload state machine under an exclusive lock.
func (h *ObjectHandler) Put(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Safemode {
		h.log.Info("safemode is enabled, PUT rejected")
		text(w, StatusSafemodeEnabled, bodySafemode)
		return
	}

	client, coord := h.session(w, r)
	if client == nil {
		return
	}
	defer client.Close()

	handle, err := h.locks.AcquireExclusive(coord.ObjectName())
	if err != nil {
		if errors.Is(err, lock.ErrBusy) {
			text(w, http.StatusConflict, bodyWriteConflict)
			return
		}
		text(w, StatusInternalFailure, bodyInternalFailure)
		return
	}
	defer handle.Release()

	state, ok := h.probe(w, coord)
	if !ok {
		return
	}
	if state != object.StateAbsent && state != object.StatePresent {
		writeState(w, state)
		return
	}

	// bodies are buffered in memory by the transport contract
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Error("failed to read request body",
			"object_name", coord.ObjectName(), "error", err)
		text(w, StatusInternalFailure, bodyInternalFailure)
		return
	}

	if err := coord.Put(body, state == object.StatePresent); err != nil {
		h.writePutError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.UploadsTotal.Inc()
	}
	text(w, http.StatusCreated, bodyObjectUploaded)
}

// Delete removes a present object under an exclusive lock. No rollback is
// attempted on failure.
func (h *ObjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Safemode {
		h.log.Info("safemode is enabled, DELETE rejected")
		text(w, StatusSafemodeEnabled, bodySafemode)
		return
	}

	client, coord := h.session(w, r)
	if client == nil {
		return
	}
	defer client.Close()

	handle, err := h.locks.AcquireExclusive(coord.ObjectName())
	if err != nil {
		if errors.Is(err, lock.ErrBusy) {
			text(w, http.StatusConflict, bodyWriteConflict)
			return
		}
		text(w, StatusInternalFailure, bodyInternalFailure)
		return
	}
	defer handle.Release()

	state, ok := h.probe(w, coord)
	if !ok {
		return
	}
	if state != object.StatePresent {
		writeState(w, state)
		return
	}

	if err := coord.Delete(); err != nil {
		h.writeMDSError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.DeletesTotal.Inc()
	}
	text(w, http.StatusOK, bodyObjectDeleted)
}

// writePutError translates an upload failure into its terminal response.
func (h *ObjectHandler) writePutError(w http.ResponseWriter, err error) {
	var rbErr *object.RollbackError
	if errors.As(err, &rbErr) {
		outcome := "ok"
		status, body := StatusRollbackDone, bodyRollbackDone
		if rbErr.Result == object.RollbackPartial {
			outcome = "partial"
			status, body = StatusRollbackFailed, bodyRollbackFailed
		}
		if h.metrics != nil {
			h.metrics.RollbacksTotal.WithLabelValues(outcome).Inc()
		}
		text(w, status, body)
		return
	}
	// row initialization failed before the machine started
	h.writeMDSError(w, err)
}

// writeMDSError maps classified metadata failures; everything else is an
// internal failure.
func (h *ObjectHandler) writeMDSError(w http.ResponseWriter, err error) {
	switch {
	case mds.IsConnect(err):
		text(w, StatusMDSConnectFailure, bodyMDSConnect)
	case mds.IsExec(err):
		text(w, StatusMDSExecFailure, bodyMDSExec)
	case mds.IsCommit(err):
		text(w, StatusMDSCommitFailure, bodyMDSCommit)
	default:
		text(w, StatusInternalFailure, bodyInternalFailure)
	}
}
