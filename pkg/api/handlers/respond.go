package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ericlee/eoss/pkg/object"
)

// Non-standard status codes used by the object API.
const (
	// StatusObjectInit is returned when only the upload was initialized.
	StatusObjectInit = 440

	// StatusObjectStaged is returned when the upload is staged, not closed.
	StatusObjectStaged = 441

	// StatusMDSConnectFailure through StatusRollbackFailed cover backend
	// and lifecycle failures.
	StatusMDSConnectFailure = 520
	StatusMDSExecFailure    = 521
	StatusMDSCommitFailure  = 522
	StatusInternalFailure   = 523
	StatusObjectLost        = 524
	StatusSafemodeEnabled   = 525
	StatusRollbackDone      = 526
	StatusRollbackFailed    = 527
)

// Response body texts, fixed by the API contract.
const (
	bodyObjectUploaded  = "Object Uploaded"
	bodyObjectExists    = "Object Exists"
	bodyObjectDeleted   = "Object Deleted"
	bodyObjectAbsent    = "Object Does Not Exist"
	bodyObjectInit      = "Object Initialized Only"
	bodyObjectStaged    = "Object Saved Not Closed"
	bodyObjectLost      = "Object MDS Closed Not In Local"
	bodyReadConflict    = "Object Read Conflict"
	bodyWriteConflict   = "Object Write Conflict"
	bodyBadMethod       = "Bad Method"
	bodySafemode        = "EOSS Safemode Enabled"
	bodyMDSConnect      = "MDS Connection Failure"
	bodyMDSExec         = "MDS Execution Failure"
	bodyMDSCommit       = "MDS Commit Failure"
	bodyInternalFailure = "EOSS Internal Exception Failure"
	bodyRollbackDone    = "EOSS Rollback Done"
	bodyRollbackFailed  = "EOSS Rollback Failed"
)

func text(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// writeJSON renders a JSON document with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// writeState maps a non-present probe outcome to its response. Present is
// handled by the method-specific success path.
func writeState(w http.ResponseWriter, state object.State) {
	switch state {
	case object.StateAbsent:
		text(w, http.StatusNotFound, bodyObjectAbsent)
	case object.StateInit:
		text(w, StatusObjectInit, bodyObjectInit)
	case object.StateStaged:
		text(w, StatusObjectStaged, bodyObjectStaged)
	case object.StateLost:
		text(w, StatusObjectLost, bodyObjectLost)
	default:
		text(w, StatusInternalFailure, bodyInternalFailure)
	}
}
