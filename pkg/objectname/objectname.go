// Package objectname derives the canonical on-disk and database identifier
// for an object from its client-supplied filename and optional version tag.
//
// The identifier is a padded standard base64 encoding. Unversioned objects
// encode the filename directly; versioned objects encode
// "filename:SALT:version", where SALT is the deployment-wide version salt
// from configuration. The same identifier is used as the metadata primary
// key, the final file name, and (with a ".temp" suffix) the staging file
// name, so two distinct (filename, version) pairs never collide on disk.
package objectname

import (
	"encoding/base64"
	"strings"
)

// Encode returns the canonical object name for the given filename and
// version. An empty version means the object is unversioned.
func Encode(salt, filename, version string) string {
	if version == "" {
		return base64.StdEncoding.EncodeToString([]byte(filename))
	}
	plain := strings.Join([]string{filename, salt, version}, ":")
	return base64.StdEncoding.EncodeToString([]byte(plain))
}

// Decode returns the plain text behind an object name. It is intended for
// diagnostics only; callers must not parse structure out of the result.
func Decode(objectName string) (string, error) {
	plain, err := base64.StdEncoding.DecodeString(objectName)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
