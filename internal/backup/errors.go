// Package backup exports one user's catalog to a portable archive and
// restores it, possibly under another user.
package backup

import "errors"

var (
	// ErrInvalidManifest indicates the manifest is missing or malformed.
	ErrInvalidManifest = errors.New("invalid or missing manifest")

	// ErrVersionMismatch indicates the archive version is not supported.
	ErrVersionMismatch = errors.New("backup version not supported")
)
