package exitpass

import "errors"

var (
	// ErrUserIDRequired is returned by Login for an empty user id.
	ErrUserIDRequired = errors.New("user id required")
	// ErrLoginRejected wraps the backend's message when loginUser fails.
	ErrLoginRejected = errors.New("login rejected")
	// ErrSessionSave is returned when a login succeeded remotely but the
	// session could not be persisted.
	ErrSessionSave = errors.New("session could not be saved")
	// ErrPassIDRequired is returned by VerifyURL for an empty pass id.
	ErrPassIDRequired = errors.New("pass id required")
	// ErrVerifyURLUnset is returned by VerifyURL when no landing URL is configured.
	ErrVerifyURLUnset = errors.New("verify url not configured")
	// ErrClientNotReady is returned by methods on a nil or closed Client.
	ErrClientNotReady = errors.New("client not initialized")
	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("invalid config")
)
