// Package client talks to the GophDrive server's JSON API on behalf of the CLI.
//
// The session is the platform-session cookie issued by /api/auth/verify. The
// client does not keep a cookie jar: the secret is handed to the caller to
// persist and is attached to every request with SetSession.
//
// HTTP statuses map to sentinel errors (ErrUnauthorized, ErrForbidden,
// ErrNotFound, ErrFileTooLarge, ErrInvalidInput, ErrPasscode); transport
// failures become ErrUnavailable. InitDatabase and RunMigrations bootstrap the
// local sqlite state database.
package client
