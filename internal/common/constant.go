package common

// SessionCookieName is the cookie carrying the platform session secret.
const SessionCookieName = "platform-session"

// StorageQuota is the fixed per-user quota, 2 GiB.
const StorageQuota int64 = 2 * 1024 * 1024 * 1024

// MaxFileSize is the largest accepted upload, 50 MB.
const MaxFileSize int64 = 50 * 1024 * 1024

// Collections used in the document store.
const (
	UsersCollection = "users"
	FilesCollection = "files"
)
