// Package platform hosts the backend capabilities the drive is built on:
// accounts and sessions, a schemaless document store, blob storage and
// avatar URLs. Application code reaches it only through the backend client
// factory.
package platform

// Principal returns the permission principal for an account.
func Principal(accountID string) string {
	return "user:" + accountID
}
