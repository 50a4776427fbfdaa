// Package cli is the interactive GophDrive command-line client.
//
// It restores the saved session on start, then runs a read-eval-print loop:
// sign-up and sign-in with emailed passcodes, listing with category, sort,
// query and limit, upload, rename, share, delete, download, storage usage,
// and search-as-you-type with a debounce window.
package cli
