package platform

import (
	"net/url"
	"strings"
)

// URLs builds the public addresses of stored blobs:
//
//	{endpoint}/storage/buckets/{bucket}/files/{id}/view?project={project}
//	{endpoint}/storage/buckets/{bucket}/files/{id}/download?project={project}
type URLs struct {
	Endpoint string
	Bucket   string
	Project  string
}

func (u URLs) FileURL(blobID string) string {
	return u.build(blobID, "view")
}

func (u URLs) DownloadURL(blobID string) string {
	return u.build(blobID, "download")
}

// PreviewURL points at the thumbnail route for image blobs.
func (u URLs) PreviewURL(blobID string) string {
	return u.build(blobID, "preview")
}

func (u URLs) build(blobID, action string) string {
	return strings.TrimRight(u.Endpoint, "/") +
		"/storage/buckets/" + url.PathEscape(u.Bucket) +
		"/files/" + url.PathEscape(blobID) + "/" + action +
		"?project=" + url.QueryEscape(u.Project)
}
