package models

import (
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/filetype"
)

// User is a document of the users collection.
type User struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	AccountID string    `json:"accountId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// File is a document of the files collection: the metadata record of one
// stored blob.
type File struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	URL          string            `json:"url"`
	Type         filetype.Category `json:"type"`
	BucketFileID string            `json:"bucketFileId"`
	AccountID    string            `json:"accountId"`
	Owner        string            `json:"owner"`
	Extension    string            `json:"extension"`
	Size         int64             `json:"size"`
	Users        []string          `json:"users"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// FileList is the result of a listing.
type FileList struct {
	Total int     `json:"total"`
	Files []*File `json:"documents"`
}

// CategoryUsage is the byte total of one category and the time of its most
// recent change.
type CategoryUsage struct {
	Size         int64     `json:"size"`
	LatestUpdate time.Time `json:"latestDate"`
}

// SpaceUsage aggregates the files owned by one user.
type SpaceUsage struct {
	Document CategoryUsage `json:"document"`
	Image    CategoryUsage `json:"image"`
	Video    CategoryUsage `json:"video"`
	Audio    CategoryUsage `json:"audio"`
	Other    CategoryUsage `json:"other"`
	Used     int64         `json:"used"`
	All      int64         `json:"all"`
}

// Category returns the bucket of c. Every Category value has one.
func (u *SpaceUsage) Category(c filetype.Category) *CategoryUsage {
	switch c {
	case filetype.Document:
		return &u.Document
	case filetype.Image:
		return &u.Image
	case filetype.Video:
		return &u.Video
	case filetype.Audio:
		return &u.Audio
	default:
		return &u.Other
	}
}
