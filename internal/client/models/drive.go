// Package models defines the drive records as the CLI receives them from the
// server API.
package models

import (
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/filetype"
)

type User struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
	AccountID string `json:"accountId"`
}

type File struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	URL          string            `json:"url"`
	Type         filetype.Category `json:"type"`
	BucketFileID string            `json:"bucketFileId"`
	Owner        string            `json:"owner"`
	Extension    string            `json:"extension"`
	Size         int64             `json:"size"`
	Users        []string          `json:"users"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

type FileList struct {
	Total int     `json:"total"`
	Files []*File `json:"documents"`
}

// SummaryRow is one line of the storage usage summary.
type SummaryRow struct {
	Title      string    `json:"title"`
	Size       int64     `json:"size"`
	LatestDate time.Time `json:"latestDate"`
	Route      string    `json:"url"`
}

type Usage struct {
	Used       int64
	All        int64
	Summary    []SummaryRow
	Percentage float64
}

// ListOptions narrows a file listing. Type is a listing route
// (documents, images, media, others); empty means all.
type ListOptions struct {
	Type  string
	Query string
	Sort  string
	Limit int
}
