// Package services implements the drive's user account and file operations on
// top of the platform connections handed out by the backend factory.
package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/gophdrive/internal/filetype"
	"github.com/dmitrijs2005/gophdrive/internal/server/backend"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

// ClientFactory hands out platform connections. *backend.Factory implements it.
type ClientFactory interface {
	Admin() *backend.Client
	Session(ctx context.Context, cookies backend.Cookies) (*backend.Client, error)
}

// Revalidator is told which page paths went stale after a mutation.
type Revalidator interface {
	Revalidate(path string)
}

type nopRevalidator struct{}

func (nopRevalidator) Revalidate(string) {}

type userData struct {
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
	AccountID string `json:"accountId"`
}

type fileData struct {
	Name         string   `json:"name"`
	URL          string   `json:"url"`
	Type         string   `json:"type"`
	BucketFileID string   `json:"bucketFileId"`
	AccountID    string   `json:"accountId"`
	Owner        string   `json:"owner"`
	Extension    string   `json:"extension"`
	Size         int64    `json:"size"`
	Users        []string `json:"users"`
}

func decodeUser(doc *models.Document) (*models.User, error) {
	var d userData
	if err := json.Unmarshal(doc.Data, &d); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", doc.ID, err)
	}
	return &models.User{
		ID:        doc.ID,
		FullName:  d.FullName,
		Email:     d.Email,
		Avatar:    d.Avatar,
		AccountID: d.AccountID,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

// decodeFile keeps the stored type string as is; aggregation decides what to
// do with values outside the category set.
func decodeFile(doc *models.Document) (*models.File, error) {
	var d fileData
	if err := json.Unmarshal(doc.Data, &d); err != nil {
		return nil, fmt.Errorf("decode file %s: %w", doc.ID, err)
	}
	users := d.Users
	if users == nil {
		users = []string{}
	}
	return &models.File{
		ID:           doc.ID,
		Name:         d.Name,
		URL:          d.URL,
		Type:         filetype.Category(d.Type),
		BucketFileID: d.BucketFileID,
		AccountID:    d.AccountID,
		Owner:        d.Owner,
		Extension:    d.Extension,
		Size:         d.Size,
		Users:        users,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}
