package client

import (
	"context"
	"io"

	"github.com/dmitrijs2005/gophdrive/internal/client/models"
)

// Client is the server API as the CLI uses it.
type Client interface {
	SetSession(secret string)
	Session() string
	Ping(ctx context.Context) error

	SignUp(ctx context.Context, fullName, email string) (accountID string, err error)
	SignIn(ctx context.Context, email string) (accountID string, err error)
	Verify(ctx context.Context, accountID, passcode string) (secret string, err error)
	SignOut(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)

	ListFiles(ctx context.Context, opts models.ListOptions) (*models.FileList, error)
	Upload(ctx context.Context, name string, body io.Reader) (*models.File, error)
	Rename(ctx context.Context, id, name, extension string) (*models.File, error)
	Share(ctx context.Context, id string, emails []string) (*models.File, error)
	Delete(ctx context.Context, id, bucketFileID string) error
	Usage(ctx context.Context) (*models.Usage, error)
	Download(ctx context.Context, file *models.File, w io.Writer) (int64, error)
}
