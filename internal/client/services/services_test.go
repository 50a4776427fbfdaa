package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"

	"github.com/dmitrijs2005/gophdrive/internal/client/client"
	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/stretchr/testify/require"
)

// fakeClient embeds the interface; tests override what they need.
type fakeClient struct {
	client.Client

	secret string

	signUpName, signUpEmail string
	signInEmail             string
	verifySecret            string
	verifyErr               error
	me                      *models.User
	meErr                   error
	signOutErr              error
	signOuts                int

	listOpts []models.ListOptions
	list     *models.FileList
	listErr  error
	uploaded string
	body     string
	renamed  [3]string
	shared   []string
	deleted  [2]string
	download string
	downErr  error
	pingErr  error
}

func (f *fakeClient) SetSession(s string) { f.secret = s }
func (f *fakeClient) Session() string     { return f.secret }
func (f *fakeClient) Ping(context.Context) error {
	return f.pingErr
}

func (f *fakeClient) SignUp(_ context.Context, name, email string) (string, error) {
	f.signUpName, f.signUpEmail = name, email
	return "acc-1", nil
}

func (f *fakeClient) SignIn(_ context.Context, email string) (string, error) {
	f.signInEmail = email
	if email == "ghost@example.com" {
		return "", client.ErrUserNotFound
	}
	return "acc-1", nil
}

func (f *fakeClient) Verify(_ context.Context, accountID, passcode string) (string, error) {
	if f.verifyErr != nil {
		return "", f.verifyErr
	}
	f.secret = f.verifySecret
	return f.verifySecret, nil
}

func (f *fakeClient) SignOut(context.Context) error {
	f.signOuts++
	f.secret = ""
	return f.signOutErr
}

func (f *fakeClient) Me(context.Context) (*models.User, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.me, nil
}

func (f *fakeClient) ListFiles(_ context.Context, opts models.ListOptions) (*models.FileList, error) {
	f.listOpts = append(f.listOpts, opts)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.list == nil {
		return &models.FileList{}, nil
	}
	return f.list, nil
}

func (f *fakeClient) Upload(_ context.Context, name string, body io.Reader) (*models.File, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.uploaded, f.body = name, string(b)
	return &models.File{ID: "f1", Name: name, Size: int64(len(b))}, nil
}

func (f *fakeClient) Rename(_ context.Context, id, name, ext string) (*models.File, error) {
	f.renamed = [3]string{id, name, ext}
	return &models.File{ID: id, Name: name + "." + ext, Extension: ext}, nil
}

func (f *fakeClient) Share(_ context.Context, id string, emails []string) (*models.File, error) {
	f.shared = emails
	return &models.File{ID: id, Users: emails}, nil
}

func (f *fakeClient) Delete(_ context.Context, id, bucketFileID string) error {
	f.deleted = [2]string{id, bucketFileID}
	return nil
}

func (f *fakeClient) Usage(context.Context) (*models.Usage, error) {
	return &models.Usage{Used: 1, All: 2}, nil
}

func (f *fakeClient) Download(_ context.Context, _ *models.File, w io.Writer) (int64, error) {
	if f.downErr != nil {
		_, _ = w.Write([]byte("partial"))
		return 0, f.downErr
	}
	n, err := io.WriteString(w, f.download)
	return int64(n), err
}

var errBoom = errors.New("boom")

func nopLogger() logging.Logger {
	return logging.NewText(io.Discard, "error")
}

func newStateDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
