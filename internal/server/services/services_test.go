package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/server/backend"
	"github.com/dmitrijs2005/gophdrive/internal/server/config"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/platform"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/documents"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/inmemory"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// --- fakes ---

type jar struct {
	values map[string]string
	last   *http.Cookie
}

func newJar() *jar { return &jar{values: map[string]string{}} }

func (j *jar) Get(name string) (string, error) {
	v, ok := j.values[name]
	if !ok {
		return "", http.ErrNoCookie
	}
	return v, nil
}

func (j *jar) Set(c *http.Cookie) {
	j.values[c.Name] = c.Value
	j.last = c
}

func (j *jar) Delete(name string) { delete(j.values, name) }

type captureMailer struct {
	mu   sync.Mutex
	fail bool
	body map[string]string
}

func (m *captureMailer) Send(_ context.Context, to, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp unavailable")
	}
	if m.body == nil {
		m.body = map[string]string{}
	}
	m.body[to] = body
	return nil
}

var codePattern = regexp.MustCompile(`code is (\d{6})`)

func (m *captureMailer) code(t *testing.T, to string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	match := codePattern.FindStringSubmatch(m.body[to])
	require.Len(t, match, 2)
	return match[1]
}

type fakeS3 struct {
	mu          sync.Mutex
	objects     map[string][]byte
	putFailures int
	puts        int
	deleted     []string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.putFailures > 0 {
		f.putFailures--
		return nil, errors.New("503 slow down")
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, *in.Key)
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) CreateBucket(context.Context, *s3.CreateBucketInput, ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeS3) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// failingDocuments rejects every Create.
type failingDocuments struct {
	documents.Repository
}

func (failingDocuments) Create(context.Context, *models.Document) error {
	return errors.New("db error: connection reset")
}

type recordingRevalidator struct {
	paths []string
}

func (r *recordingRevalidator) Revalidate(path string) { r.paths = append(r.paths, path) }

// --- harness ---

type harness struct {
	cfg    *config.Config
	repos  *inmemory.RepositoryManager
	mailer *captureMailer
	s3     *fakeS3
	reval  *recordingRevalidator
	users  *UserService
	files  *FileService
}

func newHarness(t *testing.T, wrapDocs func(documents.Repository) documents.Repository) *harness {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.RetryDelay = time.Millisecond

	logger := logging.NewText(io.Discard, "error")
	repos := inmemory.NewRepositoryManager()
	mailer := &captureMailer{}
	objects := &fakeS3{objects: map[string][]byte{}}

	var docs documents.Repository = repos.Documents(db)
	if wrapDocs != nil {
		docs = wrapDocs(docs)
	}

	urls := platform.URLs{Endpoint: cfg.PublicEndpoint, Bucket: cfg.S3Bucket, Project: cfg.ProjectID}
	factory := backend.NewFactory(
		platform.NewAccountService(db, repos, mailer, cfg, logger),
		platform.NewDatabases(docs),
		platform.NewStorage(objects, nil, cfg.S3Bucket),
		platform.Avatars{Endpoint: cfg.PublicEndpoint},
		urls,
		cfg.CookieAttempts,
		logger,
	)

	reval := &recordingRevalidator{}
	users := NewUserService(factory, cfg, logger)
	return &harness{
		cfg:    cfg,
		repos:  repos,
		mailer: mailer,
		s3:     objects,
		reval:  reval,
		users:  users,
		files:  NewFileService(factory, users, reval, urls, cfg, logger),
	}
}

// signUp registers a user and returns a cookie jar holding their session.
func (h *harness) signUp(t *testing.T, name, email string) (*jar, *models.User) {
	t.Helper()
	ctx := context.Background()
	accountID, err := h.users.CreateAccount(ctx, name, email)
	require.NoError(t, err)

	cookies := newJar()
	_, err = h.users.VerifyOTP(ctx, cookies, accountID, h.mailer.code(t, strings.ToLower(email)))
	require.NoError(t, err)

	user, err := h.users.GetCurrentUser(ctx, cookies)
	require.NoError(t, err)
	require.NotNil(t, user)
	return cookies, user
}

func (h *harness) upload(t *testing.T, owner *models.User, name, content string) *models.File {
	t.Helper()
	f, err := h.files.UploadFile(context.Background(), UploadFileInput{
		File:      platform.InputFile{Name: name, Size: int64(len(content)), Body: strings.NewReader(content)},
		OwnerID:   owner.ID,
		AccountID: owner.AccountID,
		Path:      "/",
	})
	require.NoError(t, err)
	return f
}

func listedNames(l *models.FileList) []string {
	names := make([]string, len(l.Files))
	for i, f := range l.Files {
		names[i] = f.Name
	}
	return names
}

