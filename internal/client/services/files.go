package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophdrive/internal/client/client"
	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/filetype"
	"github.com/dmitrijs2005/gophdrive/internal/filex"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
)

// SortOptions are the sort values the server understands.
var SortOptions = []string{
	"$createdAt-desc",
	"$createdAt-asc",
	"name-asc",
	"name-desc",
	"size-desc",
	"size-asc",
}

// FileService wraps the file API with local validation.
type FileService interface {
	List(ctx context.Context, opts models.ListOptions) (*models.FileList, error)
	Search(ctx context.Context, query string) ([]*models.File, error)
	Upload(ctx context.Context, path string) (*models.File, error)
	Rename(ctx context.Context, f *models.File, name string) (*models.File, error)
	Share(ctx context.Context, f *models.File, emails []string) (*models.File, error)
	Delete(ctx context.Context, f *models.File) error
	Usage(ctx context.Context) (*models.Usage, error)
	Download(ctx context.Context, f *models.File, dir string) (string, int64, error)
}

type fileService struct {
	client  client.Client
	maxSize int64
	logger  logging.Logger
}

func NewFileService(c client.Client, logger logging.Logger) FileService {
	return &fileService{client: c, maxSize: common.MaxFileSize, logger: logger.With("module", "files")}
}

func validSort(s string) bool {
	for _, o := range SortOptions {
		if o == s {
			return true
		}
	}
	return false
}

func (s *fileService) List(ctx context.Context, opts models.ListOptions) (*models.FileList, error) {
	if opts.Type != "" && !filetype.IsRoute(opts.Type) {
		return nil, fmt.Errorf("%w: unknown type %q (want one of %s)", client.ErrInvalidInput, opts.Type, strings.Join(filetype.Routes, ", "))
	}
	if opts.Sort != "" && !validSort(opts.Sort) {
		return nil, fmt.Errorf("%w: unknown sort %q", client.ErrInvalidInput, opts.Sort)
	}
	if opts.Limit < 0 {
		return nil, fmt.Errorf("%w: negative limit", client.ErrInvalidInput)
	}
	return s.client.ListFiles(ctx, opts)
}

// Search looks a name fragment up across every category.
func (s *fileService) Search(ctx context.Context, query string) ([]*models.File, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	list, err := s.client.ListFiles(ctx, models.ListOptions{Query: query})
	if err != nil {
		return nil, err
	}
	return list.Files, nil
}

func (s *fileService) Upload(ctx context.Context, path string) (*models.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", client.ErrInvalidInput, path)
	}
	if s.maxSize > 0 && fi.Size() > s.maxSize {
		return nil, fmt.Errorf("%w: %s is larger than %s", client.ErrFileTooLarge, path, filetype.FormatSize(s.maxSize, 0))
	}

	s.logger.Debug(ctx, "uploading", "path", path, "size", fi.Size())
	return s.client.Upload(ctx, filepath.Base(path), f)
}

// Rename keeps the file's extension; name is the new base name.
func (s *fileService) Rename(ctx context.Context, f *models.File, name string) (*models.File, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", client.ErrInvalidInput)
	}
	if f.Extension != "" {
		name = strings.TrimSuffix(name, "."+f.Extension)
	}
	return s.client.Rename(ctx, f.ID, name, f.Extension)
}

// Share replaces the file's access list. Emails are normalized and
// de-duplicated; an empty list revokes every share.
func (s *fileService) Share(ctx context.Context, f *models.File, emails []string) (*models.File, error) {
	seen := make(map[string]struct{}, len(emails))
	clean := make([]string, 0, len(emails))
	for _, e := range emails {
		e = normalize(e)
		if e == "" {
			continue
		}
		if !strings.Contains(e, "@") {
			return nil, fmt.Errorf("%w: %q is not an email", client.ErrInvalidInput, e)
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		clean = append(clean, e)
	}
	return s.client.Share(ctx, f.ID, clean)
}

func (s *fileService) Delete(ctx context.Context, f *models.File) error {
	return s.client.Delete(ctx, f.ID, f.BucketFileID)
}

func (s *fileService) Usage(ctx context.Context) (*models.Usage, error) {
	return s.client.Usage(ctx)
}

// Download saves f under dir (relative to the working directory).
func (s *fileService) Download(ctx context.Context, f *models.File, dir string) (string, int64, error) {
	target, err := filex.EnsureSubdDir(dir)
	if err != nil {
		return "", 0, err
	}

	pr, pw := io.Pipe()
	type result struct {
		n   int64
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := s.client.Download(ctx, f, pw)
		_ = pw.CloseWithError(err)
		done <- result{n, err}
	}()

	path, _, werr := filex.WriteStream(target, f.Name, pr)
	_ = pr.Close()
	res := <-done
	if res.err != nil {
		return "", 0, res.err
	}
	if werr != nil {
		return "", 0, werr
	}
	return path, res.n, nil
}
