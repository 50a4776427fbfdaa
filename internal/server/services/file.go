package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/filetype"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/query"
	"github.com/dmitrijs2005/gophdrive/internal/retryx"
	"github.com/dmitrijs2005/gophdrive/internal/saga"
	"github.com/dmitrijs2005/gophdrive/internal/server/backend"
	"github.com/dmitrijs2005/gophdrive/internal/server/config"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/platform"
	"github.com/google/uuid"
)

// DefaultSort orders listings newest first.
const DefaultSort = "$createdAt-desc"

// SortOption is one entry of the sort menu.
type SortOption struct {
	Label string
	Value string
}

var SortOptions = []SortOption{
	{Label: "Date created (newest)", Value: "$createdAt-desc"},
	{Label: "Date created (oldest)", Value: "$createdAt-asc"},
	{Label: "Name (A-Z)", Value: "name-asc"},
	{Label: "Name (Z-A)", Value: "name-desc"},
	{Label: "Size (Highest)", Value: "size-desc"},
	{Label: "Size (Lowest)", Value: "size-asc"},
}

// ParseSort splits "field-asc" or "field-desc" at the last dash. An empty
// string means DefaultSort; a missing or unknown direction means descending.
func ParseSort(sort string) (field string, desc bool) {
	if sort == "" {
		sort = DefaultSort
	}
	i := strings.LastIndex(sort, "-")
	if i < 0 {
		return sort, true
	}
	return sort[:i], sort[i+1:] != "asc"
}

// UploadFileInput describes one upload.
type UploadFileInput struct {
	File      platform.InputFile
	OwnerID   string
	AccountID string
	Path      string
}

// GetFilesInput filters a listing. Zero values mean no restriction.
type GetFilesInput struct {
	Types      []filetype.Category
	SearchText string
	Sort       string
	Limit      int
}

// FileService manages file records and their blobs.
type FileService struct {
	clients        ClientFactory
	users          *UserService
	revalidator    Revalidator
	urls           platform.URLs
	uploadAttempts int
	retryDelay     time.Duration
	maxUploadSize  int64
	logger         logging.Logger
}

func NewFileService(clients ClientFactory, users *UserService, revalidator Revalidator, urls platform.URLs,
	cfg *config.Config, logger logging.Logger) *FileService {
	if revalidator == nil {
		revalidator = nopRevalidator{}
	}
	return &FileService{
		clients:        clients,
		users:          users,
		revalidator:    revalidator,
		urls:           urls,
		uploadAttempts: cfg.UploadAttempts,
		retryDelay:     cfg.RetryDelay,
		maxUploadSize:  cfg.MaxUploadSize,
		logger:         logger.With("module", "services.file"),
	}
}

// UploadFile stores the blob, retrying transient failures, then writes the
// metadata record. When the record cannot be written the blob is deleted.
func (s *FileService) UploadFile(ctx context.Context, in UploadFileInput) (*models.File, error) {
	if s.maxUploadSize > 0 && in.File.Size > s.maxUploadSize {
		return nil, common.ErrFileTooLarge
	}

	admin := s.clients.Admin()
	blobID := uuid.NewString()

	var stored *platform.StoredFile
	var file *models.File

	upload := saga.New("upload file", s.logger,
		saga.Step{
			Name: "store blob",
			Action: func(ctx context.Context) error {
				return retryx.Do(ctx, retryx.Policy{
					Attempts: s.uploadAttempts,
					Delay:    s.retryDelay,
					OnRetry: func(attempt int, err error) {
						s.logger.Warn(ctx, "retrying upload", "attempt", attempt, "error", err)
					},
				}, func(ctx context.Context, _ int) error {
					var err error
					stored, err = admin.Storage.CreateFile(ctx, blobID, in.File)
					return err
				})
			},
			Compensate: func(ctx context.Context) error {
				return admin.Storage.DeleteFile(ctx, blobID)
			},
		},
		saga.Step{
			Name: "create record",
			Action: func(ctx context.Context) error {
				category, extension := filetype.Detect(stored.Name)
				data := fileData{
					Name:         stored.Name,
					URL:          s.urls.FileURL(stored.ID),
					Type:         string(category),
					BucketFileID: stored.ID,
					AccountID:    in.AccountID,
					Owner:        in.OwnerID,
					Extension:    extension,
					Size:         stored.Size,
					Users:        []string{},
				}
				doc, err := admin.Databases.CreateDocument(ctx, common.FilesCollection, uuid.NewString(), data,
					[]string{platform.Principal(in.AccountID)})
				if err != nil {
					return err
				}
				file, err = decodeFile(doc)
				return err
			},
		},
	)

	if err := upload.Run(ctx); err != nil {
		s.logger.Error(ctx, "failed to upload file", "error", err)
		return nil, fmt.Errorf("error uploading file: %w", err)
	}

	s.revalidator.Revalidate(in.Path)
	return file, nil
}

// GetFiles lists the files the current user owns or that are shared with
// their email.
func (s *FileService) GetFiles(ctx context.Context, cookies backend.Cookies, in GetFilesInput) (*models.FileList, error) {
	user, err := s.users.RequireCurrentUser(ctx, cookies)
	if err != nil {
		return nil, err
	}
	return s.ListFor(ctx, user, in)
}

// ListFor is GetFiles for an already resolved user.
func (s *FileService) ListFor(ctx context.Context, user *models.User, in GetFilesInput) (*models.FileList, error) {
	qs := []query.Query{
		query.Or(
			query.Equal("owner", user.ID),
			query.Contains("users", user.Email),
		),
	}

	if len(in.Types) > 0 {
		types := make([]string, len(in.Types))
		for i, t := range in.Types {
			types[i] = string(t)
		}
		qs = append(qs, query.Equal("type", types...))
	}
	if in.SearchText != "" {
		qs = append(qs, query.Search("name", in.SearchText))
	}
	if in.Limit > 0 {
		qs = append(qs, query.Limit(in.Limit))
	}

	field, desc := ParseSort(in.Sort)
	if desc {
		qs = append(qs, query.OrderDesc(field))
	} else {
		qs = append(qs, query.OrderAsc(field))
	}

	list, err := s.clients.Admin().Databases.ListDocuments(ctx, common.FilesCollection, qs...)
	if err != nil {
		s.logger.Error(ctx, "failed to get files", "error", err)
		return nil, fmt.Errorf("error listing files: %w", err)
	}

	files := make([]*models.File, 0, len(list.Documents))
	for i := range list.Documents {
		f, err := decodeFile(&list.Documents[i])
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return &models.FileList{Total: list.Total, Files: files}, nil
}

// GetFile returns the record of a blob if actor may read it.
func (s *FileService) GetFile(ctx context.Context, actor *models.User, blobID string) (*models.File, error) {
	list, err := s.clients.Admin().Databases.ListDocuments(ctx, common.FilesCollection,
		query.Equal("bucketFileId", blobID), query.Limit(1))
	if err != nil {
		return nil, fmt.Errorf("error searching file: %w", err)
	}
	if len(list.Documents) == 0 {
		return nil, common.ErrorNotFound
	}
	file, err := decodeFile(&list.Documents[0])
	if err != nil {
		return nil, err
	}
	if actor != nil && !canRead(actor, file) {
		return nil, common.ErrorForbidden
	}
	return file, nil
}

func canRead(u *models.User, f *models.File) bool {
	if f.Owner == u.ID {
		return true
	}
	for _, e := range f.Users {
		if strings.EqualFold(e, u.Email) {
			return true
		}
	}
	return false
}

// owned loads a record and, when actor is set, checks actor owns it.
func (s *FileService) owned(ctx context.Context, admin *backend.Client, actor *models.User, fileID string) (*models.File, error) {
	doc, err := admin.Databases.GetDocument(ctx, common.FilesCollection, fileID)
	if err != nil {
		return nil, err
	}
	file, err := decodeFile(doc)
	if err != nil {
		return nil, err
	}
	if actor != nil && file.Owner != actor.ID {
		return nil, common.ErrorForbidden
	}
	return file, nil
}

// RenameFile sets the name to "name.extension". A nil actor skips the
// ownership check.
func (s *FileService) RenameFile(ctx context.Context, actor *models.User, fileID, name, extension, path string) (*models.File, error) {
	admin := s.clients.Admin()
	if _, err := s.owned(ctx, admin, actor, fileID); err != nil {
		return nil, err
	}

	newName := fmt.Sprintf("%s.%s", name, extension)
	doc, err := admin.Databases.UpdateDocument(ctx, common.FilesCollection, fileID, map[string]any{"name": newName})
	if err != nil {
		s.logger.Error(ctx, "failed to rename file", "error", err)
		return nil, fmt.Errorf("error renaming file: %w", err)
	}

	s.revalidator.Revalidate(path)
	return decodeFile(doc)
}

// UpdateFileUsers replaces the list of emails the file is shared with.
func (s *FileService) UpdateFileUsers(ctx context.Context, actor *models.User, fileID string, emails []string, path string) (*models.File, error) {
	users := make([]string, 0, len(emails))
	for _, e := range emails {
		if strings.TrimSpace(e) == "" {
			continue
		}
		n, err := platform.NormalizeEmail(e)
		if err != nil {
			return nil, err
		}
		users = append(users, n)
	}

	admin := s.clients.Admin()
	if _, err := s.owned(ctx, admin, actor, fileID); err != nil {
		return nil, err
	}

	doc, err := admin.Databases.UpdateDocument(ctx, common.FilesCollection, fileID, map[string]any{"users": users})
	if err != nil {
		s.logger.Error(ctx, "failed to update users who have access to the file", "error", err)
		return nil, fmt.Errorf("error sharing file: %w", err)
	}

	s.revalidator.Revalidate(path)
	return decodeFile(doc)
}

// DeleteFile removes the record and then, best effort, the blob. It reports
// whether the record is gone. An empty blobID means the one the record names.
func (s *FileService) DeleteFile(ctx context.Context, actor *models.User, fileID, blobID, path string) bool {
	admin := s.clients.Admin()

	file, err := s.owned(ctx, admin, actor, fileID)
	if err != nil {
		s.logger.Error(ctx, "failed to delete file", "error", err)
		return false
	}
	if blobID == "" {
		blobID = file.BucketFileID
	}
	if blobID != file.BucketFileID {
		s.logger.Error(ctx, "failed to delete file", "error", "blob does not belong to the record")
		return false
	}

	del := saga.New("delete file", s.logger,
		saga.Step{
			Name: "delete record",
			Action: func(ctx context.Context) error {
				return admin.Databases.DeleteDocument(ctx, common.FilesCollection, fileID)
			},
		},
		saga.Step{
			Name:       "delete blob",
			BestEffort: true,
			Action: func(ctx context.Context) error {
				return admin.Storage.DeleteFile(ctx, blobID)
			},
		},
	)

	if err := del.Run(ctx); err != nil {
		s.logger.Error(ctx, "failed to delete file", "error", err)
		return false
	}

	s.revalidator.Revalidate(path)
	return true
}

// GetTotalSpaceUsed sums the sizes of the files the session's user owns, per
// category. It works on the session connection, so only files readable by
// that account are counted.
func (s *FileService) GetTotalSpaceUsed(ctx context.Context, cookies backend.Cookies) (*models.SpaceUsage, error) {
	client, err := s.clients.Session(ctx, cookies)
	if err != nil {
		return nil, err
	}

	account, err := client.Account.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting account: %w", err)
	}

	users, err := client.Databases.ListDocuments(ctx, common.UsersCollection,
		query.Equal("accountId", account.ID), query.Limit(1))
	if err != nil {
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	if len(users.Documents) == 0 {
		return nil, common.ErrUserNotFound
	}
	user, err := decodeUser(&users.Documents[0])
	if err != nil {
		return nil, err
	}

	list, err := client.Databases.ListDocuments(ctx, common.FilesCollection, query.Equal("owner", user.ID))
	if err != nil {
		s.logger.Error(ctx, "error calculating total space used", "error", err)
		return nil, fmt.Errorf("error listing files: %w", err)
	}

	files := make([]*models.File, 0, len(list.Documents))
	for i := range list.Documents {
		f, err := decodeFile(&list.Documents[i])
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	return s.aggregate(ctx, files), nil
}

func (s *FileService) aggregate(ctx context.Context, files []*models.File) *models.SpaceUsage {
	usage := &models.SpaceUsage{All: common.StorageQuota}

	for _, f := range files {
		category, ok := filetype.Parse(string(f.Type))
		if !ok {
			s.logger.Warn(ctx, "unknown file type, counted as other", "file", f.ID, "type", f.Type)
		}

		bucket := usage.Category(category)
		bucket.Size += f.Size
		usage.Used += f.Size
		if f.UpdatedAt.After(bucket.LatestUpdate) {
			bucket.LatestUpdate = f.UpdatedAt
		}
	}

	return usage
}

// UsageSummaryRow is one card of the dashboard.
type UsageSummaryRow struct {
	Title      string    `json:"title"`
	Size       int64     `json:"size"`
	LatestDate time.Time `json:"latestDate"`
	Route      string    `json:"url"`
}

// UsageSummary folds usage into the four listing routes; media combines
// video and audio.
func UsageSummary(u *models.SpaceUsage) []UsageSummaryRow {
	media := u.Video.LatestUpdate
	if u.Audio.LatestUpdate.After(media) {
		media = u.Audio.LatestUpdate
	}
	return []UsageSummaryRow{
		{Title: "Documents", Size: u.Document.Size, LatestDate: u.Document.LatestUpdate, Route: "/" + filetype.RouteDocuments},
		{Title: "Images", Size: u.Image.Size, LatestDate: u.Image.LatestUpdate, Route: "/" + filetype.RouteImages},
		{Title: "Media", Size: u.Video.Size + u.Audio.Size, LatestDate: media, Route: "/" + filetype.RouteMedia},
		{Title: "Others", Size: u.Other.Size, LatestDate: u.Other.LatestUpdate, Route: "/" + filetype.RouteOthers},
	}
}

// Percentage is the share of the quota that used bytes take, rounded to two
// decimals, as a fraction of 1.
func Percentage(used int64) float64 {
	return math.Round(float64(used)/float64(common.StorageQuota)*100) / 100
}

// IsAccessError reports whether err means the caller may not see or change
// the target.
func IsAccessError(err error) bool {
	return errors.Is(err, common.ErrorForbidden) || errors.Is(err, common.ErrorNotFound)
}

// URLs builds the public addresses of the blobs the service stores.
func (s *FileService) URLs() platform.URLs {
	return s.urls
}
