package httpserver

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/filetype"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/platform"
	"github.com/gin-gonic/gin"
)

const maxPreviewSize = 1024

// blobFile resolves the record behind /storage/buckets/:bucket/files/:id and
// checks the current user may read it.
func (s *Server) blobFile(c *gin.Context) *models.File {
	if c.Param("bucket") != s.bucket {
		s.fail(c, common.ErrorNotFound)
		return nil
	}
	user := s.apiUser(c)
	if user == nil {
		return nil
	}
	file, err := s.files.GetFile(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return nil
	}
	return file
}

func (s *Server) viewFile(c *gin.Context) {
	file := s.blobFile(c)
	if file == nil {
		return
	}
	url, err := s.storage.ViewURL(c.Request.Context(), file.BucketFileID, file.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (s *Server) downloadFile(c *gin.Context) {
	file := s.blobFile(c)
	if file == nil {
		return
	}
	url, err := s.storage.DownloadURL(c.Request.Context(), file.BucketFileID, file.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (s *Server) previewFile(c *gin.Context) {
	file := s.blobFile(c)
	if file == nil {
		return
	}
	if file.Type != filetype.Image {
		s.fail(c, common.ErrorNotFound)
		return
	}

	size := platform.DefaultPreviewSize
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxPreviewSize {
			s.fail(c, common.ErrInvalidInput)
			return
		}
		size = n
	}

	thumb, err := s.storage.Preview(c.Request.Context(), file.BucketFileID, size)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, "image/jpeg", thumb)
}

func (s *Server) initialsAvatar(c *gin.Context) {
	size := 100
	if v := c.Query("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxPreviewSize {
			size = n
		}
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/svg+xml", platform.RenderInitials(c.Query("name"), size))
}
