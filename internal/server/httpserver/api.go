package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/filetype"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/platform"
	"github.com/dmitrijs2005/gophdrive/internal/server/services"
	"github.com/gin-gonic/gin"
)

type signUpRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required"`
}

type signInRequest struct {
	Email string `json:"email" binding:"required"`
}

type verifyRequest struct {
	AccountID string `json:"accountId" binding:"required"`
	Passcode  string `json:"passcode" binding:"required"`
}

type renameRequest struct {
	Name      string `json:"name" binding:"required"`
	Extension string `json:"extension"`
	Path      string `json:"path"`
}

type shareRequest struct {
	Emails []string `json:"emails"`
	Path   string   `json:"path"`
}

type usageResponse struct {
	Usage      *models.SpaceUsage         `json:"usage"`
	Summary    []services.UsageSummaryRow `json:"summary"`
	Percentage float64                    `json:"percentage"`
}

func (s *Server) bad(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (s *Server) apiSignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bad(c, err)
		return
	}
	accountID, err := s.users.CreateAccount(c.Request.Context(), req.FullName, req.Email)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accountId": accountID})
}

func (s *Server) apiSignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bad(c, err)
		return
	}
	res, err := s.users.SignIn(c.Request.Context(), req.Email)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) apiVerify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bad(c, err)
		return
	}
	sessionID, err := s.users.VerifyOTP(c.Request.Context(), ginCookies{c}, req.AccountID, req.Passcode)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID})
}

func (s *Server) apiSignOut(c *gin.Context) {
	// the cookie is gone either way
	_ = s.users.SignOut(c.Request.Context(), ginCookies{c})
	c.Status(http.StatusNoContent)
}

// apiUser resolves the current user or aborts with 401.
func (s *Server) apiUser(c *gin.Context) *models.User {
	user, err := s.currentUser(c)
	if err != nil {
		s.fail(c, err)
		return nil
	}
	if user == nil {
		s.fail(c, common.ErrUserNotFound)
		return nil
	}
	return user
}

func (s *Server) apiMe(c *gin.Context) {
	user := s.apiUser(c)
	if user == nil {
		return
	}
	c.JSON(http.StatusOK, user)
}

// filesInput reads type, query, sort and limit from the query string. type is
// a listing route; empty means every category.
func filesInput(c *gin.Context) (services.GetFilesInput, bool) {
	in := services.GetFilesInput{
		SearchText: strings.TrimSpace(c.Query("query")),
		Sort:       c.Query("sort"),
	}
	if t := c.Query("type"); t != "" {
		if !filetype.IsRoute(t) {
			return in, false
		}
		in.Types = filetype.ForRoute(t)
	}
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			return in, false
		}
		in.Limit = n
	}
	return in, true
}

func (s *Server) apiListFiles(c *gin.Context) {
	in, ok := filesInput(c)
	if !ok {
		s.fail(c, common.ErrInvalidInput)
		return
	}
	user := s.apiUser(c)
	if user == nil {
		return
	}
	list, err := s.files.ListFor(c.Request.Context(), user, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) apiUploadFile(c *gin.Context) {
	user := s.apiUser(c)
	if user == nil {
		return
	}
	file, err := s.upload(c, user)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, file)
}

// upload stores the multipart "file" field for user.
func (s *Server) upload(c *gin.Context, user *models.User) (*models.File, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, common.ErrFileTooLarge
		}
		return nil, common.ErrInvalidInput
	}
	if s.maxUploadSize > 0 && fh.Size > s.maxUploadSize {
		return nil, common.ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return s.files.UploadFile(c.Request.Context(), services.UploadFileInput{
		File: platform.InputFile{
			Name:        fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		},
		OwnerID:   user.ID,
		AccountID: user.AccountID,
		Path:      pathOr(c.PostForm("path")),
	})
}

func pathOr(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return "/"
	}
	return p
}

func (s *Server) apiRenameFile(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bad(c, err)
		return
	}
	user := s.apiUser(c)
	if user == nil {
		return
	}
	file, err := s.files.RenameFile(c.Request.Context(), user, c.Param("id"), req.Name, req.Extension, pathOr(req.Path))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

func (s *Server) apiShareFile(c *gin.Context) {
	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bad(c, err)
		return
	}
	user := s.apiUser(c)
	if user == nil {
		return
	}
	file, err := s.files.UpdateFileUsers(c.Request.Context(), user, c.Param("id"), req.Emails, pathOr(req.Path))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

func (s *Server) apiDeleteFile(c *gin.Context) {
	user := s.apiUser(c)
	if user == nil {
		return
	}
	ok := s.files.DeleteFile(c.Request.Context(), user, c.Param("id"), c.Query("bucketFileId"), pathOr(c.Query("path")))
	c.JSON(http.StatusOK, gin.H{"ok": ok})
}

func (s *Server) apiUsage(c *gin.Context) {
	usage, err := s.files.GetTotalSpaceUsed(c.Request.Context(), ginCookies{c})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, usageResponse{
		Usage:      usage,
		Summary:    services.UsageSummary(usage),
		Percentage: services.Percentage(usage.Used),
	})
}
