package httpserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/filetype"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/services"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

const recentFiles = 10

var routeTitles = map[string]string{
	filetype.RouteDocuments: "Documents",
	filetype.RouteImages:    "Images",
	filetype.RouteMedia:     "Media",
	filetype.RouteOthers:    "Others",
}

func listingRoutes() []string {
	return filetype.Routes
}

// formatDate renders t like "3:04pm, 2 Jan"; the zero time is "-".
func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("3:04pm, 2 Jan")
}

func parsePages() (*template.Template, error) {
	return template.New("pages").Funcs(template.FuncMap{
		"formatSize": func(n int64) string { return filetype.FormatSize(n, 1) },
		"formatDate": formatDate,
		"percent":    func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
		"join":       strings.Join,
	}).ParseFS(templateFS, "templates/*.html")
}

type authView struct {
	Mode      string
	Error     string
	FullName  string
	Email     string
	AccountID string
}

type fileView struct {
	*models.File
	Path        string
	DownloadURL string
	PreviewURL  string
	Shared      bool
}

type shellView struct {
	User   *models.User
	Path   string
	Query  string
	Routes []navItem
}

type navItem struct {
	Title  string
	URL    string
	Active bool
}

type dashboardView struct {
	Shell      shellView
	Usage      *models.SpaceUsage
	Summary    []services.UsageSummaryRow
	Percentage float64
	Recent     []fileView
}

type listingView struct {
	Shell     shellView
	Title     string
	Files     []fileView
	Total     int
	TotalSize int64
	Sort      string
	Sorts     []services.SortOption
}

func (s *Server) shell(c *gin.Context, user *models.User) shellView {
	path := c.Request.URL.Path
	nav := []navItem{{Title: "Dashboard", URL: "/", Active: path == "/"}}
	for _, r := range filetype.Routes {
		nav = append(nav, navItem{Title: routeTitles[r], URL: "/" + r, Active: path == "/"+r})
	}
	return shellView{User: user, Path: path, Query: c.Query("query"), Routes: nav}
}

func (s *Server) fileViews(user *models.User, path string, files []*models.File) []fileView {
	urls := s.files.URLs()
	out := make([]fileView, len(files))
	for i, f := range files {
		v := fileView{File: f, Path: path, DownloadURL: urls.DownloadURL(f.BucketFileID), Shared: f.Owner != user.ID}
		if f.Type == filetype.Image {
			v.PreviewURL = urls.PreviewURL(f.BucketFileID)
		}
		out[i] = v
	}
	return out
}

func (s *Server) render(c *gin.Context, status int, name string, data any) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := s.pages.ExecuteTemplate(c.Writer, name, data); err != nil {
		s.logger.Error(c.Request.Context(), "failed to render page", "page", name, "error", err)
	}
}

// renderCached renders a signed-in page and tags it with an ETag derived
// from the rendered bytes. A client holding the same rendering gets 304.
func (s *Server) renderCached(c *gin.Context, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.fail(c, fmt.Errorf("render %s: %w", name, err))
		return
	}

	etag := s.revalidator.ETag(c.Request.URL.Path, buf.Bytes())
	c.Header("ETag", etag)
	c.Header("Cache-Control", "private, no-cache")
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// pageUser resolves the signed-in user for a page, redirecting to sign-in
// when there is none.
func (s *Server) pageUser(c *gin.Context) *models.User {
	user, err := s.currentUser(c)
	if err != nil {
		s.fail(c, err)
		return nil
	}
	if user == nil {
		c.Redirect(http.StatusSeeOther, "/sign-in")
		c.Abort()
		return nil
	}
	return user
}

func (s *Server) signInPage(c *gin.Context) {
	if user, _ := s.currentUser(c); user != nil {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	s.render(c, http.StatusOK, "auth", authView{Mode: "sign-in"})
}

func (s *Server) signUpPage(c *gin.Context) {
	if user, _ := s.currentUser(c); user != nil {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	s.render(c, http.StatusOK, "auth", authView{Mode: "sign-up"})
}

func (s *Server) signInSubmit(c *gin.Context) {
	view := authView{Mode: "sign-in", Email: c.PostForm("email")}
	res, err := s.users.SignIn(c.Request.Context(), view.Email)
	if err != nil {
		view.Error = "Failed to sign in. Please try again."
		s.render(c, http.StatusBadRequest, "auth", view)
		return
	}
	if res.Error != "" {
		view.Error = res.Error
		s.render(c, http.StatusOK, "auth", view)
		return
	}
	view.AccountID = res.AccountID
	s.render(c, http.StatusOK, "verify", view)
}

func (s *Server) signUpSubmit(c *gin.Context) {
	view := authView{Mode: "sign-up", FullName: c.PostForm("fullName"), Email: c.PostForm("email")}
	if strings.TrimSpace(view.FullName) == "" {
		view.Error = "Full name is required."
		s.render(c, http.StatusBadRequest, "auth", view)
		return
	}
	accountID, err := s.users.CreateAccount(c.Request.Context(), view.FullName, view.Email)
	if err != nil {
		view.Error = "Failed to create account. Please try again."
		s.render(c, http.StatusBadRequest, "auth", view)
		return
	}
	view.AccountID = accountID
	s.render(c, http.StatusOK, "verify", view)
}

func (s *Server) verifySubmit(c *gin.Context) {
	view := authView{Email: c.PostForm("email"), AccountID: c.PostForm("accountId")}
	_, err := s.users.VerifyOTP(c.Request.Context(), ginCookies{c}, view.AccountID, strings.TrimSpace(c.PostForm("passcode")))
	if err != nil {
		view.Error = "Failed to verify OTP."
		s.render(c, http.StatusUnauthorized, "verify", view)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) signOutSubmit(c *gin.Context) {
	_ = s.users.SignOut(c.Request.Context(), ginCookies{c})
	c.Redirect(http.StatusSeeOther, "/sign-in")
}

func (s *Server) dashboardPage(c *gin.Context) {
	user := s.pageUser(c)
	if user == nil {
		return
	}
	ctx := c.Request.Context()

	usage, err := s.files.GetTotalSpaceUsed(ctx, ginCookies{c})
	if err != nil {
		s.fail(c, err)
		return
	}
	recent, err := s.files.ListFor(ctx, user, services.GetFilesInput{Limit: recentFiles})
	if err != nil {
		s.fail(c, err)
		return
	}

	s.renderCached(c, "dashboard", dashboardView{
		Shell:      s.shell(c, user),
		Usage:      usage,
		Summary:    services.UsageSummary(usage),
		Percentage: services.Percentage(usage.Used),
		Recent:     s.fileViews(user, c.Request.URL.Path, recent.Files),
	})
}

func (s *Server) listingPage(c *gin.Context) {
	user := s.pageUser(c)
	if user == nil {
		return
	}

	route := strings.TrimPrefix(c.FullPath(), "/")
	sort := c.Query("sort")
	list, err := s.files.ListFor(c.Request.Context(), user, services.GetFilesInput{
		Types:      filetype.ForRoute(route),
		SearchText: strings.TrimSpace(c.Query("query")),
		Sort:       sort,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	var total int64
	for _, f := range list.Files {
		total += f.Size
	}
	if sort == "" {
		sort = services.DefaultSort
	}

	s.renderCached(c, "listing", listingView{
		Shell:     s.shell(c, user),
		Title:     routeTitles[route],
		Files:     s.fileViews(user, c.Request.URL.Path, list.Files),
		Total:     list.Total,
		TotalSize: total,
		Sort:      sort,
		Sorts:     services.SortOptions,
	})
}

func (s *Server) uploadSubmit(c *gin.Context) {
	user := s.pageUser(c)
	if user == nil {
		return
	}
	if _, err := s.upload(c, user); err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, pathOr(c.PostForm("path")))
}

func (s *Server) renameSubmit(c *gin.Context) {
	user := s.pageUser(c)
	if user == nil {
		return
	}
	path := pathOr(c.PostForm("path"))
	if _, err := s.files.RenameFile(c.Request.Context(), user, c.Param("id"), c.PostForm("name"), c.PostForm("extension"), path); err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, path)
}

func (s *Server) shareSubmit(c *gin.Context) {
	user := s.pageUser(c)
	if user == nil {
		return
	}
	path := pathOr(c.PostForm("path"))
	emails := splitEmails(c.PostForm("emails"))
	if _, err := s.files.UpdateFileUsers(c.Request.Context(), user, c.Param("id"), emails, path); err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, path)
}

func (s *Server) deleteSubmit(c *gin.Context) {
	user := s.pageUser(c)
	if user == nil {
		return
	}
	path := pathOr(c.PostForm("path"))
	if !s.files.DeleteFile(c.Request.Context(), user, c.Param("id"), c.PostForm("bucketFileId"), path) {
		s.fail(c, errDeleteFailed)
		return
	}
	c.Redirect(http.StatusSeeOther, path)
}

// splitEmails accepts emails separated by commas, semicolons or whitespace.
func splitEmails(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\t' || r == '\r'
	})
}

