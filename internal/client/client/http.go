package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/netx"
)

// userNotFound is the structured sign-in result for unknown emails.
const userNotFound = "User not found"

// HTTPClient implements Client over the server's /api routes.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu     sync.RWMutex
	secret string
}

func NewHTTPClient(baseURL string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = &http.Client{}
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *HTTPClient) SetSession(secret string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.secret = secret
}

func (c *HTTPClient) Session() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.secret
}

func (c *HTTPClient) authHeader() http.Header {
	h := http.Header{}
	if s := c.Session(); s != "" {
		h.Set("Cookie", (&http.Cookie{Name: common.SessionCookieName, Value: s}).String())
	}
	return h
}

// do sends one request. body, when non-nil, is JSON-encoded unless it is
// already an io.Reader (then contentType must be set). out, when non-nil,
// receives the decoded JSON response.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body any, contentType string, out any) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		rdr = b
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(buf)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, err
	}
	for k, v := range c.authHeader() {
		req.Header[k] = v
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := netx.CheckStatus(resp); err != nil {
		return resp, mapStatus(err)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp, nil
}

// mapStatus converts an HTTP failure into a sentinel, keeping the server's
// message.
func mapStatus(err error) error {
	var se *netx.StatusError
	if !errors.As(err, &se) {
		return err
	}

	var sentinel error
	switch se.Code {
	case http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case http.StatusForbidden:
		sentinel = ErrForbidden
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusRequestEntityTooLarge:
		sentinel = ErrFileTooLarge
	case http.StatusBadRequest:
		sentinel = ErrInvalidInput
	default:
		return err
	}

	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal([]byte(se.Body), &body) == nil && body.Error != "" {
		return fmt.Errorf("%w: %s", sentinel, body.Error)
	}
	return sentinel
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/sign-in", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	_ = resp.Body.Close()
	return nil
}

func (c *HTTPClient) SignUp(ctx context.Context, fullName, email string) (string, error) {
	var out struct {
		AccountID string `json:"accountId"`
	}
	_, err := c.do(ctx, http.MethodPost, "/api/auth/sign-up", nil,
		map[string]string{"fullName": fullName, "email": email}, "", &out)
	if err != nil {
		return "", err
	}
	return out.AccountID, nil
}

func (c *HTTPClient) SignIn(ctx context.Context, email string) (string, error) {
	var out struct {
		AccountID string `json:"accountId"`
		Error     string `json:"error"`
	}
	_, err := c.do(ctx, http.MethodPost, "/api/auth/sign-in", nil,
		map[string]string{"email": email}, "", &out)
	if err != nil {
		return "", err
	}
	if out.Error == userNotFound {
		return "", ErrUserNotFound
	}
	if out.Error != "" {
		return "", errors.New(out.Error)
	}
	return out.AccountID, nil
}

// Verify exchanges a passcode for a session and returns its secret. The
// secret is also installed on c.
func (c *HTTPClient) Verify(ctx context.Context, accountID, passcode string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/verify", nil,
		map[string]string{"accountId": accountID, "passcode": passcode}, "", nil)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return "", fmt.Errorf("%w: %v", ErrPasscode, err)
		}
		return "", err
	}

	for _, ck := range resp.Cookies() {
		if ck.Name == common.SessionCookieName && ck.Value != "" {
			c.SetSession(ck.Value)
			return ck.Value, nil
		}
	}
	return "", ErrNoSessionSent
}

func (c *HTTPClient) SignOut(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/sign-out", nil, nil, "", nil)
	c.SetSession("")
	return err
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if _, err := c.do(ctx, http.MethodGet, "/api/me", nil, nil, "", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) ListFiles(ctx context.Context, opts models.ListOptions) (*models.FileList, error) {
	q := url.Values{}
	if opts.Type != "" {
		q.Set("type", opts.Type)
	}
	if opts.Query != "" {
		q.Set("query", opts.Query)
	}
	if opts.Sort != "" {
		q.Set("sort", opts.Sort)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	var list models.FileList
	if _, err := c.do(ctx, http.MethodGet, "/api/files", q, nil, "", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Upload streams body as the multipart "file" field.
func (c *HTTPClient) Upload(ctx context.Context, name string, body io.Reader) (*models.File, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", name)
		if err == nil {
			_, err = io.Copy(part, body)
		}
		if err == nil {
			err = mw.WriteField("path", "/")
		}
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	var f models.File
	_, err := c.do(ctx, http.MethodPost, "/api/files", nil, pr, mw.FormDataContentType(), &f)
	_ = pr.Close()
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *HTTPClient) Rename(ctx context.Context, id, name, extension string) (*models.File, error) {
	var f models.File
	_, err := c.do(ctx, http.MethodPatch, "/api/files/"+url.PathEscape(id), nil,
		map[string]string{"name": name, "extension": extension, "path": "/"}, "", &f)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *HTTPClient) Share(ctx context.Context, id string, emails []string) (*models.File, error) {
	if emails == nil {
		emails = []string{}
	}
	var f models.File
	_, err := c.do(ctx, http.MethodPut, "/api/files/"+url.PathEscape(id)+"/users", nil,
		map[string]any{"emails": emails, "path": "/"}, "", &f)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *HTTPClient) Delete(ctx context.Context, id, bucketFileID string) error {
	var out struct {
		OK bool `json:"ok"`
	}
	q := url.Values{"bucketFileId": {bucketFileID}, "path": {"/"}}
	if _, err := c.do(ctx, http.MethodDelete, "/api/files/"+url.PathEscape(id), q, nil, "", &out); err != nil {
		return err
	}
	if !out.OK {
		return ErrDeleteFailed
	}
	return nil
}

func (c *HTTPClient) Usage(ctx context.Context) (*models.Usage, error) {
	var out struct {
		Usage struct {
			Used int64 `json:"used"`
			All  int64 `json:"all"`
		} `json:"usage"`
		Summary    []models.SummaryRow `json:"summary"`
		Percentage float64            `json:"percentage"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/api/usage", nil, nil, "", &out); err != nil {
		return nil, err
	}
	return &models.Usage{
		Used:       out.Usage.Used,
		All:        out.Usage.All,
		Summary:    out.Summary,
		Percentage: out.Percentage,
	}, nil
}

// DownloadURL turns a file's view URL into its forced-download variant.
func DownloadURL(f *models.File) (string, error) {
	u, err := url.Parse(f.URL)
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(u.Path, "/view") {
		return "", fmt.Errorf("unexpected file url %q", f.URL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/view") + "/download"
	return u.String(), nil
}

func (c *HTTPClient) Download(ctx context.Context, f *models.File, w io.Writer) (int64, error) {
	u, err := DownloadURL(f)
	if err != nil {
		return 0, err
	}
	n, err := netx.Download(ctx, c.http, u, c.authHeader(), w)
	if err != nil {
		return 0, mapStatus(err)
	}
	return n, nil
}
