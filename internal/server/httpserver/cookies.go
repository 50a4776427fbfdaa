package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ginCookies adapts a request/response pair to backend.Cookies.
type ginCookies struct {
	c *gin.Context
}

func (g ginCookies) Get(name string) (string, error) {
	return g.c.Cookie(name)
}

func (g ginCookies) Set(c *http.Cookie) {
	http.SetCookie(g.c.Writer, c)
	// later reads in the same request see the new value
	g.c.Request.AddCookie(c)
}

func (g ginCookies) Delete(name string) {
	http.SetCookie(g.c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
