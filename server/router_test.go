package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	httpHandler "coursemint/interfaces/http"
	"coursemint/interfaces/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubContent struct{}

func (stubContent) Generate(c *gin.Context)  { c.Status(http.StatusCreated) }
func (stubContent) List(c *gin.Context)      { c.String(http.StatusOK, c.GetString("user_id")) }
func (stubContent) Get(c *gin.Context)       { c.Status(http.StatusOK) }
func (stubContent) Update(c *gin.Context)    { c.Status(http.StatusOK) }
func (stubContent) Publish(c *gin.Context)   { c.Status(http.StatusOK) }
func (stubContent) Unpublish(c *gin.Context) { c.Status(http.StatusOK) }
func (stubContent) Delete(c *gin.Context)    { c.Status(http.StatusNoContent) }

type stubCheckout struct{}

func (stubCheckout) Checkout(c *gin.Context)       { c.Status(http.StatusOK) }
func (stubCheckout) ValidateAccess(c *gin.Context) { c.Status(http.StatusOK) }
func (stubCheckout) Unlock(c *gin.Context)         { c.String(http.StatusOK, c.Param("slug")) }

var _ httpHandler.IContentHandler = stubContent{}
var _ httpHandler.ICheckoutHandler = stubCheckout{}

func TestRouterMountsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := InitiateRouter(Handlers{Content: stubContent{}, Checkout: stubCheckout{}}, "secret", nil, middleware.NewRateLimiter(600))

	do := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w
	}

	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/healthz").Code)
	// creator routes need a bearer token
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/api/content").Code)
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodPost, "/api/content/generate").Code)
	// buyer routes are public
	assert.Equal(t, http.StatusOK, do(http.MethodPost, "/checkout/item-1").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodPost, "/access/item-1/validate").Code)
	w := do(http.MethodGet, "/c/go-basics-a1b2c3")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "go-basics-a1b2c3", w.Body.String())
	// no commerce handler, no connect routes
	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/auth/commerce/callback").Code)
}
