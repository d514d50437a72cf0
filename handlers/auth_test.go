package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

// Validation failures are rejected before any database access, so these
// run against a bare router.
func signupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/signup", Signup)
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestSignupRejectsShortPassword(t *testing.T) {
	router := signupRouter()

	w := postJSON(router, "/api/signup", `{
		"firstname": "Jane",
		"lastname":  "Doe",
		"email":     "jane@example.com",
		"password":  "abcd",
		"password2": "abcd"
	}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "at least 5 characters")
}

func TestSignupRejectsPasswordMismatch(t *testing.T) {
	router := signupRouter()

	w := postJSON(router, "/api/signup", `{
		"firstname": "Jane",
		"lastname":  "Doe",
		"email":     "jane@example.com",
		"password":  "secret1",
		"password2": "secret2"
	}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "do not match")
}

func TestSignupRejectsInvalidEmail(t *testing.T) {
	router := signupRouter()

	w := postJSON(router, "/api/signup", `{
		"firstname": "Jane",
		"lastname":  "Doe",
		"email":     "not-an-email",
		"password":  "secret1",
		"password2": "secret1"
	}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignupRejectsMissingFields(t *testing.T) {
	router := signupRouter()

	w := postJSON(router, "/api/signup", `{"email": "jane@example.com"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// A signup that loses the unique email index race fails its insert with a
// duplicate-key error and must report the same conflict as the pre-check.
func TestSignupConflictDetectsDuplicateKeyInsert(t *testing.T) {
	dup := mongo.WriteException{
		WriteErrors: mongo.WriteErrors{
			{Code: 11000, Message: "E11000 duplicate key error collection: amora.users index: email_1"},
		},
	}

	assert.True(t, signupConflict(dup))
	assert.False(t, signupConflict(errors.New("connection reset")))
	assert.False(t, signupConflict(mongo.ErrNoDocuments))
}
