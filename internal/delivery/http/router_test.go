package http_test

import (
	"EduForge/internal/app"
	"EduForge/internal/config"
	deliveryhttp "EduForge/internal/delivery/http"
	"EduForge/pkg/logger"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const mcData = `{"question":"2+2?","options":[{"id":"a","text":"4","correct":true},{"id":"b","text":"5","correct":false}],"multiple_correct":false,"shuffle":false}`

type client struct {
	t      *testing.T
	router *gin.Engine
}

func newClient(t *testing.T) *client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Storage: config.Storage{Driver: config.StorageMemory},
		JWT: config.JWT{
			SecretKey:  "test-secret",
			Issuer:     "eduforge-test",
			AccessTTL:  time.Minute,
			RefreshTTL: time.Hour,
		},
		Minio: config.Minio{MaxFileSize: 1 << 20},
	}
	log := logger.FromZap(zap.NewNop())
	services, err := app.NewServices(log, cfg, app.MemoryRepositories(), app.Backends{})
	require.NoError(t, err)
	return &client{t: t, router: deliveryhttp.InitRoutes(log, services, deliveryhttp.Options{})}
}

func (c *client) do(method, path, token string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// signup registers username with role and returns its access token.
func (c *client) signup(username, role string) string {
	c.t.Helper()
	w := c.do(http.MethodPost, "/v1/auth/register", "", gin.H{
		"username": username,
		"password": "secret-pass",
		"email":    username + "@school.test",
		"role":     role,
	})
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())

	w = c.do(http.MethodPost, "/v1/auth/login", "", gin.H{"username": username, "password": "secret-pass"})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
	return decode[struct {
		AccessToken string `json:"access_token"`
	}](c.t, w).AccessToken
}

type node struct {
	ID              string `json:"id"`
	ChapterNumber   int    `json:"chapter_number"`
	ParagraphNumber int    `json:"paragraph_number"`
	LetterIndex     string `json:"letter_index"`
	AnswersEnabled  bool   `json:"answers_enabled"`
	BlockCount      int    `json:"block_count"`
	Version         int    `json:"version"`
}

func (c *client) create(path, token string, body any) node {
	c.t.Helper()
	w := c.do(http.MethodPost, path, token, body)
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[node](c.t, w)
}

type course struct {
	subject, chapter, paragraph, assignment string
}

func (co course) chapters() string {
	return "/v1/subjects/" + co.subject + "/chapters"
}

func (co course) paragraphs() string {
	return co.chapters() + "/" + co.chapter + "/paragraphs"
}

func (co course) assignments() string {
	return co.paragraphs() + "/" + co.paragraph + "/assignments"
}

func (co course) assignmentPath() string {
	return co.assignments() + "/" + co.assignment
}

// buildCourse creates Math > Algebra > Intro > Quiz owned by token.
func (c *client) buildCourse(token string, classID string) course {
	c.t.Helper()
	subject := gin.H{"title": "Math"}
	if classID != "" {
		subject["class_id"] = classID
	}
	var co course
	co.subject = c.create("/v1/subjects", token, subject).ID

	chapter := c.create(co.chapters(), token, gin.H{"title": "Algebra"})
	assert.Equal(c.t, 1, chapter.ChapterNumber)
	co.chapter = chapter.ID

	paragraph := c.create(co.paragraphs(), token, gin.H{"title": "Intro"})
	assert.Equal(c.t, 1, paragraph.ParagraphNumber)
	co.paragraph = paragraph.ID

	assignment := c.create(co.assignments(), token, gin.H{"title": "Quiz"})
	assert.Equal(c.t, "a", assignment.LetterIndex)
	assert.True(c.t, assignment.AnswersEnabled)
	co.assignment = assignment.ID
	return co
}

func TestTeacherAuthorsAssignment(t *testing.T) {
	c := newClient(t)
	teacher := c.signup("teacher", "teacher")
	co := c.buildCourse(teacher, "")

	block := c.create(co.assignmentPath()+"/blocks", teacher, fmt.Sprintf(`{"type":"multiple_choice","position":0,"data":%s}`, mcData))
	assert.Equal(t, 1, block.Version)

	w := c.do(http.MethodGet, co.assignmentPath()+"/blocks", teacher, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := decode[struct {
		Blocks []struct {
			ID       string          `json:"id"`
			Type     string          `json:"type"`
			Position int             `json:"position"`
			Data     json.RawMessage `json:"data"`
		} `json:"blocks"`
	}](t, w).Blocks
	require.Len(t, list, 1)
	assert.Equal(t, block.ID, list[0].ID)
	assert.Equal(t, "multiple_choice", list[0].Type)
	assert.Equal(t, 0, list[0].Position)
	assert.JSONEq(t, mcData, string(list[0].Data))
}

func TestClassMemberReadsSubject(t *testing.T) {
	c := newClient(t)
	teacher := c.signup("teacher", "teacher")
	student := c.signup("student", "student")

	w := c.do(http.MethodPost, "/v1/classes", teacher, gin.H{"name": "7B"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	class := decode[struct {
		ID       string `json:"id"`
		JoinCode string `json:"join_code"`
	}](t, w)
	require.NotEmpty(t, class.JoinCode)

	w = c.do(http.MethodPost, "/v1/classes/join", student, gin.H{"code": class.JoinCode})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	co := c.buildCourse(teacher, class.ID)
	c.create(co.assignmentPath()+"/blocks", teacher, fmt.Sprintf(`{"type":"multiple_choice","data":%s}`, mcData))

	w = c.do(http.MethodGet, co.assignments(), student, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := decode[struct {
		Assignments []node `json:"assignments"`
	}](t, w).Assignments
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].BlockCount)
	assert.True(t, list[0].AnswersEnabled)
	assert.Equal(t, "a", list[0].LetterIndex)

	// members read but never write
	w = c.do(http.MethodPost, co.assignments(), student, gin.H{"title": "Homework"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = c.do(http.MethodGet, co.assignmentPath()+"/blocks", student, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOutsiderSeesNotFound(t *testing.T) {
	c := newClient(t)
	teacher := c.signup("teacher", "teacher")
	outsider := c.signup("outsider", "student")
	co := c.buildCourse(teacher, "")

	w := c.do(http.MethodGet, co.chapters(), outsider, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "Algebra")

	w = c.do(http.MethodGet, co.assignmentPath()+"/view", outsider, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStudentAnswersAssignment(t *testing.T) {
	c := newClient(t)
	teacher := c.signup("teacher", "teacher")
	student := c.signup("student", "student")

	w := c.do(http.MethodPost, "/v1/classes", teacher, gin.H{"name": "7B"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	class := decode[struct {
		ID       string `json:"id"`
		JoinCode string `json:"join_code"`
	}](t, w)
	w = c.do(http.MethodPost, "/v1/classes/join", student, gin.H{"code": class.JoinCode})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	co := c.buildCourse(teacher, class.ID)
	block := c.create(co.assignmentPath()+"/blocks", teacher, fmt.Sprintf(`{"type":"multiple_choice","data":%s}`, mcData))

	w = c.do(http.MethodGet, co.assignmentPath()+"/view", student, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), `"correct"`)
	assert.Contains(t, w.Body.String(), `"2+2?"`)

	w = c.do(http.MethodGet, co.assignmentPath()+"/view?mode=author", student, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = c.do(http.MethodGet, co.assignmentPath()+"/view?mode=editor", student, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodPost, co.assignmentPath()+"/answers", student, gin.H{
		"answers": []gin.H{{"block_id": block.ID, "data": gin.H{"selected": []string{"a"}}}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	saved := decode[struct {
		Answers []struct {
			BlockID string `json:"block_id"`
			Correct *bool  `json:"correct"`
		} `json:"answers"`
	}](t, w).Answers
	require.Len(t, saved, 1)
	assert.Equal(t, block.ID, saved[0].BlockID)
	require.NotNil(t, saved[0].Correct)
	assert.True(t, *saved[0].Correct)

	w = c.do(http.MethodGet, co.assignmentPath()+"/answers", student, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), block.ID)
}

func TestBlockVersionConflict(t *testing.T) {
	c := newClient(t)
	teacher := c.signup("teacher", "teacher")
	co := c.buildCourse(teacher, "")
	block := c.create(co.assignmentPath()+"/blocks", teacher, `{"type":"text"}`)
	path := co.assignmentPath() + "/blocks/" + block.ID

	w := c.do(http.MethodPut, path, teacher, gin.H{"version": 1, "data": gin.H{"content": "Hello", "style": "normal"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, decode[node](t, w).Version)

	// a second editor still holding version 1
	w = c.do(http.MethodPut, path, teacher, gin.H{"version": 1, "data": gin.H{"content": "Stale", "style": "normal"}})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestValidationErrorListsFields(t *testing.T) {
	c := newClient(t)
	teacher := c.signup("teacher", "teacher")
	co := c.buildCourse(teacher, "")

	w := c.do(http.MethodPost, co.assignmentPath()+"/blocks", teacher, `{"type":"text","data":{"content":"x","style":"shouting"}}`)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	body := decode[struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}](t, w)
	assert.Equal(t, "validation failed", body.Error)
	assert.NotEmpty(t, body.Fields)

	w = c.do(http.MethodPost, co.assignmentPath()+"/blocks", teacher, `{"type":"hologram"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthAndRoles(t *testing.T) {
	c := newClient(t)

	w := c.do(http.MethodGet, "/v1/subjects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = c.do(http.MethodGet, "/v1/subjects", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	student := c.signup("student", "student")
	w = c.do(http.MethodPost, "/v1/subjects", student, gin.H{"title": "Math"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = c.do(http.MethodGet, "/v1/me", student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[struct {
		Username string   `json:"username"`
		Roles    []string `json:"roles"`
	}](t, w)
	assert.Equal(t, "student", me.Username)
	assert.Equal(t, []string{"student"}, me.Roles)

	w = c.do(http.MethodPost, "/v1/auth/login", "", gin.H{"username": "student", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = c.do(http.MethodPost, "/v1/auth/refresh", "", gin.H{"refresh_token": "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestIDHeader(t *testing.T) {
	c := newClient(t)

	w := c.do(http.MethodGet, "/v1/status", "", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	req.Header.Set("X-Request-Id", "trace-42")
	w = httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	assert.Equal(t, "trace-42", w.Header().Get("X-Request-Id"))
}

func TestStatusAndMetrics(t *testing.T) {
	c := newClient(t)

	w := c.do(http.MethodGet, "/v1/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[struct {
		Status   string `json:"status"`
		Features struct {
			Storage    string `json:"storage"`
			Search     bool   `json:"search"`
			AIProvider string `json:"ai_provider"`
		} `json:"features"`
	}](t, w)
	assert.Equal(t, "Available", status.Status)
	assert.Equal(t, "memory", status.Features.Storage)
	assert.False(t, status.Features.Search)
	assert.Equal(t, "mock", status.Features.AIProvider)

	w = c.do(http.MethodGet, "/v1/blocks/types", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "multiple_choice")

	w = c.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "eduforge_http_requests_total"))
}

func TestSearchUnavailableWithoutIndex(t *testing.T) {
	c := newClient(t)
	teacher := c.signup("teacher", "teacher")

	w := c.do(http.MethodGet, "/v1/search?q=algebra", teacher, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
