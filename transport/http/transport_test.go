package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/mirror520/taskboard"
	"github.com/mirror520/taskboard/conf"
	"github.com/mirror520/taskboard/model"
	"github.com/mirror520/taskboard/persistence"
	"github.com/mirror520/taskboard/persistence/kv"
	"github.com/mirror520/taskboard/policy"
	"github.com/mirror520/taskboard/task"
	"github.com/mirror520/taskboard/workspace"
)

const testIssuer = "https://taskboard.example.com"

type transportTestSuite struct {
	suite.Suite
	jwt    conf.JWT
	store  persistence.Store
	router *gin.Engine

	admin   model.ID
	member  model.ID
	visitor model.ID

	workspace workspace.Workspace
	service   workspace.Service
}

func (suite *transportTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	store, err := kv.NewStore(conf.Persistence{
		Driver: conf.InMem,
		Name:   "taskboard",
		InMem:  true,
	})
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	p, err := policy.NewRegoPolicy(context.Background())
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.jwt = conf.JWT{
		Secret:  []byte("secret"),
		Timeout: time.Hour,
	}

	svc := taskboard.NewService(store, p, nil, conf.Engine{})
	endpoints := taskboard.NewEndpointSet(svc)

	r := NewRouter(zap.NewNop())
	SetRouter(r, endpoints, Authenticator(NewTokenParser(suite.jwt, testIssuer)))

	suite.store = store
	suite.router = r
	suite.admin = model.NewID()
	suite.member = model.NewID()
	suite.visitor = model.NewID()

	code, result := suite.do(suite.admin, http.MethodPost, "/api/v1/workspaces", map[string]any{
		"name": "Mirror's Workspace",
	})
	suite.Require().Equal(http.StatusOK, code)
	suite.Require().NoError(result.Decode(&suite.workspace))

	for _, user := range []model.ID{suite.member, suite.visitor} {
		code, _ = suite.do(user, http.MethodPost, "/api/v1/workspaces/join", map[string]any{
			"invite_code": suite.workspace.InviteCode,
		})
		suite.Require().Equal(http.StatusOK, code)
	}

	code, _ = suite.do(suite.admin, http.MethodPatch, suite.workspacePath("/members/"+suite.visitor.String()), map[string]any{
		"role": "visitor",
	})
	suite.Require().Equal(http.StatusOK, code)

	code, result = suite.do(suite.admin, http.MethodPost, suite.workspacePath("/services"), map[string]any{
		"name": "identity",
	})
	suite.Require().Equal(http.StatusOK, code)
	suite.Require().NoError(result.Decode(&suite.service))
}

func (suite *transportTestSuite) TearDownTest() {
	suite.store.Close()
}

func (suite *transportTestSuite) workspacePath(suffix string) string {
	return "/api/v1/workspaces/" + suite.workspace.ID.String() + suffix
}

func (suite *transportTestSuite) token(actor model.ID) string {
	token, err := NewToken(suite.jwt, testIssuer, actor)
	suite.Require().NoError(err)
	return token
}

func (suite *transportTestSuite) request(token string, method string, path string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		suite.Require().NoError(err)
		r = bytes.NewReader(bs)
	}

	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *transportTestSuite) do(actor model.ID, method string, path string, body any) (int, *model.Result) {
	w := suite.request(suite.token(actor), method, path, body)

	var result model.Result
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &result))
	return w.Code, &result
}

func (suite *transportTestSuite) createTask(name string, confidential bool) task.Task {
	code, result := suite.do(suite.admin, http.MethodPost, suite.workspacePath("/tasks"), map[string]any{
		"service_id":      suite.service.ID,
		"name":            name,
		"is_confidential": confidential,
	})
	suite.Require().Equal(http.StatusOK, code, result.Msg)

	var t task.Task
	suite.Require().NoError(result.Decode(&t))
	return t
}

func (suite *transportTestSuite) TestHealth() {
	w := suite.request("", http.MethodGet, "/health", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("ok", w.Body.String())
}

func (suite *transportTestSuite) TestMissingToken() {
	w := suite.request("", http.MethodGet, suite.workspacePath("/tasks"), nil)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.NotEmpty(w.Header().Get("WWW-Authenticate"))
}

func (suite *transportTestSuite) TestTokenFromAnotherIssuer() {
	token, err := NewToken(suite.jwt, "https://elsewhere.example.com", suite.admin)
	suite.Require().NoError(err)

	w := suite.request(token, http.MethodGet, suite.workspacePath("/tasks"), nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *transportTestSuite) TestTokenSignedWithAnotherMethod() {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   suite.admin.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(suite.jwt.Secret)
	suite.Require().NoError(err)

	w := suite.request(token, http.MethodGet, suite.workspacePath("/tasks"), nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *transportTestSuite) TestHiddenTaskLooksMissing() {
	secret := suite.createTask("rotate keys", true)

	code, hidden := suite.do(suite.visitor, http.MethodGet, "/api/v1/tasks/"+secret.ID.String(), nil)
	suite.Equal(http.StatusNotFound, code)
	suite.Equal(model.ErrAccessDenied.Error(), hidden.Msg)

	code, missing := suite.do(suite.visitor, http.MethodGet, "/api/v1/tasks/"+model.NewID().String(), nil)
	suite.Equal(http.StatusNotFound, code)
	suite.Equal(hidden.Msg, missing.Msg)

	code, malformed := suite.do(suite.visitor, http.MethodGet, "/api/v1/tasks/not-an-id", nil)
	suite.Equal(http.StatusNotFound, code)
	suite.Equal(hidden.Msg, malformed.Msg)
}

func (suite *transportTestSuite) TestNonMemberSeesNotFound() {
	stranger := model.NewID()

	code, result := suite.do(stranger, http.MethodGet, suite.workspacePath("/tasks"), nil)
	suite.Equal(http.StatusNotFound, code)
	suite.Equal(model.ErrAccessDenied.Error(), result.Msg)
}

func (suite *transportTestSuite) TestListTasksWithFilter() {
	suite.createTask("a", false)
	b := suite.createTask("b", false)

	code, _ := suite.do(suite.admin, http.MethodPut, "/api/v1/tasks/"+b.ID.String()+"/status", map[string]any{
		"status": "in_progress",
	})
	suite.Require().Equal(http.StatusOK, code)

	code, result := suite.do(suite.visitor, http.MethodGet, suite.workspacePath("/tasks?status=IN_PROGRESS"), nil)
	suite.Require().Equal(http.StatusOK, code)

	var tasks []task.Task
	suite.Require().NoError(result.Decode(&tasks))
	suite.Len(tasks, 1)
	suite.Equal(b.ID, tasks[0].ID)
	suite.Equal(task.InProgress, tasks[0].Status)

	code, _ = suite.do(suite.visitor, http.MethodGet, suite.workspacePath("/tasks?due_before=tomorrow"), nil)
	suite.Equal(http.StatusBadRequest, code)
}

func (suite *transportTestSuite) TestInvalidTransition() {
	t := suite.createTask("a", false)
	path := "/api/v1/tasks/" + t.ID.String() + "/status"

	code, _ := suite.do(suite.admin, http.MethodPut, path, map[string]any{"status": "archived"})
	suite.Require().Equal(http.StatusOK, code)

	code, _ = suite.do(suite.admin, http.MethodPut, path, map[string]any{"status": "todo"})
	suite.Equal(http.StatusBadRequest, code)

	code, _ = suite.do(suite.admin, http.MethodPut, path, map[string]any{"status": "someday"})
	suite.Equal(http.StatusBadRequest, code)
}

func (suite *transportTestSuite) TestMissingRequiredField() {
	code, _ := suite.do(suite.admin, http.MethodPost, suite.workspacePath("/services"), map[string]any{})
	suite.Equal(http.StatusBadRequest, code)
}

func (suite *transportTestSuite) TestMessagesAndFollowers() {
	t := suite.createTask("a", false)
	base := "/api/v1/tasks/" + t.ID.String()

	code, _ := suite.do(suite.visitor, http.MethodPost, base+"/followers", nil)
	suite.Equal(http.StatusNotFound, code)

	code, _ = suite.do(suite.member, http.MethodPost, base+"/followers", nil)
	suite.Require().Equal(http.StatusOK, code)

	code, result := suite.do(suite.admin, http.MethodGet, base+"/followers", nil)
	suite.Require().Equal(http.StatusOK, code)

	var followers []model.ID
	suite.Require().NoError(result.Decode(&followers))
	suite.ElementsMatch([]model.ID{suite.admin, suite.member}, followers)

	code, _ = suite.do(suite.member, http.MethodPost, base+"/messages", map[string]any{"content": "on it"})
	suite.Require().Equal(http.StatusOK, code)

	code, result = suite.do(suite.visitor, http.MethodGet, base+"/messages", nil)
	suite.Require().Equal(http.StatusOK, code)

	var messages []task.Message
	suite.Require().NoError(result.Decode(&messages))
	suite.Len(messages, 1)
}

func (suite *transportTestSuite) TestDeleteWorkspace() {
	t := suite.createTask("a", false)

	code, _ := suite.do(suite.visitor, http.MethodDelete, suite.workspacePath(""), nil)
	suite.Equal(http.StatusNotFound, code)

	code, _ = suite.do(suite.admin, http.MethodDelete, suite.workspacePath(""), nil)
	suite.Require().Equal(http.StatusOK, code)

	code, _ = suite.do(suite.admin, http.MethodGet, "/api/v1/tasks/"+t.ID.String(), nil)
	suite.Equal(http.StatusNotFound, code)
}

func TestTransportTestSuite(t *testing.T) {
	suite.Run(t, new(transportTestSuite))
}
