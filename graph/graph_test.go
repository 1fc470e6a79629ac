package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/multiplex/config"
	"github.com/cppla/multiplex/middleware"
	"github.com/cppla/multiplex/models"
	"github.com/cppla/multiplex/services"
	"github.com/cppla/multiplex/utils"
)

type testEnv struct {
	router *gin.Engine
	users  *services.UserService
	posts  *services.PostService
	auth   *services.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := config.OpenDatabase(config.AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: filepath.Join(t.TempDir(), "graph.db"),
		LogLevel:    "silent",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := config.Migrate(db, models.All()...); err != nil {
		t.Fatal(err)
	}
	tokens, err := utils.NewTokenManager(config.TokenConfig{Secret: "graph-secret", AccessTTL: time.Minute, RefreshTTL: time.Hour})
	if err != nil {
		t.Fatal(err)
	}

	env := &testEnv{
		users: services.NewUserService(db),
		posts: services.NewPostService(db, nil, 10, 100),
		auth:  services.NewAuthService(db, tokens),
	}
	h := NewHandler(env.auth, env.posts, services.NewCommentService(db), env.users)

	env.router = gin.New()
	env.router.Use(middleware.Authenticate(env.auth))
	env.router.POST("/graphql/", h.Serve)
	return env
}

func (e *testEnv) createUser(t *testing.T, name string) services.Actor {
	t.Helper()
	u, err := e.users.CreateUser(context.Background(), services.NewUser{Username: name, Password: "testpass", Email: name + "@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	return services.ActorFromUser(u)
}

func (e *testEnv) token(t *testing.T, name string) string {
	t.Helper()
	pair, err := e.auth.Login(context.Background(), name, "testpass")
	if err != nil {
		t.Fatal(err)
	}
	return pair.Access
}

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message    string                 `json:"message"`
		Extensions map[string]interface{} `json:"extensions"`
	} `json:"errors"`
}

func (e *testEnv) exec(t *testing.T, token, query string, vars map[string]interface{}) gqlResponse {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{"query": query, "variables": vars})
	req := httptest.NewRequest(http.MethodPost, "/graphql/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp gqlResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v: %s", err, w.Body.String())
	}
	return resp
}

func errorCode(resp gqlResponse) string {
	if len(resp.Errors) == 0 {
		return ""
	}
	code, _ := resp.Errors[0].Extensions["code"].(string)
	return code
}

func TestLoginAndRefresh(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice")

	resp := env.exec(t, "", `mutation($u: String!, $p: String!) { login(username: $u, password: $p) { access refresh } }`,
		map[string]interface{}{"u": "alice", "p": "testpass"})
	if len(resp.Errors) > 0 {
		t.Fatalf("login errors: %+v", resp.Errors)
	}
	var pair struct{ Access, Refresh string }
	if err := json.Unmarshal(resp.Data["login"], &pair); err != nil {
		t.Fatal(err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatal("login returned empty tokens")
	}

	resp = env.exec(t, "", `mutation RefreshToken($refresh: String!) { refreshToken(refresh: $refresh) { access } }`,
		map[string]interface{}{"refresh": pair.Refresh})
	if len(resp.Errors) > 0 {
		t.Fatalf("refresh errors: %+v", resp.Errors)
	}

	resp = env.exec(t, "", `mutation { refreshToken(refresh: "nope") { access } }`, nil)
	if got := errorCode(resp); got != "INVALID_TOKEN" {
		t.Errorf("bad refresh code = %q, want INVALID_TOKEN", got)
	}

	resp = env.exec(t, "", `mutation { login(username: "alice", password: "wrong") { access } }`, nil)
	if got := errorCode(resp); got != "INVALID_CREDENTIALS" {
		t.Errorf("bad login code = %q, want INVALID_CREDENTIALS", got)
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice")

	resp := env.exec(t, "", `{ me { username } }`, nil)
	if got := errorCode(resp); got != "UNAUTHENTICATED" {
		t.Errorf("anonymous me code = %q, want UNAUTHENTICATED", got)
	}

	resp = env.exec(t, env.token(t, "alice"), `{ me { username email level } }`, nil)
	if len(resp.Errors) > 0 {
		t.Fatalf("me errors: %+v", resp.Errors)
	}
	var me struct {
		Username string
		Email    string
		Level    *int
	}
	if err := json.Unmarshal(resp.Data["me"], &me); err != nil {
		t.Fatal(err)
	}
	if me.Username != "alice" || me.Email != "alice@example.com" || me.Level != nil {
		t.Errorf("me = %+v", me)
	}
}

func TestPostAndCommentMutations(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice")
	env.createUser(t, "bob")
	alice := env.token(t, "alice")
	bob := env.token(t, "bob")

	resp := env.exec(t, "", `mutation { createPost(title: "x", body: "y") { post { id } } }`, nil)
	if got := errorCode(resp); got != "UNAUTHENTICATED" {
		t.Errorf("anonymous createPost code = %q", got)
	}

	resp = env.exec(t, alice, `mutation { createPost(title: "Hello", body: "World") { post { id title isPublished author { username } } } }`, nil)
	if len(resp.Errors) > 0 {
		t.Fatalf("createPost errors: %+v", resp.Errors)
	}
	var created struct {
		Post struct {
			ID          string
			Title       string
			IsPublished bool
			Author      struct{ Username string }
		}
	}
	if err := json.Unmarshal(resp.Data["createPost"], &created); err != nil {
		t.Fatal(err)
	}
	if created.Post.Author.Username != "alice" || created.Post.IsPublished {
		t.Errorf("created post = %+v", created.Post)
	}
	postID := created.Post.ID

	resp = env.exec(t, bob, `mutation($id: ID!) { updatePost(id: $id, title: "mine now") { post { id } } }`, map[string]interface{}{"id": postID})
	if got := errorCode(resp); got != "FORBIDDEN" {
		t.Errorf("bob updatePost code = %q, want FORBIDDEN", got)
	}
	resp = env.exec(t, bob, `mutation { deletePost(id: "4242") { ok } }`, nil)
	if got := errorCode(resp); got != "NOT_FOUND" {
		t.Errorf("missing deletePost code = %q, want NOT_FOUND", got)
	}

	resp = env.exec(t, alice, `mutation($id: ID!) { createComment(postId: $id, content: "first") { comment { id author { username } } } }`, map[string]interface{}{"id": postID})
	if len(resp.Errors) > 0 {
		t.Fatalf("createComment errors: %+v", resp.Errors)
	}
	var comment struct {
		Comment struct {
			ID     string
			Author struct{ Username string }
		}
	}
	if err := json.Unmarshal(resp.Data["createComment"], &comment); err != nil {
		t.Fatal(err)
	}

	resp = env.exec(t, bob, `mutation($id: ID!) { updateComment(id: $id, content: "bob") { comment { id } } }`, map[string]interface{}{"id": comment.Comment.ID})
	if got := errorCode(resp); got != "FORBIDDEN" {
		t.Errorf("bob updateComment code = %q, want FORBIDDEN", got)
	}
	resp = env.exec(t, alice, `mutation($id: ID!) { updateComment(id: $id, content: "edited") { comment { content author { username } } } }`, map[string]interface{}{"id": comment.Comment.ID})
	if len(resp.Errors) > 0 {
		t.Fatalf("alice updateComment errors: %+v", resp.Errors)
	}
	var updated struct {
		Comment struct {
			Content string
			Author  struct{ Username string }
		}
	}
	if err := json.Unmarshal(resp.Data["updateComment"], &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Comment.Content != "edited" || updated.Comment.Author.Username != "alice" {
		t.Errorf("updated comment = %+v", updated.Comment)
	}

	resp = env.exec(t, "", `query($id: ID!) { post(id: $id) { title comments { content } } }`, map[string]interface{}{"id": postID})
	if len(resp.Errors) > 0 {
		t.Fatalf("post query errors: %+v", resp.Errors)
	}
	var got struct {
		Title    string
		Comments []struct{ Content string }
	}
	if err := json.Unmarshal(resp.Data["post"], &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Comments) != 1 || got.Comments[0].Content != "edited" {
		t.Errorf("post comments = %+v", got.Comments)
	}

	resp = env.exec(t, alice, `mutation($id: ID!) { deletePost(id: $id) { ok } }`, map[string]interface{}{"id": postID})
	if len(resp.Errors) > 0 {
		t.Fatalf("deletePost errors: %+v", resp.Errors)
	}
}

func TestPostsQuery_MineIgnoredForAnonymous(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	ctx := context.Background()
	for _, a := range []services.Actor{alice, bob} {
		if _, err := env.posts.Create(ctx, a, services.PostInput{Title: "by " + a.Username, Body: "b"}); err != nil {
			t.Fatal(err)
		}
	}

	count := func(token string) int {
		resp := env.exec(t, token, `{ posts(mine: true) { id } }`, nil)
		if len(resp.Errors) > 0 {
			t.Fatalf("posts errors: %+v", resp.Errors)
		}
		var posts []struct{ ID string }
		if err := json.Unmarshal(resp.Data["posts"], &posts); err != nil {
			t.Fatal(err)
		}
		return len(posts)
	}
	if n := count(""); n != 2 {
		t.Errorf("anonymous mine = %d posts, want 2", n)
	}
	if n := count(env.token(t, "alice")); n != 1 {
		t.Errorf("alice mine = %d posts, want 1", n)
	}
}
