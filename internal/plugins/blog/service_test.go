package blog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hainu/catalog/internal/apperror"
	"github.com/hainu/catalog/internal/pagination"
)

type mockPostRepo struct {
	countFn    func(ctx context.Context) (int, error)
	listFn     func(ctx context.Context, limit, offset int) ([]Post, error)
	findByIDFn func(ctx context.Context, id int) (*Post, error)
}

func (m *mockPostRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockPostRepo) List(ctx context.Context, limit, offset int) ([]Post, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockPostRepo) FindByID(ctx context.Context, id int) (*Post, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("post not found")
}

func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status code %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

func strPtr(s string) *string { return &s }

func TestList_Paginates(t *testing.T) {
	repo := &mockPostRepo{
		countFn: func(_ context.Context) (int, error) { return 5, nil },
		listFn: func(_ context.Context, limit, offset int) ([]Post, error) {
			if limit != 2 || offset != 2 {
				t.Errorf("expected limit 2 offset 2, got %d %d", limit, offset)
			}
			return []Post{{ID: 3, Title: "Third"}, {ID: 2, Title: "Second"}}, nil
		},
	}
	svc := NewPostService(repo, "https://cdn.example.com/media")

	page, posts, err := svc.List(context.Background(), pagination.Params{Page: "2", PageSize: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.NumPages != 3 || page.Number != 2 {
		t.Errorf("unexpected page: %+v", page)
	}
	if len(posts) != 2 || posts[0].ID != 3 {
		t.Errorf("unexpected posts: %+v", posts)
	}
}

func TestList_EmptySetSkipsQuery(t *testing.T) {
	repo := &mockPostRepo{
		listFn: func(context.Context, int, int) ([]Post, error) {
			t.Error("List should not be called for an empty set")
			return nil, nil
		},
	}
	_, posts, err := NewPostService(repo, "").List(context.Background(), pagination.Params{Page: "1", PageSize: 25})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("expected no posts, got %d", len(posts))
	}
}

func TestList_InvalidPage(t *testing.T) {
	repo := &mockPostRepo{countFn: func(context.Context) (int, error) { return 1, nil }}
	_, _, err := NewPostService(repo, "").List(context.Background(), pagination.Params{Page: "9", PageSize: 25})
	assertAppError(t, err, http.StatusNotFound)
}

func TestGet_RendersPost(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	serviceID := 4
	repo := &mockPostRepo{
		findByIDFn: func(_ context.Context, id int) (*Post, error) {
			return &Post{
				ID:        id,
				ServiceID: &serviceID,
				Title:     "Hello",
				Text:      `<p>Safe <b>text</b></p><script>alert(1)</script>`,
				Image:     strPtr("blog/cover.png"),
				CreatedAt: created,
			}, nil
		},
	}
	post, err := NewPostService(repo, "https://cdn.example.com/media").Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(post.Text, "<script") {
		t.Errorf("expected script to be stripped, got %q", post.Text)
	}
	if post.Excerpt != "Safe text" {
		t.Errorf("unexpected excerpt: %q", post.Excerpt)
	}
	if post.Image == nil || *post.Image != "https://cdn.example.com/media/blog/cover.png" {
		t.Errorf("unexpected image: %v", post.Image)
	}
	if post.Service == nil || *post.Service != 4 {
		t.Errorf("unexpected service: %v", post.Service)
	}
	if post.ImageURL != nil {
		t.Errorf("expected nil image_url, got %v", *post.ImageURL)
	}
}

func TestGet_NotFound(t *testing.T) {
	_, err := NewPostService(&mockPostRepo{}, "").Get(context.Background(), 1)
	assertAppError(t, err, http.StatusNotFound)
}

func TestExcerpt_Truncates(t *testing.T) {
	long := strings.Repeat("é", excerptLength+10)
	got := excerpt(long)
	if n := len([]rune(got)); n != excerptLength+1 {
		t.Errorf("expected %d runes, got %d", excerptLength+1, n)
	}
}

func TestHandler_GetPost(t *testing.T) {
	repo := &mockPostRepo{
		findByIDFn: func(_ context.Context, id int) (*Post, error) {
			return &Post{ID: id, Title: "Hello"}, nil
		},
	}
	h := NewHandler(NewPostService(repo, ""))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/blog/posts/3", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("3")

	if err := h.GetPost(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["id"] != float64(3) || body["title"] != "Hello" {
		t.Errorf("unexpected body: %v", body)
	}
	if _, ok := body["service"]; !ok {
		t.Error("expected service key to be present")
	}
}

func TestHandler_GetPost_BadID(t *testing.T) {
	h := NewHandler(NewPostService(&mockPostRepo{}, ""))
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("abc")

	assertAppError(t, h.GetPost(c), http.StatusNotFound)
}
