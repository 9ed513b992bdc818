package blog

import (
	"context"

	"github.com/hainu/catalog/internal/media"
	"github.com/hainu/catalog/internal/pagination"
	"github.com/hainu/catalog/internal/sanitize"
)

// PostService defines the business logic contract for blog posts.
type PostService interface {
	List(ctx context.Context, p pagination.Params) (pagination.Page, []PostDTO, error)
	Get(ctx context.Context, id int) (*PostDTO, error)
}

type postService struct {
	repo  PostRepository
	media media.Resolver
}

// NewPostService creates a post service resolving images under mediaURL.
func NewPostService(repo PostRepository, mediaURL string) PostService {
	return &postService{repo: repo, media: media.NewResolver(mediaURL)}
}

func (s *postService) List(ctx context.Context, p pagination.Params) (pagination.Page, []PostDTO, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return pagination.Page{}, nil, err
	}
	page, err := pagination.Resolve(p, total)
	if err != nil {
		return pagination.Page{}, nil, err
	}
	if total == 0 {
		return page, nil, nil
	}

	posts, err := s.repo.List(ctx, page.Limit(), page.Offset())
	if err != nil {
		return pagination.Page{}, nil, err
	}
	dtos := make([]PostDTO, 0, len(posts))
	for i := range posts {
		dtos = append(dtos, s.render(&posts[i]))
	}
	return page, dtos, nil
}

func (s *postService) Get(ctx context.Context, id int) (*PostDTO, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := s.render(post)
	return &dto, nil
}

// render sanitizes the body and derives a plain-text excerpt.
func (s *postService) render(p *Post) PostDTO {
	return PostDTO{
		ID:        p.ID,
		Service:   p.ServiceID,
		Title:     p.Title,
		Text:      sanitize.HTML(p.Text),
		Excerpt:   excerpt(sanitize.Text(p.Text)),
		Image:     s.media.URL(p.Image),
		ImageURL:  p.ImageURL,
		CreatedAt: p.CreatedAt,
	}
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLength {
		return text
	}
	return string(runes[:excerptLength]) + "…"
}
