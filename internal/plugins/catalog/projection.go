package catalog

import (
	"time"

	"github.com/hainu/catalog/internal/media"
)

// Action names the kind of request a projection is rendered for.
type Action string

const (
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
)

// ProjectionFunc renders a loaded service for one action.
type ProjectionFunc func(p Projector, s *Service) any

// serviceProjections selects the service shape per action. Actions missing
// from the table render the brief shape.
var serviceProjections = map[Action]ProjectionFunc{
	ActionList:     func(p Projector, s *Service) any { return p.ServiceBrief(s) },
	ActionRetrieve: func(p Projector, s *Service) any { return p.ServiceFull(s) },
}

// Projector turns domain models into their JSON wire shapes, resolving
// stored media paths into public URLs.
type Projector struct {
	media media.Resolver
}

// NewProjector creates a projector that prefixes media paths with mediaURL.
func NewProjector(mediaURL string) Projector {
	return Projector{media: media.NewResolver(mediaURL)}
}

// Service renders s in the shape registered for action.
func (p Projector) Service(action Action, s *Service) any {
	fn, ok := serviceProjections[action]
	if !ok {
		fn = serviceProjections[ActionList]
	}
	return fn(p, s)
}

// --- Wire shapes ---

type TagDTO struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// TagCountDTO is the top-level tag shape with its service count.
type TagCountDTO struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Count       int     `json:"count"`
}

type CategoryDTO struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
}

// CategoryCountDTO is the top-level category shape with its service count.
type CategoryCountDTO struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Count       int     `json:"count"`
	Image       *string `json:"image"`
}

type CountryDTO struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type OrganisationDTO struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Image       *string `json:"image"`
}

type CertificateDTO struct {
	ID            int              `json:"id"`
	Organisation  *OrganisationDTO `json:"organisation_entity"`
	Specification *string          `json:"specification"`
	Description   *string          `json:"description"`
	Image         *string          `json:"image"`
}

type ScreenshotDTO struct {
	AltText string  `json:"alt_text"`
	Image   *string `json:"image"`
	Service int     `json:"service"`
}

type RatingDTO struct {
	ID      int          `json:"id"`
	Service int          `json:"service"`
	Entity  RatingEntity `json:"entity"`
	Score   float64      `json:"score"`
}

type MentionDTO struct {
	ID      int    `json:"id"`
	Service int    `json:"service"`
	Name    string `json:"name"`
	Text    string `json:"text"`
	Link    string `json:"link"`
}

type FeatureDTO struct {
	ID          int    `json:"id"`
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ServiceBriefDTO is the list shape of a service.
type ServiceBriefDTO struct {
	ID           int              `json:"id"`
	Name         string           `json:"name"`
	Bio          string           `json:"bio"`
	Description  string           `json:"description"`
	Link         string           `json:"link"`
	Tags         []TagDTO         `json:"tags"`
	Categories   []CategoryDTO    `json:"categories"`
	Countries    []CountryDTO     `json:"countries"`
	Certificates []CertificateDTO `json:"certificates"`
	Logo         *string          `json:"logo"`
	Screenshots  []ScreenshotDTO  `json:"screenshots"`
	Ratings      []RatingDTO      `json:"ratings"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// ServiceFullDTO adds mentions and features for single-service retrieval.
type ServiceFullDTO struct {
	ServiceBriefDTO
	Mentions []MentionDTO `json:"mentions"`
	Features []FeatureDTO `json:"features"`
}

// ReviewDTO embeds the owning rating under service_rating.
type ReviewDTO struct {
	ID            int        `json:"id"`
	ServiceRating *RatingDTO `json:"service_rating"`
	Username      string     `json:"username"`
	Title         string     `json:"title"`
	Text          string     `json:"text"`
	Score         float64    `json:"score"`
}

// --- Projections ---

// ServiceBrief renders the list shape. Relation slices are never nil.
func (p Projector) ServiceBrief(s *Service) ServiceBriefDTO {
	dto := ServiceBriefDTO{
		ID:           s.ID,
		Name:         s.Name,
		Bio:          s.Bio,
		Description:  s.Description,
		Link:         s.Link,
		Logo:         p.media.URL(s.Logo),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		Tags:         make([]TagDTO, 0, len(s.Tags)),
		Categories:   make([]CategoryDTO, 0, len(s.Categories)),
		Countries:    make([]CountryDTO, 0, len(s.Countries)),
		Certificates: make([]CertificateDTO, 0, len(s.Certificates)),
		Screenshots:  make([]ScreenshotDTO, 0, len(s.Screenshots)),
		Ratings:      make([]RatingDTO, 0, len(s.Ratings)),
	}
	for _, t := range s.Tags {
		dto.Tags = append(dto.Tags, TagDTO{ID: t.ID, Name: t.Name, Description: t.Description})
	}
	for i := range s.Categories {
		dto.Categories = append(dto.Categories, p.Category(&s.Categories[i]))
	}
	for _, c := range s.Countries {
		dto.Countries = append(dto.Countries, CountryDTO{ID: c.ID, Name: c.Name})
	}
	for i := range s.Certificates {
		dto.Certificates = append(dto.Certificates, p.certificate(&s.Certificates[i]))
	}
	for _, sc := range s.Screenshots {
		dto.Screenshots = append(dto.Screenshots, ScreenshotDTO{
			AltText: sc.AltText,
			Image:   p.media.URL(sc.Image),
			Service: sc.ServiceID,
		})
	}
	for i := range s.Ratings {
		dto.Ratings = append(dto.Ratings, rating(&s.Ratings[i]))
	}
	return dto
}

// ServiceFull renders the retrieve shape.
func (p Projector) ServiceFull(s *Service) ServiceFullDTO {
	dto := ServiceFullDTO{
		ServiceBriefDTO: p.ServiceBrief(s),
		Mentions:        make([]MentionDTO, 0, len(s.Mentions)),
		Features:        make([]FeatureDTO, 0, len(s.Features)),
	}
	for _, m := range s.Mentions {
		dto.Mentions = append(dto.Mentions, MentionDTO{
			ID: m.ID, Service: m.ServiceID, Name: m.Name, Text: m.Text, Link: m.Link,
		})
	}
	for _, f := range s.Features {
		dto.Features = append(dto.Features, FeatureDTO{
			ID: f.ID, Icon: f.Icon, Title: f.Title, Description: f.Description,
		})
	}
	return dto
}

// Category renders the nested category shape.
func (p Projector) Category(c *Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Image:       p.media.URL(c.Image),
	}
}

// CategoryCount renders the top-level category shape.
func (p Projector) CategoryCount(c *Category) CategoryCountDTO {
	return CategoryCountDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Count:       c.ServiceCount,
		Image:       p.media.URL(c.Image),
	}
}

// TagCount renders the top-level tag shape.
func (p Projector) TagCount(t *Tag) TagCountDTO {
	return TagCountDTO{ID: t.ID, Name: t.Name, Description: t.Description, Count: t.ServiceCount}
}

// Review renders a review with its owning rating.
func (p Projector) Review(r *Review) ReviewDTO {
	dto := ReviewDTO{
		ID:       r.ID,
		Username: r.Username,
		Title:    r.Title,
		Text:     r.Text,
		Score:    r.Score,
	}
	if r.Rating != nil {
		rd := rating(r.Rating)
		dto.ServiceRating = &rd
	}
	return dto
}

func (p Projector) certificate(c *Certificate) CertificateDTO {
	dto := CertificateDTO{
		ID:            c.ID,
		Specification: c.Specification,
		Description:   c.Description,
		Image:         p.media.URL(c.Image),
	}
	if o := c.Organisation; o != nil {
		dto.Organisation = &OrganisationDTO{
			ID:          o.ID,
			Name:        o.Name,
			Description: o.Description,
			Image:       p.media.URL(o.Image),
		}
	}
	return dto
}

func rating(r *Rating) RatingDTO {
	return RatingDTO{ID: r.ID, Service: r.ServiceID, Entity: r.Entity, Score: r.Score}
}
