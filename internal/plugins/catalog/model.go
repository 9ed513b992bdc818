// Package catalog implements the service directory: services and their
// tags, categories, countries, certificates, features, screenshots,
// mentions, third-party ratings and rating reviews.
//
// The public API is read-only. Rows are written by the admin surface and by
// the rating ingestion run (internal/ingest). Domain structs here carry no
// JSON tags; the wire shapes live in projection.go.
package catalog

import (
	"fmt"
	"time"

	"github.com/hainu/catalog/internal/apperror"
)

// --- Domain Models ---

// Service is a cataloged company or product, the central record of the
// directory. Relation slices are filled by ServiceRepository.LoadRelations.
type Service struct {
	ID          int
	Name        string
	Description string
	Bio         string
	Link        string
	Logo        *string
	PrimeTagID  *int
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Tags         []Tag
	Categories   []Category
	Countries    []Country
	Certificates []Certificate
	Screenshots  []Screenshot
	Ratings      []Rating

	// Only loaded for single-service retrieval.
	Mentions []Mention
	Features []Feature
}

// Tag is a free-form label attached to services. ServiceCount is only
// populated by top-level tag queries.
type Tag struct {
	ID           int
	Name         string
	Description  *string
	ServiceCount int
}

// CategoryGroup groups categories for navigation.
type CategoryGroup struct {
	ID          int
	Name        string
	Description string
}

// Category is a browsable grouping of services. ServiceCount is only
// populated by top-level category queries.
type Category struct {
	ID           int
	GroupID      *int
	Name         string
	Description  *string
	Image        *string
	ServiceCount int
}

type Country struct {
	ID   int
	Name string
}

// CertificateOrganisation issues certificates (e.g. ISO).
type CertificateOrganisation struct {
	ID          int
	Name        string
	Description string
	Image       *string
}

// Certificate is a certification a service holds. Organisation is nil when
// the certificate row has no issuing organisation.
type Certificate struct {
	ID            int
	Organisation  *CertificateOrganisation
	Specification *string
	Description   *string
	Image         *string
}

type Screenshot struct {
	ID        int
	ServiceID int
	AltText   string
	Image     *string
}

// Mention is press coverage or an external write-up about a service.
type Mention struct {
	ID        int
	ServiceID int
	Name      string
	Text      string
	Link      string
}

type Feature struct {
	ID          int
	Icon        string
	Title       string
	Description string
}

// RatingEntity identifies the external source of a rating.
type RatingEntity string

// RatingEntityTrustpilot is currently the only rating source.
const RatingEntityTrustpilot RatingEntity = "trustpilot"

// Valid reports whether e is a known rating source.
func (e RatingEntity) Valid() bool {
	return e == RatingEntityTrustpilot
}

// Rating is the aggregate score a service has on one external source.
type Rating struct {
	ID        int
	ServiceID int
	Entity    RatingEntity
	Score     float64
}

// Review is a single review scraped from a rating source. Rating is filled
// by review queries so the review can be rendered with its owning rating.
type Review struct {
	ID       int
	RatingID int
	Rating   *Rating
	Title    string
	Username string
	Text     string
	Score    float64
}

// ServiceLink is the minimal projection the ingestion run iterates over.
type ServiceLink struct {
	ID   int
	Name string
	Link string
}

// --- Scores ---

const (
	MinScore = 0.0
	MaxScore = 5.0
)

// ValidateScore rejects scores outside [0, 5], and NaN.
func ValidateScore(score float64) error {
	if !(score >= MinScore && score <= MaxScore) {
		return apperror.NewValidation(fmt.Sprintf("score %.2f must be between %.0f and %.0f", score, MinScore, MaxScore))
	}
	return nil
}

// --- Referential rules ---

// DeleteAction is what happens to a dependent row when its parent is deleted.
type DeleteAction string

const (
	Cascade DeleteAction = "CASCADE"
	SetNull DeleteAction = "SET NULL"
)

// DeleteRule declares how one foreign key behaves on parent deletion.
type DeleteRule struct {
	// Table and Column hold the foreign key.
	Table  string
	Column string

	// Parent is the referenced table.
	Parent string

	Action DeleteAction
}

// DeleteRules lists every foreign key in the catalog schema together with
// its ON DELETE behavior. The migrations implement exactly these rules;
// database.TestMigrations_DeleteRules keeps the two in sync.
var DeleteRules = []DeleteRule{
	{Table: "services", Column: "prime_tag_id", Parent: "service_tags", Action: SetNull},
	{Table: "service_categories", Column: "group_id", Parent: "category_groups", Action: Cascade},
	{Table: "certificates", Column: "organisation_id", Parent: "certificate_organisations", Action: Cascade},
	{Table: "service_tag_links", Column: "service_id", Parent: "services", Action: Cascade},
	{Table: "service_tag_links", Column: "tag_id", Parent: "service_tags", Action: Cascade},
	{Table: "service_category_links", Column: "service_id", Parent: "services", Action: Cascade},
	{Table: "service_category_links", Column: "category_id", Parent: "service_categories", Action: Cascade},
	{Table: "service_country_links", Column: "service_id", Parent: "services", Action: Cascade},
	{Table: "service_country_links", Column: "country_id", Parent: "countries", Action: Cascade},
	{Table: "service_feature_links", Column: "service_id", Parent: "services", Action: Cascade},
	{Table: "service_feature_links", Column: "feature_id", Parent: "service_features", Action: Cascade},
	{Table: "service_certificate_links", Column: "service_id", Parent: "services", Action: Cascade},
	{Table: "service_certificate_links", Column: "certificate_id", Parent: "certificates", Action: Cascade},
	{Table: "service_screenshots", Column: "service_id", Parent: "services", Action: Cascade},
	{Table: "service_mentions", Column: "service_id", Parent: "services", Action: Cascade},
	{Table: "service_ratings", Column: "service_id", Parent: "services", Action: Cascade},
	{Table: "service_rating_reviews", Column: "service_rating_id", Parent: "service_ratings", Action: Cascade},
	{Table: "blog_posts", Column: "service_id", Parent: "services", Action: SetNull},
}
