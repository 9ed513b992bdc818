package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/hainu/catalog/internal/apperror"
)

// --- Service Repository ---

// ServiceRepository defines the data access contract for services.
type ServiceRepository interface {
	Count(ctx context.Context, f ServiceFilter) (int, error)
	List(ctx context.Context, f ServiceFilter, limit, offset int) ([]Service, error)
	FindByID(ctx context.Context, id int) (*Service, error)
	Delete(ctx context.Context, id int) error

	// LoadRelations fills the brief relations of every service in one query
	// per relation. When full is set, mentions and features are loaded too.
	LoadRelations(ctx context.Context, services []Service, full bool) error

	// AttachCategory links a category to a service. Already linked is a no-op.
	AttachCategory(ctx context.Context, serviceID, categoryID int) error

	// ListLinks returns id, name and link of every service ordered by id.
	ListLinks(ctx context.Context) ([]ServiceLink, error)
}

type serviceRepository struct {
	db *sql.DB
}

// NewServiceRepository creates a new service repository.
func NewServiceRepository(db *sql.DB) ServiceRepository {
	return &serviceRepository{db: db}
}

const serviceColumns = `s.id, s.name, s.description, s.bio, s.link, s.logo, s.prime_tag_id, s.created_at, s.updated_at`

func scanService(sc interface{ Scan(...any) error }, s *Service) error {
	var logo sql.NullString
	var primeTag sql.NullInt64
	if err := sc.Scan(&s.ID, &s.Name, &s.Description, &s.Bio, &s.Link,
		&logo, &primeTag, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return err
	}
	s.Logo = nullString(logo)
	if primeTag.Valid {
		id := int(primeTag.Int64)
		s.PrimeTagID = &id
	}
	return nil
}

// Count returns the number of services matching f.
func (r *serviceRepository) Count(ctx context.Context, f ServiceFilter) (int, error) {
	where, args := f.whereClause()
	query := `SELECT COUNT(*) FROM services s ` + where

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting services: %w", err)
	}
	return n, nil
}

// List returns one page of services matching f, ordered by id.
func (r *serviceRepository) List(ctx context.Context, f ServiceFilter, limit, offset int) ([]Service, error) {
	where, args := f.whereClause()
	query := `SELECT ` + serviceColumns + ` FROM services s ` + where + ` ORDER BY s.id ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}
	defer rows.Close()

	var services []Service
	for rows.Next() {
		var s Service
		if err := scanService(rows, &s); err != nil {
			return nil, fmt.Errorf("scanning service row: %w", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating service rows: %w", err)
	}
	return services, nil
}

// FindByID retrieves a service without relations.
func (r *serviceRepository) FindByID(ctx context.Context, id int) (*Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services s WHERE s.id = ?`

	s := &Service{}
	err := scanService(r.db.QueryRowContext(ctx, query, id), s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("service not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying service by id: %w", err)
	}
	return s, nil
}

// Delete removes a service. Dependent rows follow DeleteRules through the
// foreign keys.
func (r *serviceRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM services WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting service: %w", err)
	}
	return requireAffected(result, "service not found")
}

// AttachCategory links a category to a service.
func (r *serviceRepository) AttachCategory(ctx context.Context, serviceID, categoryID int) error {
	query := `INSERT IGNORE INTO service_category_links (service_id, category_id) VALUES (?, ?)`
	if _, err := r.db.ExecContext(ctx, query, serviceID, categoryID); err != nil {
		return fmt.Errorf("attaching category: %w", err)
	}
	return nil
}

// ListLinks returns the services the ingestion run walks over.
func (r *serviceRepository) ListLinks(ctx context.Context) ([]ServiceLink, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, link FROM services ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing service links: %w", err)
	}
	defer rows.Close()

	var links []ServiceLink
	for rows.Next() {
		var l ServiceLink
		if err := rows.Scan(&l.ID, &l.Name, &l.Link); err != nil {
			return nil, fmt.Errorf("scanning service link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// LoadRelations fills relation slices in place, avoiding N+1 queries on
// list pages.
func (r *serviceRepository) LoadRelations(ctx context.Context, services []Service, full bool) error {
	if len(services) == 0 {
		return nil
	}

	ids := make([]int, len(services))
	index := make(map[int]*Service, len(services))
	for i := range services {
		ids[i] = services[i].ID
		index[services[i].ID] = &services[i]
	}

	loaders := []func(context.Context, []int, map[int]*Service) error{
		r.loadTags, r.loadCategories, r.loadCountries,
		r.loadCertificates, r.loadScreenshots, r.loadRatings,
	}
	if full {
		loaders = append(loaders, r.loadMentions, r.loadFeatures)
	}
	for _, load := range loaders {
		if err := load(ctx, ids, index); err != nil {
			return err
		}
	}
	return nil
}

func (r *serviceRepository) loadTags(ctx context.Context, ids []int, index map[int]*Service) error {
	in, args := inClause(ids)
	query := fmt.Sprintf(`SELECT l.service_id, t.id, t.name, t.description
	           FROM service_tags t
	           INNER JOIN service_tag_links l ON l.tag_id = t.id
	           WHERE l.service_id IN (%s)
	           ORDER BY t.id ASC`, in)

	return r.eachRow(ctx, "service tags", query, args, func(rows *sql.Rows) error {
		var serviceID int
		var t Tag
		var desc sql.NullString
		if err := rows.Scan(&serviceID, &t.ID, &t.Name, &desc); err != nil {
			return err
		}
		t.Description = nullString(desc)
		if s := index[serviceID]; s != nil {
			s.Tags = append(s.Tags, t)
		}
		return nil
	})
}

func (r *serviceRepository) loadCategories(ctx context.Context, ids []int, index map[int]*Service) error {
	in, args := inClause(ids)
	query := fmt.Sprintf(`SELECT l.service_id, c.id, c.group_id, c.name, c.description, c.image
	           FROM service_categories c
	           INNER JOIN service_category_links l ON l.category_id = c.id
	           WHERE l.service_id IN (%s)
	           ORDER BY c.id ASC`, in)

	return r.eachRow(ctx, "service categories", query, args, func(rows *sql.Rows) error {
		var serviceID int
		var c Category
		if err := scanCategoryWith(rows, &c, &serviceID); err != nil {
			return err
		}
		if s := index[serviceID]; s != nil {
			s.Categories = append(s.Categories, c)
		}
		return nil
	})
}

func (r *serviceRepository) loadCountries(ctx context.Context, ids []int, index map[int]*Service) error {
	in, args := inClause(ids)
	query := fmt.Sprintf(`SELECT l.service_id, c.id, c.name
	           FROM countries c
	           INNER JOIN service_country_links l ON l.country_id = c.id
	           WHERE l.service_id IN (%s)
	           ORDER BY c.id ASC`, in)

	return r.eachRow(ctx, "service countries", query, args, func(rows *sql.Rows) error {
		var serviceID int
		var c Country
		if err := rows.Scan(&serviceID, &c.ID, &c.Name); err != nil {
			return err
		}
		if s := index[serviceID]; s != nil {
			s.Countries = append(s.Countries, c)
		}
		return nil
	})
}

func (r *serviceRepository) loadCertificates(ctx context.Context, ids []int, index map[int]*Service) error {
	in, args := inClause(ids)
	query := fmt.Sprintf(`SELECT l.service_id, c.id, c.specification, c.description, c.image,
	                  o.id, o.name, o.description, o.image
	           FROM certificates c
	           INNER JOIN service_certificate_links l ON l.certificate_id = c.id
	           LEFT JOIN certificate_organisations o ON o.id = c.organisation_id
	           WHERE l.service_id IN (%s)
	           ORDER BY c.id ASC`, in)

	return r.eachRow(ctx, "service certificates", query, args, func(rows *sql.Rows) error {
		var serviceID int
		var c Certificate
		var spec, desc, image sql.NullString
		var orgID sql.NullInt64
		var orgName, orgDesc, orgImage sql.NullString
		if err := rows.Scan(&serviceID, &c.ID, &spec, &desc, &image,
			&orgID, &orgName, &orgDesc, &orgImage); err != nil {
			return err
		}
		c.Specification = nullString(spec)
		c.Description = nullString(desc)
		c.Image = nullString(image)
		if orgID.Valid {
			c.Organisation = &CertificateOrganisation{
				ID:          int(orgID.Int64),
				Name:        orgName.String,
				Description: orgDesc.String,
				Image:       nullString(orgImage),
			}
		}
		if s := index[serviceID]; s != nil {
			s.Certificates = append(s.Certificates, c)
		}
		return nil
	})
}

func (r *serviceRepository) loadScreenshots(ctx context.Context, ids []int, index map[int]*Service) error {
	in, args := inClause(ids)
	query := fmt.Sprintf(`SELECT id, service_id, alt_text, image
	           FROM service_screenshots
	           WHERE service_id IN (%s)
	           ORDER BY id ASC`, in)

	return r.eachRow(ctx, "service screenshots", query, args, func(rows *sql.Rows) error {
		var sc Screenshot
		var image sql.NullString
		if err := rows.Scan(&sc.ID, &sc.ServiceID, &sc.AltText, &image); err != nil {
			return err
		}
		sc.Image = nullString(image)
		if s := index[sc.ServiceID]; s != nil {
			s.Screenshots = append(s.Screenshots, sc)
		}
		return nil
	})
}

func (r *serviceRepository) loadRatings(ctx context.Context, ids []int, index map[int]*Service) error {
	in, args := inClause(ids)
	query := fmt.Sprintf(`SELECT id, service_id, entity, score
	           FROM service_ratings
	           WHERE service_id IN (%s)
	           ORDER BY id ASC`, in)

	return r.eachRow(ctx, "service ratings", query, args, func(rows *sql.Rows) error {
		var rt Rating
		if err := rows.Scan(&rt.ID, &rt.ServiceID, &rt.Entity, &rt.Score); err != nil {
			return err
		}
		if s := index[rt.ServiceID]; s != nil {
			s.Ratings = append(s.Ratings, rt)
		}
		return nil
	})
}

func (r *serviceRepository) loadMentions(ctx context.Context, ids []int, index map[int]*Service) error {
	in, args := inClause(ids)
	query := fmt.Sprintf(`SELECT id, service_id, name, text, link
	           FROM service_mentions
	           WHERE service_id IN (%s)
	           ORDER BY id ASC`, in)

	return r.eachRow(ctx, "service mentions", query, args, func(rows *sql.Rows) error {
		var m Mention
		if err := rows.Scan(&m.ID, &m.ServiceID, &m.Name, &m.Text, &m.Link); err != nil {
			return err
		}
		if s := index[m.ServiceID]; s != nil {
			s.Mentions = append(s.Mentions, m)
		}
		return nil
	})
}

func (r *serviceRepository) loadFeatures(ctx context.Context, ids []int, index map[int]*Service) error {
	in, args := inClause(ids)
	query := fmt.Sprintf(`SELECT l.service_id, f.id, f.icon, f.title, f.description
	           FROM service_features f
	           INNER JOIN service_feature_links l ON l.feature_id = f.id
	           WHERE l.service_id IN (%s)
	           ORDER BY f.id ASC`, in)

	return r.eachRow(ctx, "service features", query, args, func(rows *sql.Rows) error {
		var serviceID int
		var f Feature
		if err := rows.Scan(&serviceID, &f.ID, &f.Icon, &f.Title, &f.Description); err != nil {
			return err
		}
		if s := index[serviceID]; s != nil {
			s.Features = append(s.Features, f)
		}
		return nil
	})
}

// eachRow runs query and hands every row to scan, wrapping errors with what.
func (r *serviceRepository) eachRow(ctx context.Context, what, query string, args []any, scan func(*sql.Rows) error) error {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("loading %s: %w", what, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("scanning %s row: %w", what, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating %s rows: %w", what, err)
	}
	return nil
}

// --- helpers ---

// inClause builds a parameterized IN list for ids.
func inClause(ids []int) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func requireAffected(result sql.Result, notFound string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NewNotFound(notFound)
	}
	return nil
}

// isDuplicateEntry reports whether err is a unique key violation
// (ER_DUP_ENTRY).
func isDuplicateEntry(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1062
}
