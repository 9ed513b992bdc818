package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hainu/catalog/internal/apperror"
)

// --- Tag Repository ---

// TagRepository defines the data access contract for service tags.
type TagRepository interface {
	Count(ctx context.Context, f TagFilter) (int, error)

	// List returns tags ordered by name, each with its service count.
	List(ctx context.Context, f TagFilter, limit, offset int) ([]Tag, error)
	FindByID(ctx context.Context, id int) (*Tag, error)
	Delete(ctx context.Context, id int) error
}

type tagRepository struct {
	db *sql.DB
}

// NewTagRepository creates a new tag repository.
func NewTagRepository(db *sql.DB) TagRepository {
	return &tagRepository{db: db}
}

const tagColumns = `t.id, t.name, t.description,
	(SELECT COUNT(*) FROM service_tag_links c WHERE c.tag_id = t.id)`

func scanTag(sc interface{ Scan(...any) error }, t *Tag) error {
	var desc sql.NullString
	if err := sc.Scan(&t.ID, &t.Name, &desc, &t.ServiceCount); err != nil {
		return err
	}
	t.Description = nullString(desc)
	return nil
}

func (r *tagRepository) Count(ctx context.Context, f TagFilter) (int, error) {
	where, args := f.whereClause()
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM service_tags t `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting tags: %w", err)
	}
	return n, nil
}

func (r *tagRepository) List(ctx context.Context, f TagFilter, limit, offset int) ([]Tag, error) {
	where, args := f.whereClause()
	query := `SELECT ` + tagColumns + ` FROM service_tags t ` + where + ` ORDER BY t.name ASC, t.id ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := scanTag(rows, &t); err != nil {
			return nil, fmt.Errorf("scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tag rows: %w", err)
	}
	return tags, nil
}

func (r *tagRepository) FindByID(ctx context.Context, id int) (*Tag, error) {
	t := &Tag{}
	err := scanTag(r.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM service_tags t WHERE t.id = ?`, id), t)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("tag not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying tag by id: %w", err)
	}
	return t, nil
}

// Delete removes a tag. Services using it as prime tag keep their row with
// prime_tag_id cleared.
func (r *tagRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM service_tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting tag: %w", err)
	}
	return requireAffected(result, "tag not found")
}

// --- Category Repository ---

// CategoryRepository defines the data access contract for service categories.
type CategoryRepository interface {
	Count(ctx context.Context) (int, error)

	// List returns categories ordered by name, each with its service count.
	List(ctx context.Context, limit, offset int) ([]Category, error)
	FindByID(ctx context.Context, id int) (*Category, error)

	// GetOrCreate finds a category by exact name and description, creating
	// it when missing. The bool reports whether a row was created.
	GetOrCreate(ctx context.Context, name string, description *string) (*Category, bool, error)
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

const categoryColumns = `c.group_id, c.name, c.description, c.image,
	(SELECT COUNT(*) FROM service_category_links l WHERE l.category_id = c.id)`

// scanCategoryWith scans a category row whose leading column is a relation
// key (service id) stored into key.
func scanCategoryWith(sc interface{ Scan(...any) error }, c *Category, key *int) error {
	var groupID sql.NullInt64
	var desc, image sql.NullString
	if err := sc.Scan(key, &c.ID, &groupID, &c.Name, &desc, &image); err != nil {
		return err
	}
	if groupID.Valid {
		id := int(groupID.Int64)
		c.GroupID = &id
	}
	c.Description = nullString(desc)
	c.Image = nullString(image)
	return nil
}

func scanCategory(sc interface{ Scan(...any) error }, c *Category) error {
	var groupID sql.NullInt64
	var desc, image sql.NullString
	if err := sc.Scan(&c.ID, &groupID, &c.Name, &desc, &image, &c.ServiceCount); err != nil {
		return err
	}
	if groupID.Valid {
		id := int(groupID.Int64)
		c.GroupID = &id
	}
	c.Description = nullString(desc)
	c.Image = nullString(image)
	return nil
}

func (r *categoryRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM service_categories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting categories: %w", err)
	}
	return n, nil
}

func (r *categoryRepository) List(ctx context.Context, limit, offset int) ([]Category, error) {
	query := `SELECT c.id, ` + categoryColumns + ` FROM service_categories c ORDER BY c.name ASC, c.id ASC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := scanCategory(rows, &c); err != nil {
			return nil, fmt.Errorf("scanning category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category rows: %w", err)
	}
	return categories, nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id int) (*Category, error) {
	c := &Category{}
	query := `SELECT c.id, ` + categoryColumns + ` FROM service_categories c WHERE c.id = ?`
	err := scanCategory(r.db.QueryRowContext(ctx, query, id), c)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("category not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying category by id: %w", err)
	}
	return c, nil
}

// GetOrCreate matches description with <=> so a NULL description matches
// a NULL column.
func (r *categoryRepository) GetOrCreate(ctx context.Context, name string, description *string) (*Category, bool, error) {
	query := `SELECT c.id, ` + categoryColumns + ` FROM service_categories c
	          WHERE c.name = ? AND c.description <=> ?
	          ORDER BY c.id ASC LIMIT 1`

	c := &Category{}
	err := scanCategory(r.db.QueryRowContext(ctx, query, name, description), c)
	if err == nil {
		return c, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("looking up category: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO service_categories (name, description) VALUES (?, ?)`, name, description)
	if err != nil {
		return nil, false, fmt.Errorf("inserting category: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("getting category id: %w", err)
	}
	return &Category{ID: int(id), Name: name, Description: description}, true, nil
}
