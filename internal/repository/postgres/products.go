package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/catalogsync/internal/domain"
	"github.com/jafarshop/catalogsync/pkg/errors"
)

type masterProductRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMasterProductRepository creates a new master product repository
func NewMasterProductRepository(db *sql.DB, logger *zap.Logger) *masterProductRepository {
	return &masterProductRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts or replaces the product keyed by (organization_id,
// master_sku). The unique constraint makes concurrent writes of the same
// key converge to one row, last writer wins.
func (r *masterProductRepository) Upsert(ctx context.Context, product *domain.MasterProduct) error {
	query := `
		INSERT INTO master_products (
			id, organization_id, master_sku, name, description, weight,
			dimensions, images, category, brand, pricing, seo_titles, variants,
			status, data_quality_score, validation_errors, validation_warnings,
			import_source, imported_at, import_batch_id, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		ON CONFLICT (organization_id, master_sku) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			weight = EXCLUDED.weight,
			dimensions = EXCLUDED.dimensions,
			images = EXCLUDED.images,
			category = EXCLUDED.category,
			brand = EXCLUDED.brand,
			pricing = EXCLUDED.pricing,
			seo_titles = EXCLUDED.seo_titles,
			variants = EXCLUDED.variants,
			status = EXCLUDED.status,
			data_quality_score = EXCLUDED.data_quality_score,
			validation_errors = EXCLUDED.validation_errors,
			validation_warnings = EXCLUDED.validation_warnings,
			import_source = EXCLUDED.import_source,
			imported_at = EXCLUDED.imported_at,
			import_batch_id = EXCLUDED.import_batch_id,
			updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	dimensions, err := json.Marshal(product.Dimensions)
	if err != nil {
		return err
	}
	images, err := json.Marshal(product.Images)
	if err != nil {
		return err
	}
	pricing, err := json.Marshal(product.Pricing)
	if err != nil {
		return err
	}
	seoTitles, err := json.Marshal(product.SEOTitles)
	if err != nil {
		return err
	}
	variants, err := json.Marshal(product.Variants)
	if err != nil {
		return err
	}
	validationErrors, err := json.Marshal(product.ValidationErrors)
	if err != nil {
		return err
	}
	validationWarnings, err := json.Marshal(product.ValidationWarnings)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		product.ID,
		product.OrganizationID,
		product.MasterSKU,
		product.Name,
		product.Description,
		product.Weight,
		dimensions,
		images,
		product.Category,
		product.Brand,
		pricing,
		seoTitles,
		variants,
		product.Status,
		product.DataQualityScore,
		validationErrors,
		validationWarnings,
		product.ImportSource,
		product.ImportedAt,
		product.ImportBatchID,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to upsert master product",
			zap.String("master_sku", product.MasterSKU),
			zap.Error(err),
		)
		return &errors.ErrPersistence{Operation: "upsert", Key: product.MasterSKU, Err: err}
	}

	return nil
}

func (r *masterProductRepository) GetByMasterSKU(ctx context.Context, organizationID, masterSKU string) (*domain.MasterProduct, error) {
	query := selectProductColumns + `
		FROM master_products
		WHERE organization_id = $1 AND master_sku = $2
	`

	row := r.db.QueryRowContext(ctx, query, organizationID, masterSKU)
	product, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "master product", ID: masterSKU}
	}
	if err != nil {
		r.logger.Error("Failed to get master product", zap.Error(err))
		return nil, err
	}
	return product, nil
}

func (r *masterProductRepository) List(ctx context.Context, organizationID string, limit, offset int) ([]*domain.MasterProduct, error) {
	query := selectProductColumns + `
		FROM master_products
		WHERE organization_id = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, organizationID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list master products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var products []*domain.MasterProduct
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			r.logger.Warn("Skipping unscannable master product row", zap.Error(err))
			continue
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (r *masterProductRepository) Count(ctx context.Context, organizationID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM master_products WHERE organization_id = $1`,
		organizationID,
	).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count master products", zap.Error(err))
		return 0, err
	}
	return count, nil
}

// RecentImageURLs returns distinct image URLs from the most recently
// imported products, capped for the reachability probe.
func (r *masterProductRepository) RecentImageURLs(ctx context.Context, organizationID string, cap int) ([]string, error) {
	query := `
		SELECT images
		FROM master_products
		WHERE organization_id = $1
		ORDER BY imported_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, organizationID, cap)
	if err != nil {
		r.logger.Error("Failed to read recent product images", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var urls []string
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			continue
		}
		var images []string
		if err := json.Unmarshal(raw, &images); err != nil {
			continue
		}
		for _, url := range images {
			if url == "" || seen[url] {
				continue
			}
			seen[url] = true
			urls = append(urls, url)
			if len(urls) >= cap {
				return urls, nil
			}
		}
	}
	return urls, rows.Err()
}

const selectProductColumns = `
		SELECT id, organization_id, master_sku, name, description, weight,
			dimensions, images, category, brand, pricing, seo_titles, variants,
			status, data_quality_score, validation_errors, validation_warnings,
			import_source, imported_at, import_batch_id, created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.MasterProduct, error) {
	var product domain.MasterProduct
	var dimensions, images, pricing, seoTitles, variants, validationErrors, validationWarnings []byte

	err := row.Scan(
		&product.ID,
		&product.OrganizationID,
		&product.MasterSKU,
		&product.Name,
		&product.Description,
		&product.Weight,
		&dimensions,
		&images,
		&product.Category,
		&product.Brand,
		&pricing,
		&seoTitles,
		&variants,
		&product.Status,
		&product.DataQualityScore,
		&validationErrors,
		&validationWarnings,
		&product.ImportSource,
		&product.ImportedAt,
		&product.ImportBatchID,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(dimensions, &product.Dimensions); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(images, &product.Images); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(pricing, &product.Pricing); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(seoTitles, &product.SEOTitles); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(variants, &product.Variants); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(validationErrors, &product.ValidationErrors); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(validationWarnings, &product.ValidationWarnings); err != nil {
		return nil, err
	}
	return &product, nil
}
