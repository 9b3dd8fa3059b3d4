package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/catalogsync/internal/domain"
	"github.com/jafarshop/catalogsync/internal/platform"
	"github.com/jafarshop/catalogsync/internal/pricing"
	"github.com/jafarshop/catalogsync/internal/repository"
	"github.com/jafarshop/catalogsync/internal/seo"
	"github.com/jafarshop/catalogsync/pkg/errors"
)

// memStore is an in-memory stand-in for the postgres repositories, enforcing
// the same business-key uniqueness the real schema does.
type memStore struct {
	mu       sync.Mutex
	products map[string]*domain.MasterProduct // org + "|" + masterSKU
	mappings map[string]*domain.PlatformMapping
	raw      map[string][]json.RawMessage // org + "|" + platform
	runs     []*domain.SyncRun

	failReadsFor map[string]bool
	failUpserts  bool
}

func newMemStore() *memStore {
	return &memStore{
		products:     make(map[string]*domain.MasterProduct),
		mappings:     make(map[string]*domain.PlatformMapping),
		raw:          make(map[string][]json.RawMessage),
		failReadsFor: make(map[string]bool),
	}
}

func (s *memStore) repositories() *repository.Repositories {
	return &repository.Repositories{
		MasterProduct:   (*memProducts)(s),
		PlatformMapping: (*memMappings)(s),
		RawBatch:        (*memRawBatches)(s),
		SyncRun:         (*memSyncRuns)(s),
	}
}

func (s *memStore) addRaw(org, platformID string, records ...string) {
	key := org + "|" + platformID
	for _, r := range records {
		s.raw[key] = append(s.raw[key], json.RawMessage(r))
	}
}

type memProducts memStore

func (s *memProducts) Upsert(_ context.Context, product *domain.MasterProduct) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpserts {
		return &errors.ErrPersistence{Operation: "upsert", Key: product.MasterSKU, Err: fmt.Errorf("store down")}
	}
	key := product.OrganizationID + "|" + product.MasterSKU
	if existing, ok := s.products[key]; ok {
		product.ID = existing.ID
	} else if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	cp := *product
	s.products[key] = &cp
	return nil
}

func (s *memProducts) GetByMasterSKU(_ context.Context, org, sku string) (*domain.MasterProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[org+"|"+sku]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "master_product", ID: sku}
	}
	cp := *p
	return &cp, nil
}

func (s *memProducts) List(_ context.Context, org string, limit, offset int) ([]*domain.MasterProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.MasterProduct
	for _, p := range s.products {
		if p.OrganizationID == org {
			cp := *p
			out = append(out, &cp)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *memProducts) Count(_ context.Context, org string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.products {
		if p.OrganizationID == org {
			n++
		}
	}
	return n, nil
}

func (s *memProducts) RecentImageURLs(_ context.Context, org string, cap int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, p := range s.products {
		if p.OrganizationID != org {
			continue
		}
		for _, u := range p.Images {
			if !seen[u] && len(out) < cap {
				seen[u] = true
				out = append(out, u)
			}
		}
	}
	return out, nil
}

type memMappings memStore

func mappingKey(org, platformID, productID string) string {
	return org + "|" + platformID + "|" + productID
}

func (s *memMappings) Upsert(_ context.Context, m *domain.PlatformMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := mappingKey(m.OrganizationID, m.Platform, m.PlatformProductID)
	if existing, ok := s.mappings[key]; ok {
		m.ID = existing.ID
	} else if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	cp := *m
	s.mappings[key] = &cp
	return nil
}

func (s *memMappings) GetByBusinessKey(_ context.Context, org, platformID, productID string) (*domain.PlatformMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mappings[mappingKey(org, platformID, productID)]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "platform_mapping", ID: productID}
	}
	cp := *m
	return &cp, nil
}

func (s *memMappings) ListByOrganization(_ context.Context, org string) ([]*domain.PlatformMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.PlatformMapping
	for _, m := range s.mappings {
		if m.OrganizationID == org {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memRawBatches memStore

func (s *memRawBatches) Append(_ context.Context, batch *domain.RawBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := batch.OrganizationID + "|" + batch.Platform
	for _, r := range batch.Records {
		s.raw[key] = append(s.raw[key], json.RawMessage(r))
	}
	return nil
}

func (s *memRawBatches) CountRecords(_ context.Context, org, platformID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReadsFor[platformID] {
		return 0, &errors.ErrFatalIO{Resource: "raw_records", Err: fmt.Errorf("store unreachable")}
	}
	return len(s.raw[org+"|"+platformID]), nil
}

func (s *memRawBatches) ReadRecords(_ context.Context, org, platformID string, limit, offset int) ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReadsFor[platformID] {
		return nil, &errors.ErrFatalIO{Resource: "raw_records", Err: fmt.Errorf("store unreachable")}
	}
	all := s.raw[org+"|"+platformID]
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *memRawBatches) SampleRecords(_ context.Context, org, platformID string, n int) ([]json.RawMessage, error) {
	return s.ReadRecords(context.Background(), org, platformID, n, 0)
}

type memSyncRuns memStore

func (s *memSyncRuns) Create(_ context.Context, run *domain.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	cp := *run
	s.runs = append(s.runs, &cp)
	return nil
}

func (s *memSyncRuns) Finish(_ context.Context, id uuid.UUID, run *domain.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.runs {
		if r.ID == id {
			cp := *run
			cp.ID = id
			s.runs[i] = &cp
			return nil
		}
	}
	return &errors.ErrNotFound{Resource: "sync_run", ID: id.String()}
}

func (s *memSyncRuns) ListByBatchID(_ context.Context, batchID string) ([]*domain.SyncRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.SyncRun
	for _, r := range s.runs {
		if r.BatchID == batchID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func newTestPopulator(store *memStore) *Populator {
	logger := zap.NewNop()
	return NewPopulator(
		store.repositories(),
		platform.NewRegistry(logger),
		pricing.NewEngine(logger),
		seo.NewGenerator(logger),
		logger,
	)
}

func shopeeRecord(id int, name string, price float64) string {
	return fmt.Sprintf(`{"item_id": %d, "item_name": %q, "price": %f, "weight": 500,
		"image": {"image_url_list": ["https://cf.shopee.co.id/file/%d.jpg"]},
		"description": "Deskripsi produk yang cukup panjang untuk lolos validasi."}`, id, name, price, id)
}

func tiktokRecord(id, name string, price float64) string {
	return fmt.Sprintf(`{"product_id": %q, "product_name": %q, "price": %f, "package_weight": 400,
		"images": [{"url": "https://p16-oec.tiktokcdn.com/img/%s.webp"}],
		"description": "Deskripsi produk yang cukup panjang untuk lolos validasi."}`, id, name, price, id)
}

func defaultConfig(org string) PopulateConfig {
	return PopulateConfig{
		OrganizationID: org,
		BatchSize:      2,
		SkipExisting:   true,
		Platforms:      []string{domain.PlatformShopee, domain.PlatformTikTok},
	}
}

func TestPopulateFromImportsHappyPath(t *testing.T) {
	store := newMemStore()
	store.addRaw("org-1", domain.PlatformShopee,
		shopeeRecord(1, "Sepatu Running Pria Original Ringan", 289000),
		shopeeRecord(2, "Kaos Polos Cotton Combed 30s", 55000),
		shopeeRecord(3, "Tas Ransel Anti Air 25L", 160000),
	)
	store.addRaw("org-1", domain.PlatformTikTok,
		tiktokRecord("900100", "Kemeja Flanel Pria Lengan Panjang", 120000),
	)

	p := newTestPopulator(store)
	result, err := p.PopulateFromImports(context.Background(), defaultConfig("org-1"))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.NotEmpty(t, result.BatchID)
	assert.Equal(t, 4, result.TotalProcessed)
	assert.Equal(t, 4, result.SuccessCount)
	assert.Equal(t, 0, result.ErrorCount)
	assert.Equal(t, 0, result.SkippedProducts)
	assert.Len(t, store.products, 4)
	assert.Len(t, store.mappings, 4)

	shopeeSummary := result.Summary[domain.PlatformShopee]
	require.NotNil(t, shopeeSummary)
	assert.Equal(t, 3, shopeeSummary.Processed)
	assert.Equal(t, 3, shopeeSummary.MappingsCreated)
	assert.Greater(t, shopeeSummary.AverageFinalPrice, 0.0)
	assert.Greater(t, shopeeSummary.AverageSEOQuality, 0.0)

	// One sync run per platform, all terminal.
	require.Len(t, store.runs, 2)
	for _, run := range store.runs {
		assert.Equal(t, result.BatchID, run.BatchID)
		assert.True(t, run.Status.Terminal())
	}
}

func TestPopulateFromImportsIsIdempotent(t *testing.T) {
	store := newMemStore()
	store.addRaw("org-1", domain.PlatformShopee,
		shopeeRecord(1, "Sepatu Running Pria", 289000),
		shopeeRecord(2, "Kaos Polos Cotton", 55000),
	)

	p := newTestPopulator(store)
	cfg := defaultConfig("org-1")
	cfg.Platforms = []string{domain.PlatformShopee}

	first, err := p.PopulateFromImports(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, 2, first.SuccessCount)

	second, err := p.PopulateFromImports(context.Background(), cfg)
	require.NoError(t, err)

	assert.True(t, second.Success)
	assert.Equal(t, first.SuccessCount, second.SkippedProducts)
	assert.Equal(t, 0, second.ErrorCount)
	assert.Len(t, store.products, 2, "second run must not create duplicates")
	assert.Len(t, store.mappings, 2)
}

func TestPopulateFromImportsPartialRecordFailure(t *testing.T) {
	store := newMemStore()
	store.addRaw("org-1", domain.PlatformShopee,
		shopeeRecord(1, "Sepatu Running Pria", 289000),
		`{"item_name": "missing item id"}`,
		shopeeRecord(3, "Tas Ransel Anti Air", 160000),
	)

	p := newTestPopulator(store)
	cfg := defaultConfig("org-1")
	cfg.Platforms = []string{domain.PlatformShopee}

	result, err := p.PopulateFromImports(context.Background(), cfg)
	require.NoError(t, err)

	assert.True(t, result.Success, "record-level failures do not fail the run by default")
	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, domain.PlatformShopee, result.Errors[0].Platform)

	require.Len(t, store.runs, 1)
	assert.Equal(t, domain.BatchStateMixed, store.runs[0].Status)
	assert.Equal(t, 1, store.runs[0].ErrorCodes["TRANSFORM_ERROR"])
}

func TestPopulateFromImportsStrictFailurePolicy(t *testing.T) {
	store := newMemStore()
	store.addRaw("org-1", domain.PlatformShopee,
		shopeeRecord(1, "Sepatu Running Pria", 289000),
		`{"item_name": "missing item id"}`,
	)

	p := newTestPopulator(store)
	cfg := defaultConfig("org-1")
	cfg.Platforms = []string{domain.PlatformShopee}
	cfg.TreatRecordErrorsAsFailure = true

	result, err := p.PopulateFromImports(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.ErrorCount)
}

func TestPopulateFromImportsReadFailureFailsRun(t *testing.T) {
	store := newMemStore()
	store.addRaw("org-1", domain.PlatformShopee, shopeeRecord(1, "Sepatu Running Pria", 289000))
	store.failReadsFor[domain.PlatformTikTok] = true

	p := newTestPopulator(store)
	result, err := p.PopulateFromImports(context.Background(), defaultConfig("org-1"))
	require.NoError(t, err)

	assert.False(t, result.Success, "an unreadable raw store is a run failure")
	assert.Equal(t, 1, result.SuccessCount, "healthy platform still completes")
}

func TestPopulateFromImportsDryRun(t *testing.T) {
	store := newMemStore()
	store.addRaw("org-1", domain.PlatformShopee,
		shopeeRecord(1, "Sepatu Running Pria", 289000),
		shopeeRecord(2, "Kaos Polos Cotton", 55000),
	)

	p := newTestPopulator(store)
	cfg := defaultConfig("org-1")
	cfg.Platforms = []string{domain.PlatformShopee}
	cfg.DryRun = true

	result, err := p.PopulateFromImports(context.Background(), cfg)
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Empty(t, store.products, "dry run must not persist products")
	assert.Empty(t, store.mappings)
	assert.Empty(t, store.runs, "dry run must not log a sync run")
}

func TestPopulateFromImportsPersistenceFailure(t *testing.T) {
	store := newMemStore()
	store.addRaw("org-1", domain.PlatformShopee, shopeeRecord(1, "Sepatu Running Pria", 289000))
	store.failUpserts = true

	p := newTestPopulator(store)
	cfg := defaultConfig("org-1")
	cfg.Platforms = []string{domain.PlatformShopee}

	result, err := p.PopulateFromImports(context.Background(), cfg)
	require.NoError(t, err)

	assert.True(t, result.Success, "persistence errors are record-level by default")
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, store.runs, 1)
	assert.Equal(t, domain.BatchStateFailed, store.runs[0].Status)
	assert.Equal(t, 1, store.runs[0].ErrorCodes["PERSISTENCE_ERROR"])
}

func TestPopulateFromImportsValidatesConfig(t *testing.T) {
	p := newTestPopulator(newMemStore())
	ctx := context.Background()

	_, err := p.PopulateFromImports(ctx, PopulateConfig{BatchSize: 10, Platforms: []string{"shopee"}})
	var valErr *errors.ErrValidation
	require.ErrorAs(t, err, &valErr)

	_, err = p.PopulateFromImports(ctx, PopulateConfig{OrganizationID: "org-1", Platforms: []string{"shopee"}})
	require.ErrorAs(t, err, &valErr)

	_, err = p.PopulateFromImports(ctx, PopulateConfig{OrganizationID: "org-1", BatchSize: 10})
	require.ErrorAs(t, err, &valErr)
}

func TestPopulateAssemblesPricingAndSEO(t *testing.T) {
	store := newMemStore()
	store.addRaw("org-1", domain.PlatformShopee, shopeeRecord(1, "Sepatu Running Pria Original Ringan", 150000))

	p := newTestPopulator(store)
	cfg := defaultConfig("org-1")
	result, err := p.PopulateFromImports(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, 1, result.SuccessCount)

	sku := MasterSKU(domain.PlatformShopee, "1")
	product, err := store.repositories().MasterProduct.GetByMasterSKU(context.Background(), "org-1", sku)
	require.NoError(t, err)

	assert.Equal(t, 150000.0, product.Pricing.BasePrice)
	require.Contains(t, product.Pricing.PlatformPrices, domain.PlatformShopee)
	require.Contains(t, product.Pricing.PlatformPrices, domain.PlatformTikTok)
	assert.Equal(t, 177503.0, product.Pricing.PlatformPrices[domain.PlatformShopee].Price)
	assert.Equal(t, 184500.0, product.Pricing.PlatformPrices[domain.PlatformTikTok].Price)

	assert.Len(t, product.SEOTitles, 2)
	assert.Greater(t, product.DataQualityScore, 0)
	assert.Equal(t, domain.ProductStatusActive, product.Status)
	assert.Equal(t, result.BatchID, product.ImportBatchID)
}

func TestMasterSKUDeterministic(t *testing.T) {
	a := MasterSKU(domain.PlatformShopee, "4481929")
	b := MasterSKU(domain.PlatformShopee, "4481929")
	assert.Equal(t, a, b)
	assert.Regexp(t, `^SHP-4481929-[0-9A-F]{4}$`, a)

	assert.NotEqual(t, a, MasterSKU(domain.PlatformTikTok, "4481929"))
	assert.Regexp(t, `^TTS-`, MasterSKU(domain.PlatformTikTok, "4481929"))

	// Unknown platforms fall back to a truncated upper-case prefix.
	assert.Regexp(t, `^LAZ-77-`, MasterSKU("lazada", "77"))
}

func TestBatchOutcome(t *testing.T) {
	assert.Equal(t, domain.BatchStateCompleted, batchOutcome(5, 0, false))
	assert.Equal(t, domain.BatchStateFailed, batchOutcome(0, 5, false))
	assert.Equal(t, domain.BatchStateMixed, batchOutcome(3, 2, false))
	assert.Equal(t, domain.BatchStateFailed, batchOutcome(0, 0, true))
	assert.Equal(t, domain.BatchStateMixed, batchOutcome(3, 2, true))
}
