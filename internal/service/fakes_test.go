package service_test

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/cache"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

// fakeStore is an in-memory stand-in for the products, product_images and
// outbox_messages tables. Transactions snapshot it and restore on error.
type fakeStore struct {
	mu       sync.Mutex
	products []model.Product
	images   map[uuid.UUID][]model.ProductImage
	outbox   []repository.CreateOutboxMsgParams

	// failures makes the named repository method return the error.
	failures map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		images:   map[uuid.UUID][]model.ProductImage{},
		failures: map[string]error{},
	}
}

type fakeState struct {
	products []model.Product
	images   map[uuid.UUID][]model.ProductImage
	outbox   []repository.CreateOutboxMsgParams
}

func (s *fakeStore) snapshot() fakeState {
	s.mu.Lock()
	defer s.mu.Unlock()

	images := make(map[uuid.UUID][]model.ProductImage, len(s.images))
	for k, v := range s.images {
		images[k] = slices.Clone(v)
	}
	return fakeState{
		products: slices.Clone(s.products),
		images:   images,
		outbox:   slices.Clone(s.outbox),
	}
}

func (s *fakeStore) restore(st fakeState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = st.products
	s.images = st.images
	s.outbox = st.outbox
}

func (s *fakeStore) fail(method string) error {
	return s.failures[method]
}

func (s *fakeStore) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(s.products, func(p model.Product) bool { return p.ID == id })
}

func (s *fakeStore) imageURLs(id uuid.UUID) []string {
	imgs := slices.Clone(s.images[id])
	sort.Slice(imgs, func(i, j int) bool { return imgs[i].Position < imgs[j].Position })

	urls := make([]string, 0, len(imgs))
	for _, img := range imgs {
		urls = append(urls, img.URL)
	}
	return urls
}

func (s *fakeStore) withImages(p model.Product) model.Product {
	p.Images = s.imageURLs(p.ID)
	return p
}

func (s *fakeStore) checkUnique(p model.Product) error {
	for _, existing := range s.products {
		if existing.ID == p.ID {
			continue
		}
		if existing.Title == p.Title {
			return uniqueViolation("title", p.Title)
		}
		if existing.Slug == p.Slug {
			return uniqueViolation("slug", p.Slug)
		}
	}
	return nil
}

func uniqueViolation(column, value string) error {
	return &pgconn.PgError{
		Code:           db.CodeUniqueViolation,
		TableName:      "products",
		ConstraintName: "products_" + column + "_key",
		Detail:         fmt.Sprintf("Key (%s)=(%s) already exists.", column, value),
	}
}

func notFound() error {
	return fmt.Errorf("collect product: %w", repository.ErrNotFound)
}

type fakeDB struct {
	db.DB
	store *fakeStore
	txs   int
}

func (f *fakeDB) WithTx(_ context.Context, txFunc func(db.DB) error) error {
	f.txs++
	st := f.store.snapshot()
	if err := txFunc(f); err != nil {
		f.store.restore(st)
		return err
	}
	return nil
}

var _ repository.ProductRepository = (*fakeProductRepo)(nil)

type fakeProductRepo struct {
	store *fakeStore
}

func (r *fakeProductRepo) WithDB(db.DB) repository.ProductRepository { return r }

func (r *fakeProductRepo) CreateProduct(_ context.Context, product model.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("CreateProduct"); err != nil {
		return err
	}
	if err := r.store.checkUnique(product); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	product.Images = nil
	r.store.products = append(r.store.products, product)
	return nil
}

func (r *fakeProductRepo) CreateProductImages(_ context.Context, images []model.ProductImage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("CreateProductImages"); err != nil {
		return err
	}
	for _, img := range images {
		if r.store.indexOf(img.ProductID) < 0 {
			return &pgconn.PgError{Code: db.CodeForeignKeyViolation}
		}
		r.store.images[img.ProductID] = append(r.store.images[img.ProductID], img)
	}
	return nil
}

func (r *fakeProductRepo) ListProducts(_ context.Context, params repository.ListProductsParams) ([]model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("ListProducts"); err != nil {
		return nil, err
	}

	start := min(int(params.Offset), len(r.store.products))
	end := min(start+int(params.Limit), len(r.store.products))

	products := make([]model.Product, 0, end-start)
	for _, p := range r.store.products[start:end] {
		products = append(products, r.store.withImages(p))
	}
	return products, nil
}

func (r *fakeProductRepo) GetProductByID(_ context.Context, id uuid.UUID) (model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("GetProductByID"); err != nil {
		return model.Product{}, err
	}
	i := r.store.indexOf(id)
	if i < 0 {
		return model.Product{}, notFound()
	}
	return r.store.withImages(r.store.products[i]), nil
}

func (r *fakeProductRepo) FindProductByTerm(_ context.Context, term string) (model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("FindProductByTerm"); err != nil {
		return model.Product{}, err
	}
	for _, p := range r.store.products {
		if p.Title == term || p.Slug == term {
			return r.store.withImages(p), nil
		}
	}
	return model.Product{}, notFound()
}

func (r *fakeProductRepo) ListProductImageURLs(_ context.Context, productID uuid.UUID) ([]string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("ListProductImageURLs"); err != nil {
		return nil, err
	}
	return r.store.imageURLs(productID), nil
}

func (r *fakeProductRepo) DeleteProductImages(_ context.Context, productID uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("DeleteProductImages"); err != nil {
		return 0, err
	}
	n := int64(len(r.store.images[productID]))
	delete(r.store.images, productID)
	return n, nil
}

func (r *fakeProductRepo) UpdateProduct(_ context.Context, id uuid.UUID, params repository.UpdateProductParams) (model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("UpdateProduct"); err != nil {
		return model.Product{}, err
	}
	i := r.store.indexOf(id)
	if i < 0 {
		return model.Product{}, notFound()
	}

	p := r.store.products[i]
	if params.Title != nil {
		p.Title = *params.Title
	}
	if params.Slug != nil {
		p.Slug = *params.Slug
	}
	if params.Price != nil {
		p.Price = *params.Price
	}
	if params.Description != nil {
		p.Description = params.Description
	}
	if params.Stock != nil {
		p.Stock = *params.Stock
	}
	if params.Sizes != nil {
		p.Sizes = params.Sizes
	}
	if params.Gender != nil {
		p.Gender = *params.Gender
	}
	if params.Tags != nil {
		p.Tags = params.Tags
	}
	p.UpdatedAt = params.UpdatedAt

	if err := r.store.checkUnique(p); err != nil {
		return model.Product{}, fmt.Errorf("query product: %w", err)
	}

	r.store.products[i] = p
	p.Images = []string{}
	return p, nil
}

func (r *fakeProductRepo) DeleteProduct(_ context.Context, id uuid.UUID) (model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("DeleteProduct"); err != nil {
		return model.Product{}, err
	}
	i := r.store.indexOf(id)
	if i < 0 {
		return model.Product{}, notFound()
	}

	p := r.store.products[i]
	r.store.products = slices.Delete(r.store.products, i, i+1)
	delete(r.store.images, id)
	return p, nil
}

func (r *fakeProductRepo) DeleteAllProducts(context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("DeleteAllProducts"); err != nil {
		return 0, err
	}
	n := int64(len(r.store.products))
	r.store.products = nil
	r.store.images = map[uuid.UUID][]model.ProductImage{}
	return n, nil
}

var _ repository.OutboxMsgRepository = (*fakeOutboxMsgRepo)(nil)

type fakeOutboxMsgRepo struct {
	store *fakeStore
}

func (r *fakeOutboxMsgRepo) WithDB(db.DB) repository.OutboxMsgRepository { return r }

func (r *fakeOutboxMsgRepo) CreateOutboxMsg(_ context.Context, params repository.CreateOutboxMsgParams) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fail("CreateOutboxMsg"); err != nil {
		return err
	}
	r.store.outbox = append(r.store.outbox, params)
	return nil
}

func (r *fakeOutboxMsgRepo) ListUnprocessedOutboxMsgs(context.Context, repository.ListUnprocessedOutboxMsgsParams) ([]repository.ListUnprocessedOutboxMsgsResult, error) {
	return nil, nil
}

func (r *fakeOutboxMsgRepo) BulkUpdateOutboxMsgs(context.Context, repository.BulkUpdateOutboxMsgsParams) error {
	return nil
}

var _ cache.ProductCache = (*fakeProductCache)(nil)

type fakeProductCache struct {
	mu            sync.Mutex
	pages         map[string][]model.Product
	invalidations int
}

func newFakeProductCache() *fakeProductCache {
	return &fakeProductCache{pages: map[string][]model.Product{}}
}

func (c *fakeProductCache) key(limit, offset int32) string {
	return fmt.Sprintf("%d/%d", limit, offset)
}

func (c *fakeProductCache) GetProductPage(_ context.Context, limit, offset int32) ([]model.Product, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	products, ok := c.pages[c.key(limit, offset)]
	return products, ok, nil
}

func (c *fakeProductCache) SetProductPage(_ context.Context, limit, offset int32, products []model.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pages[c.key(limit, offset)] = products
	return nil
}

func (c *fakeProductCache) InvalidateProducts(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pages = map[string][]model.Product{}
	c.invalidations++
	return nil
}
