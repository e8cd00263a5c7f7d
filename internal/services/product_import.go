package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"catalog/internal/apifeatures"
	"catalog/internal/apperrors"
	"catalog/internal/importer"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/pkg/slug"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ImportFile is an uploaded bulk import payload.
type ImportFile struct {
	MimeType string
	Data     []byte
}

// ProductsImportedEvent is published after a bulk import commits.
type ProductsImportedEvent struct {
	Count int64 `json:"count"`
}

// BulkCreateProducts imports every row of a CSV or XLSX file, or none of them.
// All rows are parsed and normalised before the transaction starts; inside it
// only category lookups, slug assignment and one bulk insert remain.
func (s *ProductService) BulkCreateProducts(ctx context.Context, file *ImportFile) (int64, error) {
	if file == nil || len(file.Data) == 0 {
		return 0, apperrors.New(apperrors.EmptyInput, "No file uploaded")
	}
	records, err := importer.Parse(file.Data, file.MimeType)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, apperrors.New(apperrors.EmptyInput, "File is empty")
	}
	products, err := normalizeRecords(records)
	if err != nil {
		return 0, err
	}

	var count int64
	err = repositories.RunInTx(ctx, s.transactor, func(tx repositories.Tx) error {
		var categoryIDs []string
		for _, p := range products {
			if p.CategoryID != nil {
				categoryIDs = append(categoryIDs, *p.CategoryID)
			}
		}
		if err := s.checkCategories(ctx, tx, categoryIDs); err != nil {
			return err
		}

		if err := s.assignSlugs(ctx, tx, products); err != nil {
			return err
		}

		var err error
		count, err = s.products.CreateManyProducts(ctx, tx, products)
		return err
	})
	if err != nil {
		return 0, s.fail("import", err)
	}

	s.logger.Info("products imported", "count", count)
	publish(s.events, s.logger, EventProductsImported, ProductsImportedEvent{Count: count})
	return count, nil
}

// assignSlugs gives every product a slug unique against the store and the
// rest of the batch.
func (s *ProductService) assignSlugs(ctx context.Context, tx repositories.Tx, products []models.Product) error {
	bases := make([]string, 0, len(products))
	for i := range products {
		bases = append(bases, products[i].Slug)
	}
	taken, err := s.products.FindTakenSlugs(ctx, tx, uniqueStrings(bases))
	if err != nil {
		return err
	}
	reserved := toSet(taken)
	for i := range products {
		products[i].Slug = slug.Unique(products[i].Slug, reserved)
		reserved[products[i].Slug] = struct{}{}
	}
	return nil
}

// normalizeRecords maps raw import rows onto products, leaving the base slug
// in Slug. The first invalid record fails the whole batch. Records are
// numbered from 1 and exclude blank rows.
func normalizeRecords(records []importer.Record) ([]models.Product, error) {
	products := make([]models.Product, 0, len(records))
	for i, rec := range records {
		p, err := normalizeRecord(rec)
		if err != nil {
			return nil, apperrors.New(apperrors.InvalidArgument, "Invalid record %d: %s", i+1, err.Error())
		}
		products = append(products, p)
	}
	return products, nil
}

func normalizeRecord(rec importer.Record) (models.Product, error) {
	var p models.Product

	for _, key := range []string{"name", "price", "stock"} {
		if rec[key] == "" {
			return p, fmt.Errorf("missing %s", key)
		}
	}

	p.Name = rec["name"]
	p.Slug = slug.Make(p.Name)
	if p.Slug == "" {
		return p, errors.New("name must contain at least one letter or digit")
	}

	price, err := decimal.NewFromString(rec["price"])
	if err != nil || price.IsNegative() {
		return p, fmt.Errorf("invalid price %q", rec["price"])
	}
	p.Price = price

	stock, err := strconv.Atoi(rec["stock"])
	if err != nil || stock < 0 {
		return p, fmt.Errorf("invalid stock %q", rec["stock"])
	}
	p.Stock = stock

	if raw, ok := rec["discount"]; ok {
		discount, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(discount) || math.IsInf(discount, 0) || discount < 0 || discount > 100 {
			return p, fmt.Errorf("invalid discount %q", raw)
		}
		p.Discount = discount
	}

	flags := []struct {
		key string
		dst *bool
	}{
		{"isNew", &p.IsNew},
		{"isTrending", &p.IsTrending},
		{"isBestSeller", &p.IsBestSeller},
		{"isFeatured", &p.IsFeatured},
	}
	for _, f := range flags {
		raw, ok := rec[f.key]
		if !ok {
			continue
		}
		v, err := apifeatures.ParseBool(raw)
		if err != nil {
			return p, fmt.Errorf("invalid %s %q", f.key, raw)
		}
		*f.dst = v
	}

	if desc, ok := rec["description"]; ok {
		p.Description = &desc
	}
	if categoryID, ok := rec["categoryId"]; ok {
		p.CategoryID = &categoryID
	}
	p.Images = datatypes.JSONSlice[string](cleanImages(strings.Split(rec["images"], ",")))
	return p, nil
}
