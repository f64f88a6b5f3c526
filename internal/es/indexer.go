package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/shop_api/internal/models"
)

// Indexer mirrors catalog mutations into the product index. Failures are
// reported to the caller, which logs and carries on: the relational store
// stays the source of truth.
type Indexer struct {
	ES    *elasticsearch.Client
	Index string
}

func (i *Indexer) Enabled() bool {
	return i != nil && i.ES != nil
}

func (i *Indexer) IndexProduct(ctx context.Context, p *models.Product) error {
	if !i.Enabled() {
		return nil
	}

	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("es: marshal product: %w", err)
	}

	res, err := i.ES.Index(
		i.Index,
		bytes.NewReader(doc),
		i.ES.Index.WithContext(ctx),
		i.ES.Index.WithDocumentID(strconv.FormatUint(uint64(p.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("es: index product %d: %w", p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("es: index product %d: %s", p.ID, res.Status())
	}
	return nil
}

func (i *Indexer) DeleteProduct(ctx context.Context, id uint) error {
	if !i.Enabled() {
		return nil
	}

	res, err := i.ES.Delete(
		i.Index,
		strconv.FormatUint(uint64(id), 10),
		i.ES.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("es: delete product %d: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("es: delete product %d: %s", id, res.Status())
	}
	return nil
}
