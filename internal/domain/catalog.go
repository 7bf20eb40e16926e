package domain

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// CatalogEntry is one sellable item with its unit price in rupiah.
type CatalogEntry struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// PriceCatalog is immutable after construction and safe for concurrent use.
// The order of entries is the canonical order of itemizations.
type PriceCatalog struct {
	entries []CatalogEntry
	index   map[string]int
}

var defaultCatalogEntries = []CatalogEntry{
	{Code: "kopi", Name: "Kopi", Price: 10_000},
	{Code: "teh", Name: "Teh Manis", Price: 8_000},
	{Code: "esJeruk", Name: "Es Jeruk", Price: 12_000},
	{Code: "airMineral", Name: "Air Mineral", Price: 5_000},
	{Code: "nasiGoreng", Name: "Nasi Goreng", Price: 35_000},
	{Code: "mieGoreng", Name: "Mie Goreng", Price: 30_000},
	{Code: "pisangGoreng", Name: "Pisang Goreng", Price: 15_000},
}

func NewPriceCatalog(entries []CatalogEntry) (*PriceCatalog, error) {
	c := &PriceCatalog{
		entries: make([]CatalogEntry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		e.Code = strings.TrimSpace(e.Code)
		e.Name = strings.TrimSpace(e.Name)
		if e.Code == "" {
			return nil, fmt.Errorf("catalog entry %d: code kosong", i)
		}
		if e.Price < 0 {
			return nil, fmt.Errorf("catalog entry %q: harga negatif", e.Code)
		}
		if _, dup := c.index[e.Code]; dup {
			return nil, fmt.Errorf("catalog entry %q: code duplikat", e.Code)
		}
		if e.Name == "" {
			e.Name = e.Code
		}
		c.index[e.Code] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// DefaultPriceCatalog returns the built-in food & beverage list.
func DefaultPriceCatalog() *PriceCatalog {
	c, err := NewPriceCatalog(defaultCatalogEntries)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadPriceCatalog reads a JSON array of {code,name,price}. An empty path
// yields the default catalog.
func LoadPriceCatalog(path string) (*PriceCatalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultPriceCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var entries []CatalogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return NewPriceCatalog(entries)
}

// PriceOf returns the unit price, or false for codes not in the catalog.
func (c *PriceCatalog) PriceOf(code string) (int64, bool) {
	e, ok := c.Entry(code)
	return e.Price, ok
}

func (c *PriceCatalog) Entry(code string) (CatalogEntry, bool) {
	i, ok := c.index[code]
	if !ok {
		return CatalogEntry{}, false
	}
	return c.entries[i], true
}

// Entries returns a copy in canonical order.
func (c *PriceCatalog) Entries() []CatalogEntry {
	return append([]CatalogEntry(nil), c.entries...)
}

func (c *PriceCatalog) Len() int { return len(c.entries) }
