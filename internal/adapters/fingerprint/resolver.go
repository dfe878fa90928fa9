package fingerprint

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lcalzada-xor/wsentry/internal/core/ports"
)

// RandomizedVendor labels locally administered addresses, which have no registered owner.
const RandomizedVendor = "Randomized"

// DefaultCacheSize bounds the number of memoised prefixes.
const DefaultCacheSize = 1024

// Resolver answers vendor queries for event targets through a repository
// chain, memoising both hits and misses per OUI.
type Resolver struct {
	repo  VendorRepository
	cache *OUICache
}

// NewResolver wraps repo with an LRU cache.
func NewResolver(repo VendorRepository, cacheSize int) *Resolver {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &Resolver{repo: repo, cache: NewOUICache(cacheSize)}
}

// NewDefaultResolver resolves against KnownVendors, preceded by the OUI file at
// path when one is given.
func NewDefaultResolver(path string) (*Resolver, error) {
	static := NewStaticVendorRepository(KnownVendors)
	if path == "" {
		return NewResolver(static, DefaultCacheSize), nil
	}

	file := NewFileVendorRepository()
	if err := file.LoadFromFile(path); err != nil {
		return nil, err
	}
	slog.Info("OUI vendor list loaded", "path", path, "entries", file.Len())
	return NewResolver(NewCompositeVendorRepository(file, static), DefaultCacheSize), nil
}

var _ ports.VendorResolver = (*Resolver)(nil)

// VendorFor implements ports.VendorResolver.
func (r *Resolver) VendorFor(bssid string) (string, bool) {
	mac, err := ParseMAC(bssid)
	if err != nil {
		return "", false
	}
	if mac.IsRandomized() {
		return RandomizedVendor, true
	}

	oui := mac.OUI()
	if vendor, ok := r.cache.Get(oui); ok {
		return vendor, vendor != ""
	}

	vendor, err := r.repo.LookupVendor(context.Background(), mac)
	if err != nil && !errors.Is(err, ErrVendorNotFound) {
		slog.Debug("Vendor lookup failed", "oui", oui, "error", err)
		return "", false
	}
	r.cache.Set(oui, vendor)
	return vendor, vendor != ""
}
