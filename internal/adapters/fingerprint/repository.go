package fingerprint

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// VendorRepository looks up the manufacturer of a MAC address.
type VendorRepository interface {
	LookupVendor(ctx context.Context, mac MACAddress) (string, error)
}

// KnownVendors covers access point and rogue hardware prefixes commonly seen in the field.
var KnownVendors = map[string]string{
	"00:00:0C": "Cisco Systems",
	"00:03:93": "Apple",
	"00:09:5B": "Netgear",
	"00:0B:86": "Aruba Networks",
	"24:0A:C4": "Espressif",
	"24:A4:3C": "Ubiquiti Networks",
	"50:C7:BF": "TP-Link",
	"B8:27:EB": "Raspberry Pi Foundation",
}

// StaticVendorRepository serves lookups from an in-memory map keyed by "XX:XX:XX".
type StaticVendorRepository struct {
	vendors map[string]string
}

// NewStaticVendorRepository creates a static repository.
func NewStaticVendorRepository(vendors map[string]string) *StaticVendorRepository {
	return &StaticVendorRepository{vendors: vendors}
}

// LookupVendor implements VendorRepository.
func (s *StaticVendorRepository) LookupVendor(_ context.Context, mac MACAddress) (string, error) {
	if vendor, ok := s.vendors[mac.OUI()]; ok {
		return vendor, nil
	}
	return "", ErrVendorNotFound
}

// FileVendorRepository loads "XX:XX:XX Vendor Name" lines from a text file.
type FileVendorRepository struct {
	vendors map[string]string
	mu      sync.RWMutex
}

// NewFileVendorRepository creates an empty file-backed repository.
func NewFileVendorRepository() *FileVendorRepository {
	return &FileVendorRepository{vendors: make(map[string]string)}
}

// LoadFromFile merges the OUI list at path into the repository.
func (f *FileVendorRepository) LoadFromFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open oui file: %w", err)
	}
	defer file.Close()
	return f.Load(file)
}

// Load merges OUI lines from r. Blank lines, comments and malformed prefixes are skipped.
func (f *FileVendorRepository) Load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	parsed := make(map[string]string)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) < 8 || strings.HasPrefix(line, "#") {
			continue
		}

		prefix := strings.ToUpper(strings.ReplaceAll(line[:8], "-", ":"))
		vendor := strings.TrimSpace(line[8:])
		if isValidOUI(prefix) && vendor != "" {
			parsed[prefix] = vendor
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read oui file: %w", err)
	}

	f.mu.Lock()
	for k, v := range parsed {
		f.vendors[k] = v
	}
	f.mu.Unlock()
	return nil
}

// Len returns the number of loaded prefixes.
func (f *FileVendorRepository) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vendors)
}

// LookupVendor implements VendorRepository.
func (f *FileVendorRepository) LookupVendor(_ context.Context, mac MACAddress) (string, error) {
	f.mu.RLock()
	vendor, ok := f.vendors[mac.OUI()]
	f.mu.RUnlock()
	if !ok {
		return "", ErrVendorNotFound
	}
	return vendor, nil
}

// CompositeVendorRepository tries each repository in order until one answers.
type CompositeVendorRepository struct {
	repositories []VendorRepository
}

// NewCompositeVendorRepository chains repos, first match wins.
func NewCompositeVendorRepository(repos ...VendorRepository) *CompositeVendorRepository {
	return &CompositeVendorRepository{repositories: repos}
}

// LookupVendor implements VendorRepository. Errors other than ErrVendorNotFound
// are reported only when no repository matched.
func (c *CompositeVendorRepository) LookupVendor(ctx context.Context, mac MACAddress) (string, error) {
	if !mac.IsValid() {
		return "", ErrInvalidMAC
	}

	var lastErr error
	for _, repo := range c.repositories {
		vendor, err := repo.LookupVendor(ctx, mac)
		if err == nil && vendor != "" {
			return vendor, nil
		}
		if err != nil && !errors.Is(err, ErrVendorNotFound) {
			lastErr = err
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", ErrVendorNotFound
}

func isValidOUI(s string) bool {
	if len(s) != 8 || s[2] != ':' || s[5] != ':' {
		return false
	}
	for i, c := range s {
		if i == 2 || i == 5 {
			continue
		}
		if !strings.ContainsRune("0123456789ABCDEF", c) {
			return false
		}
	}
	return true
}
