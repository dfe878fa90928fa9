package fingerprint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepository struct {
	VendorRepository
	calls int
}

func (c *countingRepository) LookupVendor(ctx context.Context, mac MACAddress) (string, error) {
	c.calls++
	return c.VendorRepository.LookupVendor(ctx, mac)
}

func TestResolver_VendorFor(t *testing.T) {
	r := NewResolver(NewStaticVendorRepository(KnownVendors), 0)

	vendor, ok := r.VendorFor("b8:27:eb:12:34:56")
	assert.True(t, ok)
	assert.Equal(t, "Raspberry Pi Foundation", vendor)

	vendor, ok = r.VendorFor("02:de:ad:00:00:01")
	assert.True(t, ok)
	assert.Equal(t, RandomizedVendor, vendor)

	_, ok = r.VendorFor("00:11:00:00:00:01")
	assert.False(t, ok)

	_, ok = r.VendorFor("garbage")
	assert.False(t, ok)
}

func TestResolver_CachesHitsAndMisses(t *testing.T) {
	repo := &countingRepository{VendorRepository: NewStaticVendorRepository(KnownVendors)}
	r := NewResolver(repo, 8)

	for i := 0; i < 3; i++ {
		r.VendorFor("00:03:93:00:00:01")
		r.VendorFor("00:11:00:00:00:01")
	}
	assert.Equal(t, 2, repo.calls)

	// Randomized addresses never reach the repository.
	r.VendorFor("06:00:00:00:00:01")
	assert.Equal(t, 2, repo.calls)
}

func TestResolver_RepositoryErrorNotCached(t *testing.T) {
	repo := &countingRepository{VendorRepository: failingRepository{errors.New("down")}}
	r := NewResolver(repo, 8)

	_, ok := r.VendorFor("00:03:93:00:00:01")
	assert.False(t, ok)
	r.VendorFor("00:03:93:00:00:01")
	assert.Equal(t, 2, repo.calls)
}

func TestNewDefaultResolver(t *testing.T) {
	r, err := NewDefaultResolver("")
	require.NoError(t, err)
	vendor, _ := r.VendorFor("00:00:0c:00:00:01")
	assert.Equal(t, "Cisco Systems", vendor)

	path := filepath.Join(t.TempDir(), "oui.txt")
	require.NoError(t, os.WriteFile(path, []byte("00:00:0C Cisco Override\n"), 0o600))
	r, err = NewDefaultResolver(path)
	require.NoError(t, err)
	vendor, _ = r.VendorFor("00:00:0c:00:00:01")
	assert.Equal(t, "Cisco Override", vendor)
	vendor, _ = r.VendorFor("24:a4:3c:00:00:01")
	assert.Equal(t, "Ubiquiti Networks", vendor)

	_, err = NewDefaultResolver(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
