package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	"docmanager/internal/config"
	"docmanager/internal/domain"
	apierrors "docmanager/internal/errors"
)

// Records is the StoredFile row store. Create must fail with
// gorm.ErrDuplicatedKey when the scope key already exists; that is
// what turns the check-then-create race into insert-or-fetch.
type Records interface {
	FindByScopeKey(ctx context.Context, scopeKey string) (*domain.StoredFile, error)
	Create(ctx context.Context, sf *domain.StoredFile) error
	// DeleteIfUnreferenced removes the row only when no document
	// references it, atomically. Reports whether it was removed.
	DeleteIfUnreferenced(ctx context.Context, storedFileID uint64) (bool, error)
	KnownPath(ctx context.Context, storagePath string) (bool, error)
}

// Store persists uploaded bytes once per dedup key. The scope is fixed
// at construction; callers cannot choose it per upload.
type Store struct {
	records    Records
	root       string
	scope      domain.DedupScope
	maxSize    int64
	allowedExt map[string]bool
}

func NewStore(records Records, cfg config.Config) *Store {
	allowed := make(map[string]bool, len(cfg.AllowedFileTypes))
	for _, ext := range cfg.AllowedFileTypes {
		allowed[ext] = true
	}
	return &Store{
		records:    records,
		root:       cfg.StorageRoot,
		scope:      cfg.DedupScope,
		maxSize:    cfg.MaxUploadSize,
		allowedExt: allowed,
	}
}

// Put stores the content of r and returns its StoredFile, reusing an
// existing one when identical content is already stored within the
// dedup scope. The row only becomes visible after the bytes are
// durably on disk, so a failure in between can orphan bytes (swept
// later) but never a row.
func (s *Store) Put(ctx context.Context, r io.Reader, declaredSize int64, filename string, tenant *domain.Tenant) (*domain.StoredFile, error) {
	if err := s.validate(declaredSize, filename); err != nil {
		return nil, err
	}

	tmp, checksum, size, err := s.spool(r)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp) // no-op once renamed away

	scopeKey := domain.ScopeKeyFor(s.scope, checksum, tenant)

	existing, err := s.records.FindByScopeKey(ctx, scopeKey)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	path := s.blobPath(checksum, tenant)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, err
	}

	sf := &domain.StoredFile{
		Checksum:    checksum,
		ScopeKey:    scopeKey,
		StoragePath: path,
		ByteSize:    size,
		MimeType:    mimeTypeFor(filename),
	}
	if s.scope == domain.DedupPerTenant {
		sf.ScopeTenantID = &tenant.ID
	}

	if err := s.records.Create(ctx, sf); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Someone else inserted first; their row wins. The bytes at
			// path are theirs too, since the path derives from the same key.
			return s.records.FindByScopeKey(ctx, scopeKey)
		}
		return nil, err
	}
	return sf, nil
}

// Open returns the byte stream for a stored file. A row whose bytes
// are missing is a storage inconsistency, not a not-found.
func (s *Store) Open(sf *domain.StoredFile) (io.ReadCloser, error) {
	f, err := os.Open(sf.StoragePath)
	if os.IsNotExist(err) {
		return nil, apierrors.StorageInconsistency("Stored file bytes missing on disk", err)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Release drops the stored file once no document references it. The
// row goes first; byte removal after that is best-effort, a leftover
// blob is reclaimable garbage.
func (s *Store) Release(ctx context.Context, sf *domain.StoredFile) error {
	removed, err := s.records.DeleteIfUnreferenced(ctx, sf.ID)
	if err != nil {
		return err
	}
	if removed {
		os.Remove(sf.StoragePath)
	}
	return nil
}

// sweepGrace is how long Sweep leaves unrecognized blobs alone. Put
// renames bytes into place before the row insert commits, so a blob
// younger than this may belong to an upload still in flight.
const sweepGrace = time.Hour

// Sweep removes blobs on disk that no StoredFile row references,
// sparing anything recent enough to be an in-flight upload.
func (s *Store) Sweep(ctx context.Context) error {
	filesRoot := filepath.Join(s.root, "files")
	return filepath.Walk(filesRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if time.Since(info.ModTime()) < sweepGrace {
			return nil
		}
		known, kerr := s.records.KnownPath(ctx, path)
		if kerr != nil {
			return kerr
		}
		if !known {
			os.Remove(path)
		}
		return nil
	})
}

func (s *Store) validate(declaredSize int64, filename string) error {
	if declaredSize > s.maxSize {
		return apierrors.BadRequest(
			fmt.Sprintf("File size exceeds maximum allowed size of %dMB", s.maxSize/(1024*1024)), nil)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !s.allowedExt[ext] {
		return apierrors.BadRequest(fmt.Sprintf("File type %q not allowed", ext), nil)
	}
	return nil
}

// spool copies r to a temp file while hashing, enforcing the size cap
// on the actual stream, and syncs before returning.
func (s *Store) spool(r io.Reader) (tmpPath, checksum string, size int64, err error) {
	tmpDir := filepath.Join(s.root, "tmp")
	if err = os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", "", 0, err
	}
	f, err := os.CreateTemp(tmpDir, "upload-*")
	if err != nil {
		return "", "", 0, err
	}
	tmpPath = f.Name()
	defer func() {
		f.Close()
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	h := sha256.New()
	size, err = io.Copy(io.MultiWriter(f, h), io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return "", "", 0, err
	}
	if size > s.maxSize {
		err = apierrors.BadRequest(
			fmt.Sprintf("File size exceeds maximum allowed size of %dMB", s.maxSize/(1024*1024)), nil)
		return "", "", 0, err
	}
	if err = f.Sync(); err != nil {
		return "", "", 0, err
	}
	return tmpPath, hex.EncodeToString(h.Sum(nil)), size, nil
}

// blobPath derives the on-disk location from the checksum, fanned out
// by the first byte. Per-tenant scope adds the tenant's isolation key
// so two tenants' copies of the same content never collide.
func (s *Store) blobPath(checksum string, tenant *domain.Tenant) string {
	scopeDir := "global"
	if s.scope == domain.DedupPerTenant && tenant != nil {
		scopeDir = tenant.IsolationKey
	}
	return filepath.Join(s.root, "files", scopeDir, checksum[:2], checksum)
}

func mimeTypeFor(filename string) string {
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}
