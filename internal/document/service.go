package document

import (
	"context"
	defErrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gorm.io/gorm"

	"docmanager/internal/audit"
	"docmanager/internal/content"
	"docmanager/internal/domain"
	"docmanager/internal/errors"
	"docmanager/internal/folder"
	"docmanager/internal/permission"
	"docmanager/redis"
)

type UploadInput struct {
	Title       string
	Description string
	Tags        string
	Filename    string
	Size        int64
	Content     io.Reader
	FolderID    *uint64
	ClientIP    string
}

type DocumentDetail struct {
	Document    domain.Document   `json:"document"`
	ACLs        []domain.ACL      `json:"acls"`
	AuditTrail  []domain.AuditLog `json:"audit_trail"`
	CanDownload bool              `json:"can_download"`
	CanEdit     bool              `json:"can_edit"`
	CanDelete   bool              `json:"can_delete"`
}

type DocumentsMeta struct {
	Total       int `json:"total"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	TotalPage   int `json:"total_page"`
}

type PaginatedDocuments struct {
	Data []domain.Document `json:"data"`
	Meta DocumentsMeta     `json:"meta"`
}

type Service interface {
	Upload(ctx context.Context, tenant *domain.Tenant, userID uint64, in UploadInput) (*domain.Document, error)
	List(ctx context.Context, tenant *domain.Tenant, userID uint64, query, tags string, page, pageSize int) (*PaginatedDocuments, error)
	Get(ctx context.Context, tenant *domain.Tenant, userID uint64, docID uint64, clientIP string) (*DocumentDetail, error)
	Download(ctx context.Context, tenant *domain.Tenant, userID uint64, docID uint64, clientIP string) (*domain.Document, io.ReadCloser, error)
	UpdateMeta(ctx context.Context, tenant *domain.Tenant, userID uint64, docID uint64, title, description, tags, clientIP string) (*domain.Document, error)
	Delete(ctx context.Context, tenant *domain.Tenant, userID uint64, docID uint64, clientIP string) error
	Grant(ctx context.Context, tenant *domain.Tenant, userID uint64, acl *domain.ACL) error
	Revoke(ctx context.Context, tenant *domain.Tenant, userID uint64, docID, aclID uint64) error
}

type DefaultService struct {
	repository DocumentRepository
	folders    folder.Repository
	engine     *permission.Engine
	store      *content.Store
	recorder   *audit.Recorder
	cache      *redis.Cache
}

func NewService(
	repository DocumentRepository,
	folders folder.Repository,
	engine *permission.Engine,
	store *content.Store,
	recorder *audit.Recorder,
	cache *redis.Cache,
) Service {
	return &DefaultService{
		repository: repository,
		folders:    folders,
		engine:     engine,
		store:      store,
		recorder:   recorder,
		cache:      cache,
	}
}

// Upload validates and stores the bytes, creates the document row,
// grants the uploader a download ACL, and records the upload.
func (s *DefaultService) Upload(ctx context.Context, tenant *domain.Tenant, userID uint64, in UploadInput) (*domain.Document, error) {
	if in.Title == "" {
		return nil, errors.BadRequest("Title cannot be empty", nil)
	}

	if in.FolderID != nil {
		f, err := s.folders.FindByID(ctx, tenant, *in.FolderID)
		if defErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Folder not found", err)
		}
		if err != nil {
			return nil, err
		}
		allowed, err := s.engine.AllowsFolder(ctx, tenant, userID, f, domain.FolderWrite)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, errors.Forbidden("No write permission on folder", nil)
		}
	}

	stored, err := s.store.Put(ctx, in.Content, in.Size, in.Filename, tenant)
	if err != nil {
		return nil, err
	}

	doc := &domain.Document{
		FolderID:         in.FolderID,
		StoredFileID:     stored.ID,
		Title:            in.Title,
		Description:      in.Description,
		OriginalFilename: in.Filename,
		Tags:             in.Tags,
		UploadedByID:     &userID,
	}
	if err := s.repository.Create(ctx, tenant, doc); err != nil {
		return nil, err
	}

	// The uploader gets an explicit download grant, matching their
	// implicit owner rights if ownership is later transferred.
	uploaderACL := &domain.ACL{
		DocumentID:  doc.ID,
		UserID:      &userID,
		Permission:  domain.ActionDownload,
		GrantedByID: &userID,
	}
	if err := s.repository.CreateACL(ctx, tenant, uploaderACL); err != nil {
		return nil, err
	}

	s.recorder.RecordAsync(tenant, domain.AuditLog{
		DocumentID: &doc.ID,
		UserID:     &userID,
		Action:     domain.AuditUpload,
		IPAddress:  in.ClientIP,
		Details:    fmt.Sprintf("Uploaded: %s", doc.OriginalFilename),
	})
	s.cache.IncrementVersion(ctx, versionKey(tenant))

	doc.StoredFile = *stored
	return doc, nil
}

func versionKey(tenant *domain.Tenant) string {
	return fmt.Sprintf("tenant:%d:docs:version", tenant.ID)
}

// List returns the documents visible to the user, filtered by search
// query and tags, newest first.
func (s *DefaultService) List(ctx context.Context, tenant *domain.Tenant, userID uint64, query, tags string, page, pageSize int) (*PaginatedDocuments, error) {
	v := s.cache.GetVersion(ctx, versionKey(tenant))
	cacheKey := fmt.Sprintf("docs:t:%d:u:%d:v:%d:q:%s:g:%s:p:%d:ps:%d", tenant.ID, userID, v, query, tags, page, pageSize)

	var result PaginatedDocuments
	found, _ := s.cache.Get(ctx, cacheKey, &result)
	if found {
		return &result, nil
	}

	docs, err := s.engine.ListVisible(ctx, tenant, userID)
	if err != nil {
		return nil, err
	}
	docs = filterDocuments(docs, query, tags)

	total := len(docs)
	totalPages := (total + pageSize - 1) / pageSize
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	result = PaginatedDocuments{
		Data: docs[start:end],
		Meta: DocumentsMeta{
			Total:       total,
			CurrentPage: page,
			PerPage:     pageSize,
			TotalPage:   totalPages,
		},
	}
	go s.cache.Set(context.Background(), cacheKey, result, 24*time.Hour)

	return &result, nil
}

func filterDocuments(docs []domain.Document, query, tags string) []domain.Document {
	if query == "" && tags == "" {
		return docs
	}
	query = strings.ToLower(query)
	tags = strings.ToLower(tags)
	out := make([]domain.Document, 0, len(docs))
	for _, d := range docs {
		if query != "" &&
			!strings.Contains(strings.ToLower(d.Title), query) &&
			!strings.Contains(strings.ToLower(d.Description), query) &&
			!strings.Contains(strings.ToLower(d.OriginalFilename), query) {
			continue
		}
		if tags != "" && !strings.Contains(strings.ToLower(d.Tags), tags) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (s *DefaultService) Get(ctx context.Context, tenant *domain.Tenant, userID uint64, docID uint64, clientIP string) (*DocumentDetail, error) {
	doc, err := s.findAllowed(ctx, tenant, userID, docID, domain.ActionRead)
	if err != nil {
		return nil, err
	}

	s.recorder.RecordAsync(tenant, domain.AuditLog{
		DocumentID: &doc.ID,
		UserID:     &userID,
		Action:     domain.AuditView,
		IPAddress:  clientIP,
	})

	acls, err := s.repository.ListACLs(ctx, tenant, doc.ID)
	if err != nil {
		return nil, err
	}
	trail, err := s.recorder.ListForDocument(ctx, tenant, doc.ID, 20)
	if err != nil {
		return nil, err
	}

	detail := &DocumentDetail{Document: *doc, ACLs: acls, AuditTrail: trail}
	for _, check := range []struct {
		action domain.DocumentAction
		flag   *bool
	}{
		{domain.ActionDownload, &detail.CanDownload},
		{domain.ActionEdit, &detail.CanEdit},
		{domain.ActionDelete, &detail.CanDelete},
	} {
		allowed, err := s.engine.Allows(ctx, tenant, userID, doc, check.action)
		if err != nil {
			return nil, err
		}
		*check.flag = allowed
	}
	return detail, nil
}

func (s *DefaultService) Download(ctx context.Context, tenant *domain.Tenant, userID uint64, docID uint64, clientIP string) (*domain.Document, io.ReadCloser, error) {
	doc, err := s.findAllowed(ctx, tenant, userID, docID, domain.ActionDownload)
	if err != nil {
		return nil, nil, err
	}

	stream, err := s.store.Open(&doc.StoredFile)
	if err != nil {
		return nil, nil, err
	}

	s.recorder.RecordAsync(tenant, domain.AuditLog{
		DocumentID: &doc.ID,
		UserID:     &userID,
		Action:     domain.AuditDownload,
		IPAddress:  clientIP,
		Details:    fmt.Sprintf("Downloaded: %s", doc.OriginalFilename),
	})
	return doc, stream, nil
}

func (s *DefaultService) UpdateMeta(ctx context.Context, tenant *domain.Tenant, userID uint64, docID uint64, title, description, tags, clientIP string) (*domain.Document, error) {
	if title == "" {
		return nil, errors.BadRequest("Title cannot be empty", nil)
	}
	doc, err := s.findAllowed(ctx, tenant, userID, docID, domain.ActionEdit)
	if err != nil {
		return nil, err
	}

	if err := s.repository.UpdateMeta(ctx, tenant, docID, title, description, tags); err != nil {
		return nil, err
	}

	s.recorder.RecordAsync(tenant, domain.AuditLog{
		DocumentID: &doc.ID,
		UserID:     &userID,
		Action:     domain.AuditEdit,
		IPAddress:  clientIP,
		Details:    fmt.Sprintf("Edited: %s", title),
	})
	s.cache.IncrementVersion(ctx, versionKey(tenant))

	return s.repository.FindByID(ctx, tenant, docID)
}

// Delete removes the row first and records the deletion once it is
// gone, so a failed delete never leaves a trail entry claiming one
// happened. The entry carries the document ID only and does not need
// the row to still exist.
func (s *DefaultService) Delete(ctx context.Context, tenant *domain.Tenant, userID uint64, docID uint64, clientIP string) error {
	doc, err := s.findAllowed(ctx, tenant, userID, docID, domain.ActionDelete)
	if err != nil {
		return err
	}

	if err := s.repository.Delete(ctx, tenant, docID); err != nil {
		return err
	}

	if err := s.recorder.Record(ctx, tenant, domain.AuditLog{
		DocumentID: &doc.ID,
		UserID:     &userID,
		Action:     domain.AuditDelete,
		IPAddress:  clientIP,
		Details:    fmt.Sprintf("Deleted: %s", doc.Title),
	}); err != nil {
		return err
	}
	if err := s.store.Release(ctx, &doc.StoredFile); err != nil {
		return err
	}
	s.cache.IncrementVersion(ctx, versionKey(tenant))
	return nil
}

func (s *DefaultService) Grant(ctx context.Context, tenant *domain.Tenant, userID uint64, acl *domain.ACL) error {
	if err := acl.Validate(); err != nil {
		return errors.UnprocessableEntity(err.Error(), err)
	}

	doc, err := s.repository.FindByID(ctx, tenant, acl.DocumentID)
	if defErrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound("Document not found", err)
	}
	if err != nil {
		return err
	}
	if err := s.requireManager(ctx, tenant, userID, doc); err != nil {
		return err
	}

	acl.GrantedByID = &userID
	if err := s.repository.CreateACL(ctx, tenant, acl); err != nil {
		return err
	}
	s.cache.IncrementVersion(ctx, versionKey(tenant))
	return nil
}

func (s *DefaultService) Revoke(ctx context.Context, tenant *domain.Tenant, userID uint64, docID, aclID uint64) error {
	doc, err := s.repository.FindByID(ctx, tenant, docID)
	if defErrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound("Document not found", err)
	}
	if err != nil {
		return err
	}
	if err := s.requireManager(ctx, tenant, userID, doc); err != nil {
		return err
	}
	if err := s.repository.DeleteACL(ctx, tenant, docID, aclID); err != nil {
		return err
	}
	s.cache.IncrementVersion(ctx, versionKey(tenant))
	return nil
}

// requireManager restricts ACL management to the uploader and tenant
// admins.
func (s *DefaultService) requireManager(ctx context.Context, tenant *domain.Tenant, userID uint64, doc *domain.Document) error {
	if doc.UploadedByID != nil && *doc.UploadedByID == userID {
		return nil
	}
	isAdmin, err := s.engine.IsTenantAdmin(ctx, tenant, userID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return errors.Forbidden("Only the uploader or a tenant admin can manage document access", nil)
	}
	return nil
}

// findAllowed loads the document and resolves the permission, mapping
// deny to 403 and a missing row to 404.
func (s *DefaultService) findAllowed(ctx context.Context, tenant *domain.Tenant, userID uint64, docID uint64, action domain.DocumentAction) (*domain.Document, error) {
	doc, err := s.repository.FindByID(ctx, tenant, docID)
	if defErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("Document not found", err)
	}
	if err != nil {
		return nil, err
	}

	allowed, err := s.engine.Allows(ctx, tenant, userID, doc, action)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, errors.Forbidden("You don't have permission to perform this action", nil)
	}
	return doc, nil
}
