package services

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/couponhub/coupon_api/dto"
	"github.com/couponhub/coupon_api/shared"
)

// MediaService handles brand logo uploads: validate, store in MinIO, attach
// the resulting URL to the brand.
type MediaService struct {
	appContext.DefaultService

	catalogSvc *CatalogService
	minioSvc   *MinIOService
	auditSvc   *AuditService
	baseURL    string
}

const MEDIA_SVC = "media_svc"

const maxLogoSize = 2 * 1024 * 1024

func (svc MediaService) Id() string {
	return MEDIA_SVC
}

func (svc *MediaService) Configure(ctx *appContext.Context) error {
	svc.baseURL = os.Getenv("BASE_URL")
	if svc.baseURL == "" {
		svc.baseURL = "http://localhost:8000"
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *MediaService) Start() error {
	svc.catalogSvc = svc.Service(CATALOG_SVC).(*CatalogService)
	svc.minioSvc = svc.Service(MINIO_SVC).(*MinIOService)
	svc.auditSvc = svc.Service(AUDIT_SVC).(*AuditService)
	return nil
}

func (svc *MediaService) UploadBrandLogo(brandID string, file *multipart.FileHeader, actor dto.Identity, reqCtx dto.RequestContext) (*dto.MediaUploadResponse, error) {
	if !isValidImageFile(file.Filename) {
		return nil, shared.NewBadRequestError(nil, "Invalid image file format. Supported: JPG, PNG, WEBP, SVG")
	}

	if file.Size > maxLogoSize {
		return nil, shared.NewBadRequestError(nil, "Logo file too large. Maximum size: 2MB")
	}

	ext := filepath.Ext(file.Filename)
	fileName := fmt.Sprintf("%s_%d%s", brandID, time.Now().Unix(), ext)
	objectName := fmt.Sprintf("brand-logos/%s", fileName)

	src, err := file.Open()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to open uploaded file")
	}
	defer src.Close()

	if _, err := svc.minioSvc.UploadFile(objectName, src, file.Size, file.Header.Get("Content-Type")); err != nil {
		return nil, shared.NewInternalError(err, "Failed to upload file to storage")
	}

	fileURL, err := svc.minioSvc.GetFileURL(objectName, 24*time.Hour)
	if err != nil {
		log.WithFields(log.Fields{
			"category": "system",
			"object":   objectName,
			"error":    err.Error(),
		}).Warn("Failed to generate presigned URL, falling back to direct path")
		fileURL = fmt.Sprintf("%s/%s/%s", svc.baseURL, svc.minioSvc.GetBucketName(), objectName)
	}

	if err := svc.catalogSvc.SetBrandLogo(brandID, fileURL); err != nil {
		// Orphaned object if this fails; clean up best-effort.
		_ = svc.minioSvc.DeleteFile(objectName)
		return nil, err
	}

	svc.auditSvc.LogBrandAction(shared.ActionUpdate, actor, brandID, "", nil, map[string]interface{}{
		"logo_url": fileURL,
	}, reqCtx)

	return &dto.MediaUploadResponse{
		URL:      fileURL,
		FileName: fileName,
		Size:     file.Size,
	}, nil
}

func isValidImageFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	validExts := []string{".jpg", ".jpeg", ".png", ".webp", ".svg"}

	for _, validExt := range validExts {
		if ext == validExt {
			return true
		}
	}
	return false
}
