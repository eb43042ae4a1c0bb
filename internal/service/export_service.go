package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/internship-tracker-api/internal/models"
	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
	"github.com/noah-isme/internship-tracker-api/pkg/export"
	"github.com/noah-isme/internship-tracker-api/pkg/storage"
)

type datasetBuilder interface {
	Dataset(ctx context.Context, scope models.Scope, entity models.ReportEntity, filter models.ProjectionFilter) (export.Dataset, string, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// RenderedExport is a report rendered in memory for a direct download.
type RenderedExport struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders projections and persists rendered files.
type ExportService struct {
	projection datasetBuilder
	storage    fileStorage
	renderers  map[models.ReportFormat]renderFunc
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        ExportConfig
	now        func() time.Time
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type renderFunc func(data export.Dataset, title string) ([]byte, error)

// NewExportService constructs an ExportService. storage and signer may be nil
// when only synchronous exports are served.
func NewExportService(projection datasetBuilder, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		projection: projection,
		storage:    storage,
		renderers: map[models.ReportFormat]renderFunc{
			models.ReportFormatCSV: func(data export.Dataset, _ string) ([]byte, error) { return csv.Render(data) },
			models.ReportFormatPDF: pdf.Render,
		},
		signer: signer,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Export renders the scoped projection of entity in the requested format.
// Only scopes that oversee other users may export.
func (s *ExportService) Export(ctx context.Context, scope models.Scope, entity models.ReportEntity, filter models.ProjectionFilter, format models.ReportFormat) (*RenderedExport, error) {
	if !scope.Oversees() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins and supervisors can export reports")
	}
	if format == "" {
		format = models.ReportFormatPDF
	}
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be pdf or csv")
	}
	if !entity.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown report entity")
	}
	dataset, title, err := s.projection.Dataset(ctx, scope, entity, filter)
	if err != nil {
		return nil, err
	}
	payload, err := s.render(dataset, title, format)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render report")
	}
	return &RenderedExport{
		Filename:    s.buildFilename(string(entity), filter.Date, format),
		ContentType: format.ContentType(),
		Data:        payload,
	}, nil
}

// Generate renders the job's projection with the creator's scope, stores the
// file and signs a download link for it.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, errors.New("export: nil job")
	}
	if s.storage == nil || s.signer == nil {
		return nil, errors.New("export: storage not configured")
	}
	params := job.Params
	filter, err := ParseFilter(deref(params.Date), deref(params.Status))
	if err != nil {
		return nil, err
	}
	dataset, title, err := s.projection.Dataset(ctx, params.Scope, job.Type.Entity(), filter)
	if err != nil {
		return nil, err
	}
	payload, err := s.render(dataset, title, params.Format)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", job.Type, err)
	}
	relPath, err := s.storage.Save(s.buildFilename(string(job.Type), filter.Date, params.Format), payload)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", job.Type, err)
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, fmt.Errorf("sign %s: %w", relPath, err)
	}
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          s.downloadURL(token),
		Format:       params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *ExportService) downloadURL(token string) string {
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return prefix + "/export/" + token
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	if s.signer == nil {
		return "", "", time.Time{}, storage.ErrInvalidToken
	}
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) render(dataset export.Dataset, title string, format models.ReportFormat) ([]byte, error) {
	render, ok := s.renderers[format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return render(dataset, title)
}

func (s *ExportService) buildFilename(entity string, date *time.Time, format models.ReportFormat) string {
	day := "all"
	if date != nil {
		day = date.Format(DateLayout)
	}
	return fmt.Sprintf("%s_%s_%s.%s", sanitizeFilename(entity), day, s.now().UTC().Format("20060102_150405"), format)
}

// sanitizeFilename lowercases raw and keeps only [a-z0-9_-], capped at 100 bytes.
func sanitizeFilename(raw string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ' || r == '/' || r == '\\' || r == ':' || r == '.':
			return '_'
		default:
			return -1
		}
	}, strings.ToLower(raw))
	if clean == "" {
		return "na"
	}
	if len(clean) > 100 {
		clean = clean[:100]
	}
	return clean
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
