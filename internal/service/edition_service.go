package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gituserindia/eptest-sub000/internal/common"
	"github.com/gituserindia/eptest-sub000/internal/domain"
	"github.com/gituserindia/eptest-sub000/internal/raster"
	"github.com/gituserindia/eptest-sub000/internal/repository"
	"github.com/gituserindia/eptest-sub000/internal/thumbnail"
	pkglogger "github.com/gituserindia/eptest-sub000/pkg/logger"
	"github.com/gituserindia/eptest-sub000/pkg/storage"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	pdfContentType = "application/pdf"
	maxTitleLen    = 255
	filePerm       = 0o644
)

// Client-facing failure messages
const (
	msgDirectoryFailed  = "Failed to create directory"
	msgUploadFailed     = "Failed to store uploaded PDF"
	msgConversionFailed = "PDF conversion failed"
	msgSaveFailed       = "Failed to save edition"
	msgDeleteFailed     = "Failed to delete edition"
	msgLookupFailed     = "Failed to load edition"
	msgNotFound         = "Edition not found"
)

// PolicySource resolves the knobs applied to one ingestion
type PolicySource interface {
	Policy(ctx context.Context) domain.IngestPolicy
}

// Mirror copies committed edition trees to secondary storage
type Mirror interface {
	MirrorDir(ctx context.Context, localDir, webDir string) (int, error)
	DeletePrefix(ctx context.Context, webDir string) (int, error)
	CDNURL(webPath string) string
}

// EditionService drives the edition ingestion pipeline:
// directory allocation, PDF storage, rasterization, thumbnails and the DB row.
type EditionService struct {
	db         *gorm.DB
	editions   repository.EditionRepository
	categories repository.CategoryRepository
	layout     *storage.Layout
	converter  raster.Converter
	thumbs     thumbnail.Generator
	policy     PolicySource
	mirror     Mirror
}

// NewEditionService creates a new EditionService
func NewEditionService(
	db *gorm.DB,
	editions repository.EditionRepository,
	categories repository.CategoryRepository,
	layout *storage.Layout,
	converter raster.Converter,
	thumbs thumbnail.Generator,
	policy PolicySource,
) *EditionService {
	return &EditionService{
		db:         db,
		editions:   editions,
		categories: categories,
		layout:     layout,
		converter:  converter,
		thumbs:     thumbs,
		policy:     policy,
	}
}

// SetMirror enables the post-commit secondary storage copy
func (s *EditionService) SetMirror(m Mirror) {
	s.mirror = m
}

// editionFields is the validated form of EditionInput
type editionFields struct {
	title        string
	date         time.Time
	categoryID   int64
	description  *string
	status       domain.EditionStatus
	statusReason *string
}

// artifacts are the files produced by one ingestion
type artifacts struct {
	loc       *storage.Location
	fileSize  int64
	pageCount int
	ogThumb   *string
	listThumb *string
}

// Create ingests a new edition and returns its id.
// Nothing is written before all input has been validated.
func (s *EditionService) Create(ctx context.Context, actor domain.ActorContext, input domain.EditionInput, file *multipart.FileHeader) (id int64, err error) {
	defer func() { recordOp("create", err) }()

	if actor.UserID <= 0 {
		return 0, common.NewStageError(common.StageValidation, "Missing uploader identity", common.ErrUnauthorized)
	}
	fields, err := s.validate(ctx, input)
	if err != nil {
		return 0, err
	}
	if file == nil {
		return 0, common.NewValidationError("PDF file is required")
	}
	policy := s.policy.Policy(ctx)
	if err := validateUpload(file, policy); err != nil {
		return 0, err
	}

	var art *artifacts
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.ingest(ctx, fields.date, file, policy)
		art = a
		if err != nil {
			return err
		}

		edition := &domain.Edition{UploaderID: actor.UserID}
		fields.apply(edition)
		art.apply(edition)
		if err := s.editions.WithTx(tx).Create(edition); err != nil {
			return common.NewStageError(common.StagePersistence, msgSaveFailed, err)
		}
		id = edition.ID
		return nil
	})
	if err != nil {
		if art != nil {
			s.removeTree(ctx, art.loc.Dir)
		}
		err = asPersistence(err, msgSaveFailed)
		logFailure(ctx, "create", err)
		return 0, err
	}

	log := editionLog(ctx, id)
	log.Info().
		Int64("user_id", actor.UserID).
		Int("pages", art.pageCount).
		Int64("size", art.fileSize).
		Str("dir", art.loc.WebDir).
		Msg("edition created")

	s.mirrorTree(ctx, art.loc)
	return id, nil
}

// Edit updates an edition's fields; a supplied file replaces the stored PDF and all derived images.
// Without a file the existing pdf/thumbnail/page-count/size metadata is kept unchanged.
func (s *EditionService) Edit(ctx context.Context, actor domain.ActorContext, id int64, input domain.EditionInput, file *multipart.FileHeader) (err error) {
	defer func() { recordOp("edit", err) }()

	fields, err := s.validate(ctx, input)
	if err != nil {
		return err
	}
	policy := s.policy.Policy(ctx)
	if file != nil {
		if err := validateUpload(file, policy); err != nil {
			return err
		}
	}

	var (
		art       *artifacts
		oldWebDir string
		replaced  bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.editions.WithTx(tx)
		edition, err := repo.FindByID(id)
		if err != nil {
			return lookupError(err)
		}

		fields.apply(edition)

		if file != nil {
			oldWebDir = path.Dir(edition.PDFPath)
			s.removeEditionFiles(ctx, edition)
			replaced = true

			a, err := s.ingest(ctx, fields.date, file, policy)
			art = a
			if err != nil {
				return err
			}
			art.apply(edition)
		}

		if err := repo.Update(edition); err != nil {
			return common.NewStageError(common.StagePersistence, msgSaveFailed, err)
		}
		return nil
	})
	if err != nil {
		if art != nil {
			s.removeTree(ctx, art.loc.Dir)
		}
		if replaced {
			// 기존 파일은 이미 삭제됨, 롤백된 행은 없는 경로를 가리킴
			editionLog(ctx, id).Warn().
				Str("old_dir", oldWebDir).
				Msg("edit failed after previous files were removed")
		}
		err = asPersistence(err, msgSaveFailed)
		logFailure(ctx, "edit", err)
		return err
	}

	log := editionLog(ctx, id)
	event := log.Info().Int64("user_id", actor.UserID).Bool("replaced", replaced)
	if art != nil {
		event = event.Int("pages", art.pageCount).Str("dir", art.loc.WebDir)
	}
	event.Msg("edition updated")

	if replaced {
		s.unmirror(ctx, oldWebDir)
		s.mirrorTree(ctx, art.loc)
	}
	return nil
}

// Delete removes an edition row together with its directory tree.
// Deleting an id that no longer exists fails with StageNotFound and touches no files.
func (s *EditionService) Delete(ctx context.Context, actor domain.ActorContext, id int64) (err error) {
	defer func() { recordOp("delete", err) }()

	var webDir string
	filesRemoved := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.editions.WithTx(tx)
		edition, err := repo.FindByID(id)
		if err != nil {
			return lookupError(err)
		}

		webDir = path.Dir(edition.PDFPath)
		s.removeEditionFiles(ctx, edition)
		filesRemoved = true

		if err := repo.Delete(id); err != nil {
			if errors.Is(err, common.ErrEditionNotFound) {
				return common.NewStageError(common.StageNotFound, msgNotFound, err)
			}
			return common.NewStageError(common.StagePersistence, msgDeleteFailed, err)
		}
		return nil
	})
	if err != nil {
		if filesRemoved {
			editionLog(ctx, id).Warn().
				Str("dir", webDir).
				Msg("edition files removed but row delete failed")
		}
		err = asPersistence(err, msgDeleteFailed)
		logFailure(ctx, "delete", err)
		return err
	}

	editionLog(ctx, id).Info().Int64("user_id", actor.UserID).Str("dir", webDir).Msg("edition deleted")
	s.unmirror(ctx, webDir)
	return nil
}

// Get returns one edition; private editions are only visible when includePrivate is set
func (s *EditionService) Get(ctx context.Context, id int64, includePrivate bool) (*domain.Edition, error) {
	edition, err := s.editions.WithTx(s.db.WithContext(ctx)).FindByID(id)
	if err != nil {
		return nil, lookupError(err)
	}
	if !includePrivate && edition.Status != domain.EditionStatusPublished {
		return nil, common.NewStageError(common.StageNotFound, msgNotFound, common.ErrEditionNotFound)
	}
	return edition, nil
}

// ListPublished lists published editions for the public browse
func (s *EditionService) ListPublished(ctx context.Context, filter domain.EditionFilter) ([]domain.Edition, error) {
	editions, err := s.editions.WithTx(s.db.WithContext(ctx)).ListPublished(filter)
	if err != nil {
		return nil, common.NewStageError(common.StagePersistence, "Failed to list editions", err)
	}
	return editions, nil
}

// ingest allocates a location, stores the upload, renders pages and derives thumbnails.
// The returned artifacts are non-nil as soon as a directory exists, even on error.
func (s *EditionService) ingest(ctx context.Context, date time.Time, file *multipart.FileHeader, policy domain.IngestPolicy) (*artifacts, error) {
	loc, err := s.layout.Allocate(date)
	if err != nil {
		return nil, common.NewStageError(common.StageStorage, msgDirectoryFailed, err)
	}
	art := &artifacts{loc: loc}
	log := pkglogger.FromContext(ctx).With().Str("dir", loc.WebDir).Logger()

	size, err := storeUpload(file, loc.PDFPath())
	if err != nil {
		return art, common.NewStageError(common.StageStorage, msgUploadFailed, err)
	}
	art.fileSize = size

	start := time.Now()
	res, err := s.converter.Render(ctx, loc.PDFPath(), loc.ImagesDir, raster.Options{
		Density: policy.RasterDensity,
		Quality: policy.RasterQuality,
	})
	if err != nil {
		recordRender(start, 0)
		return art, common.NewStageError(common.StageConversion, msgConversionFailed, err)
	}
	recordRender(start, res.PageCount)
	if res.PageCount < 1 {
		return art, common.NewStageError(common.StageConversion, msgConversionFailed, raster.ErrNoOutput)
	}
	art.pageCount = res.PageCount
	log.Debug().Int("pages", res.PageCount).Dur("duration", time.Since(start)).Msg("pages rendered")

	thumbs := s.thumbs.Generate(res.FirstPage, loc.ImagesDir, thumbnail.Spec{
		OGWidth:    policy.OGThumbWidth,
		OGHeight:   policy.OGThumbHeight,
		ListHeight: policy.ListThumbHeight,
		Quality:    policy.ThumbQuality,
	})
	art.ogThumb = thumbPath(log, loc, storage.OGThumbName, thumbs.OGPath, thumbs.OGErr)
	art.listThumb = thumbPath(log, loc, storage.ListThumbName, thumbs.ListPath, thumbs.ListErr)

	return art, nil
}

func thumbPath(log zerolog.Logger, loc *storage.Location, name, produced string, err error) *string {
	if err != nil || produced == "" {
		log.Warn().Err(err).Str("stage", string(common.StageThumbnail)).Str("thumb", name).Msg("thumbnail generation failed")
		return nil
	}
	web := loc.WebImagePath(name)
	return &web
}

func (a *artifacts) apply(e *domain.Edition) {
	e.PDFPath = a.loc.WebPDFPath()
	e.OGThumbPath = a.ogThumb
	e.ListThumbPath = a.listThumb
	e.PageCount = a.pageCount
	e.FileSize = a.fileSize
}

func (f *editionFields) apply(e *domain.Edition) {
	e.Title = f.title
	e.PublicationDate = f.date
	e.CategoryID = f.categoryID
	e.Description = f.description
	e.Status = f.status
	e.StatusReason = f.statusReason
}

// validate checks the non-file fields, including category existence
func (s *EditionService) validate(ctx context.Context, in domain.EditionInput) (*editionFields, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, common.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return nil, common.NewValidationError(fmt.Sprintf("Title must be at most %d characters", maxTitleLen))
	}

	rawDate := strings.TrimSpace(in.PublicationDate)
	if rawDate == "" {
		return nil, common.NewValidationError("Publication date is required")
	}
	date, err := domain.ParseDate(rawDate)
	if err != nil {
		return nil, common.NewValidationError("Publication date must be a valid YYYY-MM-DD date")
	}

	if in.CategoryID <= 0 {
		return nil, common.NewValidationError("Category is required")
	}

	status, ok := domain.ParseEditionStatus(in.Status)
	if !ok {
		return nil, common.NewValidationError("Status must be published or private")
	}

	exists, err := s.categories.Exists(ctx, in.CategoryID)
	if err != nil {
		return nil, common.NewStageError(common.StagePersistence, "Failed to verify category", err)
	}
	if !exists {
		return nil, &common.IngestError{Stage: common.StageValidation, Reason: "Category does not exist", Err: common.ErrCategoryNotFound}
	}

	return &editionFields{
		title:        title,
		date:         date,
		categoryID:   in.CategoryID,
		description:  optional(in.Description),
		status:       status,
		statusReason: optional(in.StatusReason),
	}, nil
}

// validateUpload checks the declared type and size; a file exactly at the limit is accepted
func validateUpload(file *multipart.FileHeader, policy domain.IngestPolicy) error {
	mediaType, _, err := mime.ParseMediaType(file.Header.Get("Content-Type"))
	if err != nil || mediaType != pdfContentType {
		return common.NewValidationError("Only PDF files are allowed")
	}
	if file.Size <= 0 {
		return common.NewValidationError("Uploaded file is empty")
	}
	if file.Size > policy.MaxUploadBytes {
		return common.NewValidationError("File exceeds the maximum size of " + humanSize(policy.MaxUploadBytes))
	}
	return nil
}

// storeUpload copies the multipart file to dst and returns the bytes written
func storeUpload(file *multipart.FileHeader, dst string) (int64, error) {
	src, err := file.Open()
	if err != nil {
		return 0, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return 0, fmt.Errorf("create pdf: %w", err)
	}
	n, err := io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("write pdf: %w", err)
	}
	// umask 무시하고 고정 권한
	if err := os.Chmod(dst, filePerm); err != nil {
		return n, fmt.Errorf("chmod pdf: %w", err)
	}
	return n, nil
}

// removeEditionFiles deletes the tree an existing row points at
func (s *EditionService) removeEditionFiles(ctx context.Context, e *domain.Edition) {
	dir, err := s.layout.EditionDirOf(e.PDFPath)
	if err != nil {
		cleanupWarnings.Inc()
		editionLog(ctx, e.ID).Warn().Err(err).Str("pdf_path", e.PDFPath).Msg("cannot resolve edition directory")
		return
	}
	s.removeTree(ctx, dir)
}

func (s *EditionService) removeTree(ctx context.Context, dir string) {
	for _, w := range s.layout.RemoveTree(dir) {
		cleanupWarnings.Inc()
		pkglogger.FromContext(ctx).Warn().Err(w).Str("dir", dir).Msg("cleanup warning")
	}
}

func (s *EditionService) mirrorTree(ctx context.Context, loc *storage.Location) {
	if s.mirror == nil || loc == nil {
		return
	}
	n, err := s.mirror.MirrorDir(ctx, loc.Dir, loc.WebDir)
	if err != nil {
		pkglogger.FromContext(ctx).Warn().Err(err).Str("dir", loc.WebDir).Int("uploaded", n).Msg("mirror upload failed")
		return
	}
	pkglogger.FromContext(ctx).Info().
		Str("dir", loc.WebDir).
		Int("uploaded", n).
		Str("cdn", s.mirror.CDNURL(loc.WebDir)).
		Msg("edition mirrored")
}

func (s *EditionService) unmirror(ctx context.Context, webDir string) {
	if s.mirror == nil || webDir == "" || webDir == "." {
		return
	}
	if _, err := s.mirror.DeletePrefix(ctx, webDir); err != nil {
		pkglogger.FromContext(ctx).Warn().Err(err).Str("dir", webDir).Msg("mirror delete failed")
	}
}

func lookupError(err error) error {
	if errors.Is(err, common.ErrEditionNotFound) {
		return common.NewStageError(common.StageNotFound, msgNotFound, err)
	}
	return common.NewStageError(common.StagePersistence, msgLookupFailed, err)
}

// asPersistence classifies errors without a stage, e.g. a failed commit
func asPersistence(err error, reason string) error {
	if common.StageOf(err) != "" {
		return err
	}
	return common.NewStageError(common.StagePersistence, reason, err)
}

func logFailure(ctx context.Context, operation string, err error) {
	event := pkglogger.FromContext(ctx).Error()
	if stage := common.StageOf(err); stage == common.StageNotFound || stage == common.StageValidation {
		event = pkglogger.FromContext(ctx).Warn()
	}
	event.
		Err(err).
		Str("operation", operation).
		Str("stage", string(common.StageOf(err))).
		Msg("edition operation failed")
}

func humanSize(n int64) string {
	const mb = 1024 * 1024
	if n >= mb && n%mb == 0 {
		return fmt.Sprintf("%d MB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}

func editionLog(ctx context.Context, id int64) *zerolog.Logger {
	l := pkglogger.FromContext(ctx).With().Int64("edition_id", id).Logger()
	return &l
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
