package payout

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sipcass/sipcass/pkg/authz"
	"github.com/sipcass/sipcass/pkg/cache"
	"github.com/sipcass/sipcass/pkg/metrics"
	"github.com/sipcass/sipcass/pkg/sheet"
	"github.com/sipcass/sipcass/pkg/uploads"
)

// RoleSource maps normalized employee ids to their account roles.
type RoleSource interface {
	RoleMap(ctx context.Context) (map[string]authz.Role, error)
}

// Service reads active uploads into the consolidated view and scopes it to
// callers.
type Service struct {
	store    *uploads.UploadStore
	files    *uploads.FileStorage
	roles    RoleSource
	renderer SlipRenderer
	tables   *cache.LRU[string, SourceTable]
	logger   *slog.Logger
}

// NewService creates a payout Service.
func NewService(store *uploads.UploadStore, files *uploads.FileStorage, roles RoleSource, renderer SlipRenderer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		files:    files,
		roles:    roles,
		renderer: renderer,
		logger:   logger,
	}
}

// UseTableCache keeps parsed uploads in c, keyed by upload id. Stored files
// are never rewritten, so an entry stays valid until it is evicted.
func (s *Service) UseTableCache(c *cache.LRU[string, SourceTable]) {
	s.tables = c
}

// Consolidated builds the consolidated view from the store's current active
// tables. Tables whose files are missing or unreadable are skipped.
func (s *Service) Consolidated(ctx context.Context) ([]EmployeeRecord, error) {
	start := time.Now()
	defer func() { metrics.ConsolidationDuration.Observe(time.Since(start).Seconds()) }()

	active, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	sources := make([]SourceTable, 0, len(active))
	for _, t := range active {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src, err := s.load(t)
		if err != nil {
			metrics.SkippedTables.Inc()
			s.logger.Warn("skipping unreadable payout file", "upload_id", t.ID, "name", t.OriginalName, "path", t.Path, "error", err)
			continue
		}
		sources = append(sources, src)
	}

	view := Consolidate(sources)
	metrics.ConsolidatedRecords.Set(float64(len(view)))
	return view, nil
}

func (s *Service) load(t uploads.UploadedTable) (SourceTable, error) {
	if s.tables != nil {
		if src, ok := s.tables.Get(t.ID); ok {
			metrics.TableCacheLookups.WithLabelValues("hit").Inc()
			return src, nil
		}
		metrics.TableCacheLookups.WithLabelValues("miss").Inc()
	}

	data, err := s.files.ReadFile(t.Path)
	if err != nil {
		return SourceTable{}, err
	}
	table, err := sheet.Read(bytes.NewReader(data))
	if err != nil {
		return SourceTable{}, err
	}
	if err := table.Require(RequiredColumns); err != nil {
		return SourceTable{}, err
	}
	records, issues := RecordsFromTable(table)
	for _, issue := range issues {
		s.logger.Warn("payout row issue", "name", t.OriginalName, "error", issue)
	}
	src := SourceTable{Name: t.OriginalName, UploadedAt: t.UploadedAt, Records: records}
	if s.tables != nil {
		s.tables.Set(t.ID, src)
	}
	return src, nil
}

// VisibleTo returns the rows of the consolidated view p may see, optionally
// narrowed to region.
func (s *Service) VisibleTo(ctx context.Context, p authz.Principal, region string) ([]Row, error) {
	view, err := s.Consolidated(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := s.roles.RoleMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("load account roles: %w", err)
	}
	return NarrowRegion(FilterForPrincipal(view, roles, p), region), nil
}

// Ingest validates a payout workbook and stores it as the active table for
// its filename, deactivating earlier uploads of the same name. Validation
// errors leave nothing behind.
func (s *Service) Ingest(ctx context.Context, filename string, data []byte, uploadedBy string) (*uploads.UploadedTable, error) {
	table, err := sheet.Parse(filename, data, RequiredColumns)
	if err != nil {
		if sheet.IsValidationError(err) {
			metrics.UploadsTotal.WithLabelValues(metrics.KindPayout, metrics.OutcomeRejected).Inc()
		} else {
			metrics.UploadsTotal.WithLabelValues(metrics.KindPayout, metrics.OutcomeError).Inc()
		}
		return nil, err
	}

	path, err := s.files.Save(filename, data)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(metrics.KindPayout, metrics.OutcomeError).Inc()
		return nil, err
	}

	rec, err := s.store.Replace(ctx, &uploads.UploadedTable{
		OriginalName: filename,
		Path:         path,
		UploadedBy:   uploadedBy,
		RowCount:     table.Len(),
	})
	if err != nil {
		if rmErr := s.files.Remove(path); rmErr != nil {
			s.logger.Error("remove orphaned upload", "path", path, "error", rmErr)
		}
		metrics.UploadsTotal.WithLabelValues(metrics.KindPayout, metrics.OutcomeError).Inc()
		return nil, err
	}

	metrics.UploadsTotal.WithLabelValues(metrics.KindPayout, metrics.OutcomeSuccess).Inc()
	metrics.UploadRows.WithLabelValues(metrics.KindPayout).Add(float64(table.Len()))
	s.logger.Info("payout table uploaded", "upload_id", rec.ID, "name", filename, "rows", table.Len(), "uploaded_by", uploadedBy)
	return rec, nil
}

// Latest returns the newest active upload, or nil when there is none.
func (s *Service) Latest(ctx context.Context) (*uploads.UploadedTable, error) {
	return s.store.Latest(ctx)
}

// RenderSlip renders the payout slip of employeeID if p can see it.
func (s *Service) RenderSlip(ctx context.Context, p authz.Principal, employeeID string) ([]byte, error) {
	rows, err := s.VisibleTo(ctx, p, "")
	if err != nil {
		return nil, err
	}
	row, err := FindEmployee(rows, authz.NormalizeID(employeeID))
	if err != nil {
		return nil, err
	}
	doc, err := s.renderer.RenderSlip(SlipFor(row))
	if err != nil {
		return nil, fmt.Errorf("render slip: %w", err)
	}
	metrics.SlipsRendered.Inc()
	return doc, nil
}
