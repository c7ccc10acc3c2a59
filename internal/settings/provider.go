// Package settings resolves the ingestion policy from site settings layered over config defaults.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gituserindia/eptest-sub000/internal/common"
	"github.com/gituserindia/eptest-sub000/internal/domain"
	"github.com/gituserindia/eptest-sub000/internal/repository"
	"github.com/gituserindia/eptest-sub000/pkg/cache"
	pkglogger "github.com/gituserindia/eptest-sub000/pkg/logger"
)

// Setting keys
const (
	KeyMaxUploadBytes  = "max_upload_bytes"
	KeyRasterDensity   = "raster_density"
	KeyRasterQuality   = "raster_quality"
	KeyOGThumbWidth    = "og_thumb_width"
	KeyOGThumbHeight   = "og_thumb_height"
	KeyListThumbHeight = "list_thumb_height"
	KeyThumbQuality    = "thumb_quality"
)

var allKeys = []string{
	KeyMaxUploadBytes, KeyRasterDensity, KeyRasterQuality,
	KeyOGThumbWidth, KeyOGThumbHeight, KeyListThumbHeight, KeyThumbQuality,
}

// Provider resolves an IngestPolicy per request
type Provider struct {
	repo     repository.SettingRepository
	cache    cache.Service
	defaults domain.IngestPolicy
}

// NewProvider creates a Provider; repo and c may be nil
func NewProvider(repo repository.SettingRepository, c cache.Service, defaults domain.IngestPolicy) *Provider {
	return &Provider{repo: repo, cache: c, defaults: defaults}
}

// Defaults returns the config-level policy
func (p *Provider) Defaults() domain.IngestPolicy {
	return p.defaults
}

// 허용 범위 (범위를 벗어난 저장값은 무시)
var limits = map[string][2]int64{
	KeyMaxUploadBytes:  {1, 1 << 40},
	KeyRasterDensity:   {36, 1200},
	KeyRasterQuality:   {1, 100},
	KeyOGThumbWidth:    {1, 10000},
	KeyOGThumbHeight:   {1, 10000},
	KeyListThumbHeight: {1, 10000},
	KeyThumbQuality:    {1, 100},
}

// ErrReadOnly is returned by Update when no settings table is configured
var ErrReadOnly = errors.New("settings are read-only")

// Policy returns the defaults overridden by any valid stored setting.
// Lookup failures fall back to the defaults.
func (p *Provider) Policy(ctx context.Context) domain.IngestPolicy {
	values := p.load(ctx)
	policy := p.defaults

	overrideInt64(values, KeyMaxUploadBytes, &policy.MaxUploadBytes)
	overrideInt(values, KeyRasterDensity, &policy.RasterDensity)
	overrideInt(values, KeyRasterQuality, &policy.RasterQuality)
	overrideInt(values, KeyOGThumbWidth, &policy.OGThumbWidth)
	overrideInt(values, KeyOGThumbHeight, &policy.OGThumbHeight)
	overrideInt(values, KeyListThumbHeight, &policy.ListThumbHeight)
	overrideInt(values, KeyThumbQuality, &policy.ThumbQuality)

	return policy
}

// Update validates every value first, then stores them and drops the cached snapshot.
// Nothing is written when any key or value is rejected.
func (p *Provider) Update(ctx context.Context, values map[string]string) error {
	if p.repo == nil {
		return ErrReadOnly
	}
	if len(values) == 0 {
		return common.NewValidationError("No settings supplied")
	}
	for key, raw := range values {
		if _, ok := limits[key]; !ok {
			return common.NewValidationError(fmt.Sprintf("Unknown setting %q", key))
		}
		if _, ok := parseBounded(key, raw); !ok {
			return common.NewValidationError(fmt.Sprintf("Invalid value for %s", key))
		}
	}

	for key, raw := range values {
		if err := p.repo.Set(ctx, key, strings.TrimSpace(raw)); err != nil {
			p.Invalidate(ctx)
			return common.NewStageError(common.StagePersistence, "Failed to save settings", err)
		}
	}
	p.Invalidate(ctx)
	pkglogger.FromContext(ctx).Info().Int("keys", len(values)).Msg("ingest settings updated")
	return nil
}

// Invalidate drops the cached snapshot after settings change
func (p *Provider) Invalidate(ctx context.Context) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Delete(ctx, cache.SettingsKey("ingest")); err != nil {
		pkglogger.FromContext(ctx).Warn().Err(err).Msg("settings cache invalidate failed")
	}
}

func (p *Provider) load(ctx context.Context) map[string]string {
	if p.repo == nil {
		return nil
	}

	key := cache.SettingsKey("ingest")
	if p.cache != nil {
		var cached map[string]string
		err := p.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached
		}
		if !errors.Is(err, cache.ErrMiss) {
			pkglogger.GetLogger().Warn().Err(err).Msg("settings cache read failed")
		}
	}

	values, err := p.repo.GetMany(ctx, allKeys)
	if err != nil {
		pkglogger.GetLogger().Warn().Err(err).Msg("settings lookup failed, using config defaults")
		return nil
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, values, cache.TTLSettings); err != nil {
			pkglogger.GetLogger().Warn().Err(err).Msg("settings cache write failed")
		}
	}
	return values
}

func parseBounded(key, raw string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	lim := limits[key]
	return n, n >= lim[0] && n <= lim[1]
}

func overrideInt(values map[string]string, key string, dst *int) {
	var n int64
	if overrideInt64(values, key, &n) {
		*dst = int(n)
	}
}

func overrideInt64(values map[string]string, key string, dst *int64) bool {
	raw, ok := values[key]
	if !ok {
		return false
	}
	n, ok := parseBounded(key, raw)
	if !ok {
		pkglogger.GetLogger().Warn().Str("key", key).Str("value", raw).Msg("ignoring invalid setting")
		return false
	}
	*dst = n
	return true
}
