package catalog

import (
	"context"
	"fmt"

	"brick-manager/core/logger"
	"brick-manager/feature/missingparts/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Uncategorized is the category name used for parts without a category.
const Uncategorized = "No Category"

// DBGateway reads catalog entries from the part_info, categories and
// part_storage tables. Refs missing from part_info fall back to the name
// and image stored on user_minifigure_parts.
type DBGateway struct {
	db        *gorm.DB
	batchSize int
	logger    *zap.Logger
}

// NewDBGateway creates a gateway over db.
func NewDBGateway(db *gorm.DB, cfg Config, l *zap.Logger) *DBGateway {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 500
	}
	return &DBGateway{db: db, batchSize: batch, logger: logger.OrNop(l)}
}

type partInfoRow struct {
	PartNum      string  `gorm:"column:part_num"`
	Name         *string `gorm:"column:name"`
	CategoryID   *int    `gorm:"column:category_id"`
	CategoryName *string `gorm:"column:category_name"`
	PartImgURL   *string `gorm:"column:part_img_url"`
}

// LookupBulk resolves refs in chunks of the configured batch size.
func (g *DBGateway) LookupBulk(ctx context.Context, refs []string) ([]models.CatalogEntry, error) {
	if g.db == nil {
		return nil, ErrNoDatabase
	}

	refs = normalizeRefs(refs)
	out := make([]models.CatalogEntry, 0, len(refs))
	for start := 0; start < len(refs); start += g.batchSize {
		end := start + g.batchSize
		if end > len(refs) {
			end = len(refs)
		}
		entries, err := g.lookupChunk(ctx, refs[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}

	g.logger.Debug("Catalog lookup finished",
		zap.Int("requested", len(refs)),
		zap.Int("resolved", len(out)))
	return out, nil
}

func (g *DBGateway) lookupChunk(ctx context.Context, chunk []string) ([]models.CatalogEntry, error) {
	db := g.db.WithContext(ctx)

	var rows []partInfoRow
	err := db.Table("part_info").
		Select("part_info.part_num, part_info.name, part_info.category_id, categories.name AS category_name, part_info.part_img_url").
		Joins("LEFT JOIN categories ON categories.id = part_info.category_id").
		Where("part_info.part_num IN ?", chunk).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query part_info: %w", err)
	}

	var storage []models.PartStorage
	if err := db.Where("part_num IN ?", chunk).Order("id").Find(&storage).Error; err != nil {
		return nil, fmt.Errorf("failed to query part_storage: %w", err)
	}
	locations := make(map[string]string, len(storage))
	for _, s := range storage {
		if _, ok := locations[s.PartNum]; !ok {
			locations[s.PartNum] = s.Label()
		}
	}

	byRef := make(map[string]models.CatalogEntry, len(chunk))
	for _, r := range rows {
		if _, ok := byRef[r.PartNum]; ok {
			continue
		}
		e := models.CatalogEntry{
			ItemRef:      r.PartNum,
			DisplayName:  deref(r.Name),
			CategoryName: Uncategorized,
			ImageURL:     deref(r.PartImgURL),
			Location:     locations[r.PartNum],
		}
		if r.CategoryID != nil {
			e.CategoryID = *r.CategoryID
		}
		if r.CategoryName != nil && *r.CategoryName != "" {
			e.CategoryName = *r.CategoryName
		}
		byRef[r.PartNum] = e
	}

	var unknown []string
	for _, ref := range chunk {
		if _, ok := byRef[ref]; !ok {
			unknown = append(unknown, ref)
		}
	}
	if len(unknown) > 0 {
		var figs []models.UserMinifigurePart
		err := db.Select("id", "part_num", "name", "part_img_url").
			Where("part_num IN ?", unknown).
			Order("id").
			Find(&figs).Error
		if err != nil {
			return nil, fmt.Errorf("failed to query user_minifigure_parts: %w", err)
		}
		for _, f := range figs {
			if _, ok := byRef[f.PartNum]; ok {
				continue
			}
			byRef[f.PartNum] = models.CatalogEntry{
				ItemRef:      f.PartNum,
				DisplayName:  f.Name,
				CategoryName: Uncategorized,
				ImageURL:     f.PartImgURL,
				Location:     locations[f.PartNum],
			}
		}
	}

	out := make([]models.CatalogEntry, 0, len(byRef))
	for _, ref := range chunk {
		if e, ok := byRef[ref]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
