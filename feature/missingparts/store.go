package missingparts

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"brick-manager/feature/missingparts/models"

	"gorm.io/gorm"
)

// ErrNoStore is returned when the collection store has no database.
var ErrNoStore = errors.New("missingparts: collection store not configured")

// DefaultExcludedStatuses are the user set statuses hidden from dashboard totals.
var DefaultExcludedStatuses = []string{"assembled", "konvolut"}

// Scope narrows the records a CollectionStore returns.
type Scope struct {
	// ExcludeStatuses drops every record of a user set with one of these statuses.
	ExcludeStatuses []string
}

// CollectionStore supplies the ownership records of a collection.
type CollectionStore interface {
	Records(ctx context.Context, scope Scope) ([]models.OwnershipRecord, error)
}

// DBStore reads ownership records from parts_in_set and user_minifigure_parts.
type DBStore struct {
	db *gorm.DB
}

// NewDBStore creates a store over db.
func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

type ownershipRow struct {
	ID           int     `gorm:"column:id"`
	PartNum      string  `gorm:"column:part_num"`
	Color        *string `gorm:"column:color"`
	Quantity     int     `gorm:"column:quantity"`
	HaveQuantity int     `gorm:"column:have_quantity"`
	UserSetID    int     `gorm:"column:user_set_id"`
	IsSpare      bool    `gorm:"column:is_spare"`
	SetNumber    *string `gorm:"column:set_number"`
}

// Records returns parts and minifigure parts ordered by user set id, then
// parts before minifigure parts, then row id.
func (s *DBStore) Records(ctx context.Context, scope Scope) ([]models.OwnershipRecord, error) {
	if s.db == nil {
		return nil, ErrNoStore
	}

	parts, err := s.load(ctx, "parts_in_set", scope)
	if err != nil {
		return nil, err
	}
	figs, err := s.load(ctx, "user_minifigure_parts", scope)
	if err != nil {
		return nil, err
	}

	records := make([]models.OwnershipRecord, 0, len(parts)+len(figs))
	records = appendRows(records, parts, models.KindPart)
	records = appendRows(records, figs, models.KindMinifigurePart)

	// Both halves are already sorted by (user_set_id, id).
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].InternalID < records[j].InternalID
	})
	return records, nil
}

func (s *DBStore) load(ctx context.Context, table string, scope Scope) ([]ownershipRow, error) {
	q := s.db.WithContext(ctx).Table(table).
		Select(table+".id, "+table+".part_num, "+table+".color, "+table+".quantity, "+
			table+".have_quantity, "+table+".user_set_id, "+table+".is_spare, sets.set_number").
		Joins("JOIN user_sets ON user_sets.id = " + table + ".user_set_id").
		Joins("LEFT JOIN sets ON sets.id = user_sets.set_id")

	if len(scope.ExcludeStatuses) > 0 {
		q = q.Where("(user_sets.status IS NULL OR user_sets.status NOT IN ?)", scope.ExcludeStatuses)
	}

	var rows []ownershipRow
	if err := q.Order(table + ".user_set_id, " + table + ".id").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	return rows, nil
}

func appendRows(dst []models.OwnershipRecord, rows []ownershipRow, kind models.RecordKind) []models.OwnershipRecord {
	for _, r := range rows {
		rec := models.OwnershipRecord{
			Kind:        kind,
			InternalID:  r.UserSetID,
			ItemRef:     r.PartNum,
			RequiredQty: r.Quantity,
			OwnedQty:    r.HaveQuantity,
			IsSpare:     r.IsSpare,
		}
		if r.Color != nil {
			rec.ColorRef = *r.Color
		}
		if r.SetNumber != nil {
			rec.SetNumber = *r.SetNumber
		}
		dst = append(dst, rec)
	}
	return dst
}
