package models

import (
	"fmt"
	"strings"
)

// UserSet represents the 'user_sets' table.
type UserSet struct {
	ID     int    `gorm:"column:id;primaryKey"`
	SetID  int    `gorm:"column:set_id"`
	Status string `gorm:"column:status"` // unknown, complete, assembled, konvolut...
}

// TableName overrides the table name.
func (UserSet) TableName() string {
	return "user_sets"
}

// Set represents the 'sets' table.
type Set struct {
	ID        int    `gorm:"column:id;primaryKey"`
	SetNumber string `gorm:"column:set_number"`
	Name      string `gorm:"column:name"`
}

// TableName overrides the table name.
func (Set) TableName() string {
	return "sets"
}

// PartInSet represents the 'parts_in_set' table.
type PartInSet struct {
	ID           int    `gorm:"column:id;primaryKey"`
	PartNum      string `gorm:"column:part_num"`
	Color        string `gorm:"column:color"`
	Quantity     int    `gorm:"column:quantity"`
	HaveQuantity int    `gorm:"column:have_quantity"`
	UserSetID    int    `gorm:"column:user_set_id"`
	IsSpare      bool   `gorm:"column:is_spare"`
}

// TableName overrides the table name.
func (PartInSet) TableName() string {
	return "parts_in_set"
}

// UserMinifigurePart represents the 'user_minifigure_parts' table.
type UserMinifigurePart struct {
	ID           int    `gorm:"column:id;primaryKey"`
	PartNum      string `gorm:"column:part_num"`
	Name         string `gorm:"column:name"`
	Color        string `gorm:"column:color"`
	Quantity     int    `gorm:"column:quantity"`
	HaveQuantity int    `gorm:"column:have_quantity"`
	PartImgURL   string `gorm:"column:part_img_url"`
	UserSetID    int    `gorm:"column:user_set_id"`
	IsSpare      bool   `gorm:"column:is_spare"`
}

// TableName overrides the table name.
func (UserMinifigurePart) TableName() string {
	return "user_minifigure_parts"
}

// PartInfo represents the 'part_info' table.
type PartInfo struct {
	PartNum    string `gorm:"column:part_num;primaryKey"`
	Name       string `gorm:"column:name"`
	CategoryID *int   `gorm:"column:category_id"`
	PartImgURL string `gorm:"column:part_img_url"`
}

// TableName overrides the table name.
func (PartInfo) TableName() string {
	return "part_info"
}

// Category represents the 'categories' table.
type Category struct {
	ID   int    `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name"`
}

// TableName overrides the table name.
func (Category) TableName() string {
	return "categories"
}

// PartStorage represents the 'part_storage' table.
type PartStorage struct {
	ID       int    `gorm:"column:id;primaryKey"`
	PartNum  string `gorm:"column:part_num"`
	Location string `gorm:"column:location"`
	Level    string `gorm:"column:level"`
	Box      string `gorm:"column:box"`
}

// TableName overrides the table name.
func (PartStorage) TableName() string {
	return "part_storage"
}

// Label renders the storage location for display. Empty fields show as "Unknown".
func (p PartStorage) Label() string {
	return fmt.Sprintf("Location: %s, Level: %s, Box: %s", orUnknown(p.Location), orUnknown(p.Level), orUnknown(p.Box))
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return "Unknown"
}

// CollectionTables maps each collection table to the columns the store reads.
var CollectionTables = map[string][]string{
	"user_sets":             {"id", "set_id", "status"},
	"sets":                  {"id", "set_number"},
	"parts_in_set":          {"id", "part_num", "color", "quantity", "have_quantity", "user_set_id", "is_spare"},
	"user_minifigure_parts": {"id", "part_num", "name", "color", "quantity", "have_quantity", "part_img_url", "user_set_id", "is_spare"},
	"part_info":             {"part_num", "name", "category_id", "part_img_url"},
	"categories":            {"id", "name"},
	"part_storage":          {"part_num", "location", "level", "box"},
}
