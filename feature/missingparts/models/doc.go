// Package models holds the data types of the missing parts feature: the
// ownership records read from a collection, the catalog entries they are
// joined with, and the aggregated output. db.go maps the collection tables
// for gorm.
package models
