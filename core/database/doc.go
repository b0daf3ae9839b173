// Package database handles database connections and schema inspection.
//
// It wraps GORM and opens either a MySQL server or a SQLite file, depending on
// the configured driver. SQLite is the default, matching a single-user
// collection database kept next to the application.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns read a table's column list so the
// integrity feature can confirm that the collection tables carry the columns
// the missing-parts queries depend on.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "parts_in_set", []string{"part_num", "quantity"})
package database
