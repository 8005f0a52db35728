package specification

import "gorm.io/gorm"

// Specification narrows a query before it runs.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}
