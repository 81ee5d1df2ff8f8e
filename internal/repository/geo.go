package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cartpod/internal/model"
)

const distanceExpr = "ST_Distance_Sphere(POINT(location_longitude, location_latitude), POINT(?, ?))"

// withinDistance filters rows to those within maxMeters of origin, nearest first.
func withinDistance(db *gorm.DB, origin model.Location, maxMeters float64) *gorm.DB {
	return db.
		Where(distanceExpr+" <= ?", origin.Longitude, origin.Latitude, maxMeters).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                distanceExpr,
			Vars:               []interface{}{origin.Longitude, origin.Latitude},
			WithoutParentheses: true,
		}})
}
