// Package database opens the PostgreSQL handles used by the access layers.
//
// A run holds two handles to the same database:
//   - Pool: a pgx connection pool for the driver layer
//   - Gorm: a gorm DB (pgx stdlib underneath) for the toolkit and frame layers
package database
