// Package probe runs a named query through one of three access layers and
// captures what the layer returns:
//
//   - driver: pgx, rows fetched with Values()
//   - toolkit: gorm raw SQL over database/sql, values decoded by column type
//   - frame: toolkit rows loaded into a gota DataFrame with type detection
//
// Each layer is a one-shot call. Nothing is retried and errors are returned
// wrapped but otherwise untouched, since the way each library fails is part
// of what is being observed.
package probe
