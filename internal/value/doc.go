// Package value normalizes column values returned by the access layers.
//
// Conventions:
//   - json/jsonb decode to map[string]any, []any or scalars, numbers as json.Number
//   - hstore (native or text form) decodes to map[string]any, NULL entries as nil
//   - UUIDs become their canonical string form
//   - numeric becomes json.Number so large values stay exact
package value
