// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// Every field is optional: defaults reproduce a local test database
// (dbname=test user=test password=test host=localhost sslmode=disable).
package config
