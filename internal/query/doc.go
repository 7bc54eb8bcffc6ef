// Package query holds the named SQL statements a probe can run.
//
// The builtin statements target the reference schema: a users table
// (name, age) and a trades table (trade_user, trade_date, exchange, plus the
// semi-structured columns bird, dan_map and matt_nums). Statements marked
// ExpectFailure are known to fail there and are kept to observe how each
// access layer reports the failure.
package query
