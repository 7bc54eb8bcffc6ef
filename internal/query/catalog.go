package query

import (
	"fmt"
	"sort"
	"strings"
)

// Query is a named, fixed SQL statement.
type Query struct {
	Name        string
	SQL         string
	Description string

	// Field is a dotted path printed per row, e.g. "bird.iam".
	Field string

	// ExpectFailure marks statements known to fail against the reference schema.
	ExpectFailure bool
}

// Builtin returns the statements shipped with sqlprobe.
func Builtin() []Query {
	return []Query{
		{
			Name: "juxt_bird",
			SQL: `SELECT trades.trade_user, trades.trade_date, trades.bird
          FROM trades WHERE trades.exchange = 'juxt'`,
			Description: "json column on a single table",
			Field:       "bird.iam",
		},
		{
			Name: "join_matt_nums",
			SQL: `SELECT users.name, users.age, trades.trade_date, trades.matt_nums
          FROM users
          JOIN trades ON users.name = trades.trade_user
          WHERE users.age > 30`,
			Description:   "join selecting the matt_nums column",
			ExpectFailure: true,
		},
		{
			Name: "join_plain",
			SQL: `SELECT users.name, users.age, trades.trade_date
          FROM users
          JOIN trades ON users.name = trades.trade_user
          WHERE users.age > 30`,
			Description: "join over scalar columns only",
		},
		{
			Name: "join_dan_map",
			SQL: `SELECT users.name, users.age, trades.dan_map
          FROM users
          JOIN trades ON users.name = trades.trade_user
          WHERE users.age > 30`,
			Description:   "join selecting the dan_map column",
			ExpectFailure: true,
		},
		{
			Name: "juxt_dan_map",
			SQL: `SELECT trades.trade_user, trades.dan_map, trades.trade_date
          FROM trades WHERE trades.exchange = 'juxt'`,
			Description: "map column on a single table",
			Field:       "dan_map.iam",
		},
		{
			Name:        "user_names",
			SQL:         `SELECT users.name FROM users`,
			Description: "single scalar column",
		},
		{
			Name: "dan_trades",
			SQL: `SELECT trades.trade_user, trades.trade_date
          FROM trades WHERE trades.trade_user = 'Dan'`,
			Description: "scalar columns filtered by user",
		},
		{
			Name: "dan_trades_map",
			SQL: `SELECT trades.trade_user, trades.dan_map, trades.trade_date
          FROM trades WHERE trades.trade_user = 'Dan'`,
			Description: "map column filtered by user",
			Field:       "dan_map.iam",
		},
	}
}

// Catalog is an immutable set of queries indexed by name.
type Catalog struct {
	byName map[string]Query
}

// NewCatalog returns the builtin queries plus extra. An extra query replaces
// a builtin of the same name.
func NewCatalog(extra ...Query) *Catalog {
	c := &Catalog{byName: make(map[string]Query)}
	for _, q := range Builtin() {
		c.byName[q.Name] = q
	}
	for _, q := range extra {
		c.byName[q.Name] = q
	}
	return c
}

// Get returns the query with the given name.
func (c *Catalog) Get(name string) (Query, error) {
	q, ok := c.byName[name]
	if !ok {
		return Query{}, fmt.Errorf("unknown query %q (known: %s)", name, strings.Join(c.Names(), ", "))
	}
	return q, nil
}

// Names returns the query names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every query, sorted by name.
func (c *Catalog) All() []Query {
	names := c.Names()
	out := make([]Query, 0, len(names))
	for _, name := range names {
		out = append(out, c.byName[name])
	}
	return out
}
