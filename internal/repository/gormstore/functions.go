package gormstore

import (
	"database/sql/driver"
	"strings"

	moderncsqlite "modernc.org/sqlite"
)

// unicodeLowerFunc folds case with Go's Unicode tables; SQLite's LOWER
// only folds ASCII.
const unicodeLowerFunc = "unicode_lower"

func init() {
	moderncsqlite.MustRegisterDeterministicScalarFunction(unicodeLowerFunc, 1, unicodeLower)
}

func unicodeLower(_ *moderncsqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// lowerFunc names the SQL function that lowercases text the same way
// strings.ToLower does on the given dialect.
func lowerFunc(dialect string) string {
	if dialect == "sqlite" {
		return unicodeLowerFunc
	}
	return "LOWER"
}
