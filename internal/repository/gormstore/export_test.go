package gormstore

var WithSQLitePragmas = withSQLitePragmas
