// Package firmwares caches the last successfully fetched firmware list in the
// local SQLite database so the registry view has data after a restart or
// while the server is unreachable.
package firmwares
