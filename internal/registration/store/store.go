// Package store implements the registration record store: an in-memory
// variant for tests and local runs, a SQL variant for Postgres and SQLite,
// and a client for the hosted PostgREST record service.
//
// Every implementation assigns the identifier and creation time on Create,
// orders listings by creation time descending, and treats Update as a full
// overwrite of the mutable fields.
package store

import (
	"accueil/pkg/platform/sentinel"
)

// Table is the registrations collection name in every backend.
const Table = "users_data"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = sentinel.ErrNotFound

var columns = []string{
	"id", "nom", "prenom", "nationalite", "profession", "telephone", "email",
	"quartier", "eglise", "baptise", "passage", "connaissance", "created_at",
}
