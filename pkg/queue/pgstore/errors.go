package pgstore

import "errors"

// ErrSchemaMissing is returned when the jobs table does not exist
var ErrSchemaMissing = errors.New("pgstore: jobs table missing, run migrations first")
