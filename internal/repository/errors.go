package repository

import "errors"

// ErrNotFound is returned when a query for a single entity (e.g. GetSetting)
// finds no rows. It hides the driver's sql.ErrNoRows from the service layer.
var ErrNotFound = errors.New("repository: not found")
