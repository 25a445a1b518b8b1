package database

import "github.com/shuldan/queues/pkg/errors"

var newDatabaseCode = errors.WithPrefix("DATABASE")

var (
	ErrFailedToOpenDatabase = newDatabaseCode().New("failed to open {{.driver}} database").Of(errors.ErrResourceState)
	ErrInvalidIdentifier    = newDatabaseCode().New("invalid SQL identifier {{.identifier}}").Of(errors.ErrConfiguration)
)
