package domain

import "errors"

var (
	ErrCharacterNotFound      = errors.New("character not found")
	ErrWeaponNotFound         = errors.New("weapon not found")
	ErrTemporarilyUnavailable = errors.New("temporarily unavailable")
	ErrSinkClosed             = errors.New("overlay sink closed")
	ErrInvalidPayload         = errors.New("invalid payload")
)
