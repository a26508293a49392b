package models

import "errors"

var (
	ErrConflictData         = errors.New("data conflicts with existing data")
	ErrDataNotFound         = errors.New("data not found")
	ErrInvalidCredentials   = errors.New("invalid login or password")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidAddress       = errors.New("invalid wallet address")
	ErrInsufficientBalance  = errors.New("insufficient wallet balance")
	ErrNoMatchingWithdrawal = errors.New("no matching withdrawal found to revert")
	ErrNoResults            = errors.New("no results")
)
