// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyUserID is returned when an entity is missing its owner.
	ErrEmptyUserID = errors.New("user ID cannot be empty")

	// ErrEmptyItemID is returned when a reference to a content item is missing.
	ErrEmptyItemID = errors.New("item ID cannot be empty")

	// ErrInvalidFamiliarity is returned when familiarity leaves [0,5].
	ErrInvalidFamiliarity = errors.New("familiarity must be between 0 and 5")

	// ErrInvalidInterval is returned when a review interval is negative.
	ErrInvalidInterval = errors.New("interval must be greater than or equal to 0")

	// ErrInvalidPlanTier is returned when a plan tier is not valid.
	ErrInvalidPlanTier = errors.New("invalid plan tier")

	// ErrInvalidActionKind is returned when an action kind is not valid.
	ErrInvalidActionKind = errors.New("invalid action kind")

	// ErrInvalidFeatureKind is returned when a feature kind is not valid.
	ErrInvalidFeatureKind = errors.New("invalid feature kind")

	// ErrInvalidExamType is returned when an exam type is not valid.
	ErrInvalidExamType = errors.New("invalid exam type")

	// ErrInvalidExamStatus is returned when an exam status is not valid.
	ErrInvalidExamStatus = errors.New("invalid exam status")

	// ErrInvalidAnswerChoice is returned when an answer choice is not A-D.
	ErrInvalidAnswerChoice = errors.New("invalid answer choice")
)
