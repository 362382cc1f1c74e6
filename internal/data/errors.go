package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	ErrLodgeNotFound   = errors.New("lodge not found")
	ErrLodgeNameExists = errors.New("lodge name already exists")
	ErrLodgeHasMembers = errors.New("lodge still has members")

	ErrMemberNotFound    = errors.New("member not found")
	ErrMemberEmailExists = errors.New("member email already exists")

	ErrCandidateNotFound = errors.New("candidate not found")
	ErrEventNotFound     = errors.New("event not found")
	ErrPostNotFound      = errors.New("post not found")
)
