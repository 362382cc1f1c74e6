// Package mocks provides mock implementations for testing the lodge API.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our repository interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockLodgeRepository(ctrl)
//	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(lodge, nil)
package mocks

// Generate mocks for the repository interfaces from internal/core.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=repositories_mock.go github.com/lodgeworks/lodge-api/internal/core LodgeRepository,MemberRepository,CandidateRepository,EventRepository,PostRepository

// Generate mocks for the lodge resolution interfaces from internal/core.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=lookup_mock.go github.com/lodgeworks/lodge-api/internal/core LodgeReverseLookup,RosterCache
