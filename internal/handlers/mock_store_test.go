package handlers_test

import (
	"context"
	"errors"

	"github.com/VelisCore/velink/internal/analytics"
	"github.com/VelisCore/velink/internal/shortener"
)

var errMock = errors.New("mock error")

// errStore wraps a real repository and injects faults per operation.
type errStore struct {
	shortener.Repository

	insertErr error
	findErr   error
	listErr   error
	clickErr  error
	deleteErr error
}

func (s *errStore) Insert(ctx context.Context, link *shortener.Link) error {
	if s.insertErr != nil {
		return s.insertErr
	}

	return s.Repository.Insert(ctx, link)
}

func (s *errStore) FindByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}

	return s.Repository.FindByCode(ctx, code)
}

func (s *errStore) List(ctx context.Context, filter shortener.Filter, page shortener.Page) ([]*shortener.Link, int64, error) {
	if s.listErr != nil {
		return nil, 0, s.listErr
	}

	return s.Repository.List(ctx, filter, page)
}

func (s *errStore) RecordClick(ctx context.Context, code shortener.Code, event *shortener.ClickEvent) error {
	if s.clickErr != nil {
		return s.clickErr
	}

	return s.Repository.RecordClick(ctx, code, event)
}

func (s *errStore) Delete(ctx context.Context, code shortener.Code) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}

	return s.Repository.Delete(ctx, code)
}

// stubStats is a canned StatsProvider for handler tests.
type stubStats struct {
	link     *analytics.LinkStats
	overview *analytics.Overview
	err      error
}

func (s *stubStats) Link(_ context.Context, _ string, _ int) (*analytics.LinkStats, error) {
	if s.err != nil {
		return nil, s.err
	}

	return s.link, nil
}

func (s *stubStats) Overview(_ context.Context, _ int) (*analytics.Overview, error) {
	if s.err != nil {
		return nil, s.err
	}

	return s.overview, nil
}
