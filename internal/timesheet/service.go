// Package timesheet holds the server-side use cases over the entry
// repository: validate, assign ids, mutate, log and count.
package timesheet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/storage"
	"github.com/Tiliavir/timesheet/internal/validation"
)

// Mutation operations reported to a Recorder.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Recorder receives mutation counts and the collection size.
type Recorder interface {
	Mutation(op string)
	SetEntries(n int)
}

type nopRecorder struct{}

func (nopRecorder) Mutation(string) {}
func (nopRecorder) SetEntries(int)  {}

// Service exposes the entry use cases.
type Service struct {
	repo  *storage.Repository
	newID func() string
	rec   Recorder
	log   zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithIDGenerator replaces the uuid id generator.
func WithIDGenerator(f func() string) Option {
	return func(s *Service) { s.newID = f }
}

// WithRecorder reports mutations to r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.rec = r }
}

// NewService returns a service over repo.
func NewService(repo *storage.Repository, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:  repo,
		newID: uuid.NewString,
		rec:   nopRecorder{},
		log:   log,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rec.SetEntries(repo.Len())
	return s
}

// List returns every entry in insertion order.
func (s *Service) List(ctx context.Context) ([]model.Entry, error) {
	return s.repo.List(), nil
}

// Count returns the number of stored entries.
func (s *Service) Count() int {
	return s.repo.Len()
}

// Create validates in and stores it under a fresh id.
func (s *Service) Create(ctx context.Context, in validation.Input) (model.Entry, error) {
	fields, err := s.validate(in)
	if err != nil {
		return model.Entry{}, err
	}
	entry := s.repo.Insert(fields.Entry(s.newID()))
	s.rec.Mutation(OpCreate)
	s.rec.SetEntries(s.repo.Len())
	s.log.Info().Str("id", entry.ID).Int("week", entry.WeekNumber).Msg("timesheet.created")
	return entry, nil
}

// Update validates in and merges it over the entry with the given id.
// Optional fields missing from in keep their stored values.
func (s *Service) Update(ctx context.Context, id string, in validation.Input) (model.Entry, error) {
	fields, err := s.validate(in)
	if err != nil {
		return model.Entry{}, err
	}
	entry, err := s.repo.Update(id, fields.Patch())
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			s.log.Error().Err(err).Str("id", id).Msg("update timesheet")
		}
		return model.Entry{}, err
	}
	s.rec.Mutation(OpUpdate)
	s.log.Info().Str("id", entry.ID).Msg("timesheet.updated")
	return entry, nil
}

// Delete removes the entry with the given id or returns model.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	if !s.repo.Delete(id) {
		return model.ErrNotFound
	}
	s.rec.Mutation(OpDelete)
	s.rec.SetEntries(s.repo.Len())
	s.log.Info().Str("id", id).Msg("timesheet.deleted")
	return nil
}

func (s *Service) validate(in validation.Input) (validation.Fields, error) {
	fields, err := validation.Validate(in)
	if err != nil {
		s.log.Debug().Err(err).Msg("timesheet rejected")
	}
	return fields, err
}
