package applications

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gaborage/licence-admin/apiclient"
	"github.com/gaborage/licence-admin/logger"
)

const (
	applicationsPath = "/applications"
	statsPath        = "/applications/stats"
)

// ErrMissingApplicationID is returned by Update when no id is given
var ErrMissingApplicationID = errors.New("application id is required")

// ReloadError means an update was applied but the dashboard that follows it
// could not be loaded.
type ReloadError struct {
	Err error
}

func (e *ReloadError) Error() string {
	return "reload after update: " + e.Err.Error()
}

func (e *ReloadError) Unwrap() error {
	return e.Err
}

// Dashboard is everything the overview screen shows at once
type Dashboard struct {
	Query        ListQuery     `json:"query"`
	Applications []Application `json:"applications"`
	Pagination   Pagination    `json:"pagination"`
	Stats        Stats         `json:"stats"`
	// StatsErr is set when the counters could not be loaded. The rest of
	// the dashboard is still valid.
	StatsErr error `json:"-"`
}

// Service talks to the applications backend
type Service struct {
	client    apiclient.Client
	log       logger.Logger
	validator *Validator
}

// NewService creates a Service using client for every request
func NewService(client apiclient.Client, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		client:    client,
		log:       log,
		validator: NewValidator(),
	}
}

// List fetches one page of applications
func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	q = q.normalized()
	if err := s.validator.Validate(q); err != nil {
		return nil, err
	}

	res, err := s.client.Get(ctx, applicationsPath, q.Params())
	if err != nil {
		return nil, err
	}

	var out ListResult
	if err := res.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode applications: %w", err)
	}
	if out.Applications == nil {
		out.Applications = []Application{}
	}

	s.log.Debug().
		Int("page", q.Page).
		Int("count", len(out.Applications)).
		Int("total_items", out.TotalItems).
		Msg("Applications fetched")
	return &out, nil
}

// Stats fetches the dashboard counters
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	res, err := s.client.Get(ctx, statsPath, nil)
	if err != nil {
		return Stats{}, err
	}

	var body struct {
		Stats Stats `json:"stats"`
	}
	if err := res.Decode(&body); err != nil {
		return Stats{}, fmt.Errorf("decode stats: %w", err)
	}
	return body.Stats, nil
}

// Update sends the set fields of req for the application with the given
// application id. It returns the updated application, or nil when the
// backend acknowledged without a JSON body.
func (s *Service) Update(ctx context.Context, applicationID string, req UpdateRequest) (*Application, error) {
	applicationID = strings.TrimSpace(applicationID)
	if applicationID == "" {
		return nil, ErrMissingApplicationID
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	res, err := s.client.Put(ctx, applicationsPath+"/"+url.PathEscape(applicationID), req)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("application_id", applicationID).
		Int("status", res.StatusCode).
		Msg("Application updated")

	if res.Kind() != apiclient.KindJSON {
		return nil, nil
	}
	var app Application
	if err := res.Decode(&app); err != nil {
		return nil, fmt.Errorf("decode application: %w", err)
	}
	return &app, nil
}

// Load fetches the list page and the counters concurrently. Failing to load
// the list fails the whole call; failing to load the counters does not.
func (s *Service) Load(ctx context.Context, q ListQuery) (*Dashboard, error) {
	q = q.normalized()
	d := &Dashboard{Query: q}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := s.List(gctx, q)
		if err != nil {
			return err
		}
		d.Applications = list.Applications
		d.Pagination = list.Pagination(q)
		return nil
	})
	g.Go(func() error {
		stats, err := s.Stats(gctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("Failed to load application stats")
			d.StatsErr = err
			return nil
		}
		d.Stats = stats
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateAndReload applies req and, only once the update succeeded, reloads
// the dashboard for q. A failed reload returns the updated application with
// a *ReloadError, since the change itself was kept by the backend.
func (s *Service) UpdateAndReload(ctx context.Context, applicationID string, req UpdateRequest, q ListQuery) (*Application, *Dashboard, error) {
	app, err := s.Update(ctx, applicationID, req)
	if err != nil {
		return nil, nil, err
	}
	d, err := s.Load(ctx, q)
	if err != nil {
		return app, nil, &ReloadError{Err: err}
	}
	return app, d, nil
}
