package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"accueil/internal/registration/models"
)

// DefaultPostgRESTURL is the hosted record service.
const DefaultPostgRESTURL = "https://uptpvmxwjuebttlwpbkz.supabase.co"

// PostgRESTStore talks to a PostgREST-style record service over HTTP.
// Flags are written as legacy "Yes"/"No" text so existing rows and new rows
// share one column format.
type PostgRESTStore struct {
	http    *resty.Client
	baseURL string
	apiKey  string
}

// PostgRESTOption configures a PostgRESTStore.
type PostgRESTOption func(*PostgRESTStore)

// WithHTTPClient replaces the resty client, mainly for tests.
func WithHTTPClient(c *resty.Client) PostgRESTOption {
	return func(s *PostgRESTStore) {
		s.http = c
	}
}

// NewPostgREST creates a client for the record service at baseURL.
func NewPostgREST(baseURL, apiKey string, timeout time.Duration, opts ...PostgRESTOption) *PostgRESTStore {
	if baseURL == "" {
		baseURL = DefaultPostgRESTURL
	}
	s := &PostgRESTStore{
		http:    resty.New().SetTimeout(timeout),
		baseURL: baseURL,
		apiKey:  apiKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PostgRESTStore) endpoint() string {
	return s.baseURL + "/rest/v1/" + Table
}

func (s *PostgRESTStore) request(ctx context.Context) *resty.Request {
	return s.http.R().
		SetContext(ctx).
		SetHeader("apikey", s.apiKey).
		SetHeader("Authorization", "Bearer "+s.apiKey).
		SetHeader("Accept", "application/json")
}

func (s *PostgRESTStore) Create(ctx context.Context, rec models.Record) (*models.Record, error) {
	var rows []restRow
	resp, err := s.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=representation").
		SetBody(newRestWrite(rec)).
		SetResult(&rows).
		Post(s.endpoint())
	if err != nil {
		return nil, fmt.Errorf("record service insert: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("record service insert %s: %s", resp.Status(), resp.String())
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("record service insert returned no row")
	}
	out := rows[0].record()
	return &out, nil
}

func (s *PostgRESTStore) FindByID(ctx context.Context, id string) (*models.Record, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("id", "eq."+id)
	rows, err := s.get(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("registration %s: %w", id, ErrNotFound)
	}
	return rows[0], nil
}

func (s *PostgRESTStore) Update(ctx context.Context, id string, rec models.Record) (*models.Record, error) {
	var rows []restRow
	resp, err := s.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=representation").
		SetQueryParam("id", "eq."+id).
		SetBody(newRestWrite(rec)).
		SetResult(&rows).
		Patch(s.endpoint())
	if err != nil {
		return nil, fmt.Errorf("record service update: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("record service update %s: %s", resp.Status(), resp.String())
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("registration %s: %w", id, ErrNotFound)
	}
	out := rows[0].record()
	return &out, nil
}

func (s *PostgRESTStore) ListRecent(ctx context.Context, limit int) ([]*models.Record, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("order", "created_at.desc")
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return s.get(ctx, params)
}

func (s *PostgRESTStore) ListSince(ctx context.Context, since time.Time, limit int) ([]*models.Record, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("created_at", "gte."+since.UTC().Format(time.RFC3339))
	params.Set("order", "created_at.desc")
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return s.get(ctx, params)
}

func (s *PostgRESTStore) get(ctx context.Context, params url.Values) ([]*models.Record, error) {
	var rows []restRow
	resp, err := s.request(ctx).
		SetQueryParamsFromValues(params).
		SetResult(&rows).
		Get(s.endpoint())
	if err != nil {
		return nil, fmt.Errorf("record service query: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("record service query %s: %s", resp.Status(), resp.String())
	}
	out := make([]*models.Record, 0, len(rows))
	for _, row := range rows {
		rec := row.record()
		out = append(out, &rec)
	}
	return out, nil
}

// restWrite is the insert/update payload. Identity and creation time are
// left to the service.
type restWrite struct {
	Nom          string  `json:"nom"`
	Prenom       string  `json:"prenom"`
	Nationalite  string  `json:"nationalite"`
	Profession   string  `json:"profession"`
	Telephone    string  `json:"telephone"`
	Email        string  `json:"email"`
	Quartier     string  `json:"quartier"`
	Eglise       string  `json:"eglise"`
	Baptise      *string `json:"baptise"`
	Passage      *string `json:"passage"`
	Connaissance string  `json:"connaissance"`
}

func newRestWrite(rec models.Record) restWrite {
	return restWrite{
		Nom:          rec.LastName,
		Prenom:       rec.FirstName,
		Nationalite:  rec.Nationality,
		Profession:   rec.Profession,
		Telephone:    rec.Phone,
		Email:        rec.Email,
		Quartier:     rec.Neighborhood,
		Eglise:       rec.OriginChurch,
		Baptise:      flagText(rec.Baptized),
		Passage:      flagText(rec.Visiting),
		Connaissance: rec.Discovery,
	}
}

func flagText(f models.Flag) *string {
	if f == models.FlagUnset {
		return nil
	}
	t := f.Text()
	return &t
}

type restRow struct {
	ID           restID    `json:"id"`
	Nom          string    `json:"nom"`
	Prenom       string    `json:"prenom"`
	Nationalite  string    `json:"nationalite"`
	Profession   string    `json:"profession"`
	Telephone    string    `json:"telephone"`
	Email        string    `json:"email"`
	Quartier     string    `json:"quartier"`
	Eglise       string    `json:"eglise"`
	Baptise      restFlag  `json:"baptise"`
	Passage      restFlag  `json:"passage"`
	Connaissance string    `json:"connaissance"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r restRow) record() models.Record {
	return models.Record{
		ID:           string(r.ID),
		LastName:     r.Nom,
		FirstName:    r.Prenom,
		Nationality:  r.Nationalite,
		Profession:   r.Profession,
		Phone:        r.Telephone,
		Email:        r.Email,
		Neighborhood: r.Quartier,
		OriginChurch: r.Eglise,
		Baptized:     models.Flag(r.Baptise),
		Visiting:     models.Flag(r.Passage),
		Discovery:    r.Connaissance,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

// restID accepts numeric or string identifiers.
type restID string

func (id *restID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = restID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = restID(n.String())
	return nil
}

// restFlag decodes legacy text answers as well as booleans.
type restFlag models.Flag

func (f *restFlag) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*f = restFlag(models.FlagUnset)
	case bool:
		*f = restFlag(models.FlagOf(&v))
	case string:
		*f = restFlag(models.ParseFlag(v))
	default:
		return fmt.Errorf("unsupported flag value %s", string(b))
	}
	return nil
}
