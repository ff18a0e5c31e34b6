package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"critiq/internal/accesscontrol"
	"critiq/internal/auth"
	"critiq/internal/params"
	"critiq/internal/ratelimiter"
	"critiq/internal/store"

	"go.uber.org/zap"
)

// newTestApplication wires an application around stub storage so requests can
// run through the full router, middlewares included.
func newTestApplication(t *testing.T, st store.Storage) *application {
	t.Helper()

	return &application{
		logger:        zap.NewNop().Sugar(),
		store:         st,
		mailer:        &stubMailer{},
		authenticator: auth.NewJWTAuthenticator("test-secret", "critiq", "critiq", time.Hour),
		config: config{
			mail:        mailConfig{exp: time.Hour},
			auth:        authConfig{token: tokenConfig{secret: "test-secret", exp: time.Hour, iss: "critiq"}},
			rateLimiter: ratelimiter.Config{Enabled: false},
		},
	}
}

func executeRequest(req *http.Request, mux http.Handler) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func bearerToken(t *testing.T, app *application, user *store.User) string {
	t.Helper()

	token, err := app.authenticator.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + token
}

func jsonRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type stubMailer struct {
	sent int
	fail bool
}

func (m *stubMailer) Send(templateFile, username, email string, data any) (int, error) {
	if m.fail {
		return 0, http.ErrHandlerTimeout
	}
	m.sent++
	return http.StatusOK, nil
}

// In-memory stores. Just enough behavior for the handlers; no pagination
// beyond returning everything, no ordering guarantees.

type stubUsersStore struct {
	users         map[int64]*store.User
	confirmations map[int64][]byte
	nextID        int64
}

func newStubUsersStore() *stubUsersStore {
	return &stubUsersStore{
		users:         make(map[int64]*store.User),
		confirmations: make(map[int64][]byte),
		nextID:        1,
	}
}

func (s *stubUsersStore) add(user *store.User) *store.User {
	if user.ID == 0 {
		user.ID = s.nextID
	}
	if user.ID >= s.nextID {
		s.nextID = user.ID + 1
	}
	if user.Role == "" {
		user.Role = accesscontrol.RoleUser
	}
	s.users[user.ID] = user
	return user
}

func (s *stubUsersStore) checkUnique(user *store.User) error {
	for _, u := range s.users {
		if u.ID == user.ID {
			continue
		}
		if u.Email == user.Email {
			return store.ErrDuplicateEmail
		}
		if u.Username == user.Username {
			return store.ErrDuplicateUsername
		}
	}
	return nil
}

func (s *stubUsersStore) Create(_ context.Context, user *store.User) error {
	if err := s.checkUnique(user); err != nil {
		return err
	}
	s.add(user)
	return nil
}

func (s *stubUsersStore) CreateWithConfirmation(_ context.Context, user *store.User, codeHash []byte, _ time.Duration) error {
	if err := s.checkUnique(user); err != nil {
		return err
	}
	s.add(user)
	s.confirmations[user.ID] = codeHash
	return nil
}

func (s *stubUsersStore) RefreshConfirmation(_ context.Context, userID int64, codeHash []byte, _ time.Duration) error {
	if _, ok := s.users[userID]; !ok {
		return store.ErrNotFound
	}
	s.confirmations[userID] = codeHash
	return nil
}

func (s *stubUsersStore) ConfirmationHash(_ context.Context, userID int64) ([]byte, error) {
	hash, ok := s.confirmations[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return hash, nil
}

func (s *stubUsersStore) GetByID(_ context.Context, id int64) (*store.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return user, nil
}

func (s *stubUsersStore) GetByUsername(_ context.Context, username string) (*store.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *stubUsersStore) List(_ context.Context, _ params.Pagination) ([]store.User, int, error) {
	out := make([]store.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (s *stubUsersStore) Update(_ context.Context, user *store.User) error {
	if _, ok := s.users[user.ID]; !ok {
		return store.ErrNotFound
	}
	if err := s.checkUnique(user); err != nil {
		return err
	}
	s.users[user.ID] = user
	return nil
}

func (s *stubUsersStore) Delete(_ context.Context, username string) error {
	for id, u := range s.users {
		if u.Username == username {
			delete(s.users, id)
			delete(s.confirmations, id)
			return nil
		}
	}
	return store.ErrNotFound
}

type stubCategoriesStore struct {
	categories map[string]*store.Category
	nextID     int64
}

func (s *stubCategoriesStore) Create(_ context.Context, c *store.Category) error {
	if _, ok := s.categories[c.Slug]; ok {
		return store.ErrConflict
	}
	s.nextID++
	c.ID = s.nextID
	s.categories[c.Slug] = c
	return nil
}

func (s *stubCategoriesStore) GetBySlug(_ context.Context, slug string) (*store.Category, error) {
	c, ok := s.categories[slug]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (s *stubCategoriesStore) List(_ context.Context, _ string, _ params.Pagination) ([]store.Category, int, error) {
	out := make([]store.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (s *stubCategoriesStore) Delete(_ context.Context, slug string) error {
	if _, ok := s.categories[slug]; !ok {
		return store.ErrNotFound
	}
	delete(s.categories, slug)
	return nil
}

type stubGenresStore struct {
	genres map[string]*store.Genre
	nextID int64
}

func (s *stubGenresStore) Create(_ context.Context, g *store.Genre) error {
	if _, ok := s.genres[g.Slug]; ok {
		return store.ErrConflict
	}
	s.nextID++
	g.ID = s.nextID
	s.genres[g.Slug] = g
	return nil
}

func (s *stubGenresStore) GetBySlug(_ context.Context, slug string) (*store.Genre, error) {
	g, ok := s.genres[slug]
	if !ok {
		return nil, store.ErrNotFound
	}
	return g, nil
}

func (s *stubGenresStore) List(_ context.Context, _ string, _ params.Pagination) ([]store.Genre, int, error) {
	out := make([]store.Genre, 0, len(s.genres))
	for _, g := range s.genres {
		out = append(out, *g)
	}
	return out, len(out), nil
}

func (s *stubGenresStore) Delete(_ context.Context, slug string) error {
	if _, ok := s.genres[slug]; !ok {
		return store.ErrNotFound
	}
	delete(s.genres, slug)
	return nil
}

type stubTitlesStore struct {
	titles map[int64]*store.Title
	nextID int64
}

func (s *stubTitlesStore) Create(_ context.Context, t *store.Title) error {
	s.nextID++
	t.ID = s.nextID
	s.titles[t.ID] = t
	return nil
}

func (s *stubTitlesStore) GetByID(_ context.Context, id int64) (*store.Title, error) {
	t, ok := s.titles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t, nil
}

func (s *stubTitlesStore) List(_ context.Context, _ store.TitleFilterQuery, _ params.Pagination) ([]store.Title, int, error) {
	out := make([]store.Title, 0, len(s.titles))
	for _, t := range s.titles {
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (s *stubTitlesStore) Update(_ context.Context, t *store.Title) error {
	if _, ok := s.titles[t.ID]; !ok {
		return store.ErrNotFound
	}
	s.titles[t.ID] = t
	return nil
}

func (s *stubTitlesStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.titles[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.titles, id)
	return nil
}

type stubReviewsStore struct {
	reviews map[int64]*store.Review
	nextID  int64
}

func (s *stubReviewsStore) Create(_ context.Context, r *store.Review) error {
	for _, existing := range s.reviews {
		if existing.TitleID == r.TitleID && existing.AuthorID == r.AuthorID {
			return store.ErrDuplicateReview
		}
	}
	s.nextID++
	r.ID = s.nextID
	s.reviews[r.ID] = r
	return nil
}

func (s *stubReviewsStore) GetByID(_ context.Context, titleID, reviewID int64) (*store.Review, error) {
	r, ok := s.reviews[reviewID]
	if !ok || r.TitleID != titleID {
		return nil, store.ErrNotFound
	}
	return r, nil
}

func (s *stubReviewsStore) ListByTitle(_ context.Context, titleID int64, _ params.Pagination) ([]store.Review, int, error) {
	var out []store.Review
	for _, r := range s.reviews {
		if r.TitleID == titleID {
			out = append(out, *r)
		}
	}
	return out, len(out), nil
}

func (s *stubReviewsStore) HasReview(_ context.Context, titleID, authorID int64) (bool, error) {
	for _, r := range s.reviews {
		if r.TitleID == titleID && r.AuthorID == authorID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubReviewsStore) Update(_ context.Context, r *store.Review) error {
	if _, ok := s.reviews[r.ID]; !ok {
		return store.ErrNotFound
	}
	s.reviews[r.ID] = r
	return nil
}

func (s *stubReviewsStore) Delete(_ context.Context, titleID, reviewID int64) error {
	r, ok := s.reviews[reviewID]
	if !ok || r.TitleID != titleID {
		return store.ErrNotFound
	}
	delete(s.reviews, reviewID)
	return nil
}

type stubCommentsStore struct {
	comments map[int64]*store.Comment
	nextID   int64
}

func (s *stubCommentsStore) Create(_ context.Context, c *store.Comment) error {
	s.nextID++
	c.ID = s.nextID
	s.comments[c.ID] = c
	return nil
}

func (s *stubCommentsStore) GetByID(_ context.Context, reviewID, commentID int64) (*store.Comment, error) {
	c, ok := s.comments[commentID]
	if !ok || c.ReviewID != reviewID {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (s *stubCommentsStore) ListByReview(_ context.Context, reviewID int64, _ params.Pagination) ([]store.Comment, int, error) {
	var out []store.Comment
	for _, c := range s.comments {
		if c.ReviewID == reviewID {
			out = append(out, *c)
		}
	}
	return out, len(out), nil
}

func (s *stubCommentsStore) Update(_ context.Context, c *store.Comment) error {
	if _, ok := s.comments[c.ID]; !ok {
		return store.ErrNotFound
	}
	s.comments[c.ID] = c
	return nil
}

func (s *stubCommentsStore) Delete(_ context.Context, reviewID, commentID int64) error {
	c, ok := s.comments[commentID]
	if !ok || c.ReviewID != reviewID {
		return store.ErrNotFound
	}
	delete(s.comments, commentID)
	return nil
}

func newTestStorage() store.Storage {
	return store.Storage{
		Users:      newStubUsersStore(),
		Categories: &stubCategoriesStore{categories: make(map[string]*store.Category)},
		Genres:     &stubGenresStore{genres: make(map[string]*store.Genre)},
		Titles:     &stubTitlesStore{titles: make(map[int64]*store.Title)},
		Reviews:    &stubReviewsStore{reviews: make(map[int64]*store.Review)},
		Comments:   &stubCommentsStore{comments: make(map[int64]*store.Comment)},
	}
}
