package identity_test

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	identity "github.com/pawdoption/go-identity"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockConfig implements identity.Config
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) GetSigningKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetTokenExpiration() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetIssuer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetAudience() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockConfig) GetAuthScheme() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetBcryptCost() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetResetTokenTTL() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetResetBaseURL() string {
	args := m.Called()
	return args.String(0)
}

func newMockConfig() *MockConfig {
	mockConfig := new(MockConfig)
	mockConfig.On("GetSigningKey").Return("test-signing-key")
	mockConfig.On("GetTokenExpiration").Return(24)
	mockConfig.On("GetIssuer").Return("test-issuer")
	mockConfig.On("GetAudience").Return([]string{"test:audience"})
	mockConfig.On("GetAuthScheme").Return("Bearer")
	mockConfig.On("GetBcryptCost").Return(4)
	mockConfig.On("GetResetTokenTTL").Return(10)
	mockConfig.On("GetResetBaseURL").Return("http://localhost:3000")
	return mockConfig
}

// MockIdentityProvider implements identity.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, email, password string) (*identity.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByID(ctx context.Context, id string) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

// MockAuthenticator implements identity.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, email, password string) (string, *identity.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*identity.User), args.Error(2)
}

func (m *MockAuthenticator) IdentityFromClaims(ctx context.Context, claims identity.AuthClaims) (*identity.User, error) {
	args := m.Called(ctx, claims)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

// TestIdentity is a simple implementation of Identity interface for testing
type TestIdentity struct {
	id        string
	displayID int64
	email     string
	role      string
}

func (t TestIdentity) ID() string       { return t.id }
func (t TestIdentity) DisplayID() int64 { return t.displayID }
func (t TestIdentity) Email() string    { return t.email }
func (t TestIdentity) Role() string     { return t.role }

// stubUsers is an in-memory Users repository covering the code paths the
// services exercise. Everything else falls through to the embedded nil
// interface and panics loudly if reached.
type stubUsers struct {
	identity.Users

	mu      sync.Mutex
	byEmail map[string]*identity.User
	byID    map[string]*identity.User
}

func newStubUsers() *stubUsers {
	return &stubUsers{
		byEmail: map[string]*identity.User{},
		byID:    map[string]*identity.User{},
	}
}

func (s *stubUsers) put(user *identity.User) {
	s.byEmail[user.Email] = user
	s.byID[user.ID.String()] = user
}

func (s *stubUsers) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	return s.GetByEmailTx(ctx, nil, email)
}

func (s *stubUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.byEmail[identity.NormalizeEmail(email)]; ok {
		return user, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (s *stubUsers) Register(ctx context.Context, user *identity.User) (*identity.User, error) {
	return s.RegisterTx(ctx, nil, user)
}

func (s *stubUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *identity.User) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Role == "" {
		user.Role = identity.RoleAdopter
	}
	user.Email = identity.NormalizeEmail(user.Email)
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	s.put(user)
	return user, nil
}

func (s *stubUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (s *stubUsers) List(ctx context.Context) ([]*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*identity.User, 0, len(s.byID))
	for _, user := range s.byID {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayID < out[j].DisplayID })
	return out, nil
}

func (s *stubUsers) Update(ctx context.Context, record *identity.User, criteria ...repository.UpdateCriteria) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(record)
	return record, nil
}

func (s *stubUsers) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id.String()]
	if !ok {
		return repository.NewRecordNotFound()
	}
	user.ResetTokenHash = &tokenHash
	user.ResetTokenExpiry = &expiry
	return nil
}

func (s *stubUsers) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id.String()]
	if !ok {
		return repository.NewRecordNotFound()
	}
	user.ResetTokenHash = nil
	user.ResetTokenExpiry = nil
	return nil
}

func (s *stubUsers) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.byID {
		if user.ResetTokenHash != nil && *user.ResetTokenHash == tokenHash &&
			user.ResetTokenExpiry != nil && user.ResetTokenExpiry.After(now) {
			user.PasswordHash = passwordHash
			user.ResetTokenHash = nil
			user.ResetTokenExpiry = nil
			return user, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

// stubRepo implements identity.RepositoryManager over the in-memory stubs
type stubRepo struct {
	users     *stubUsers
	sequences *identity.MemorySequences
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:     newStubUsers(),
		sequences: identity.NewMemorySequences(),
	}
}

func (r *stubRepo) Users() identity.Users         { return r.users }
func (r *stubRepo) Sequences() identity.Sequences { return r.sequences }
func (r *stubRepo) Validate() error               { return nil }
func (r *stubRepo) MustValidate()                 {}

func (r *stubRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

// capturingMailer records outbound mail and optionally fails sends
type capturingMailer struct {
	mu      sync.Mutex
	sent    []identity.Email
	sendErr error
}

func (m *capturingMailer) Send(ctx context.Context, msg identity.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *capturingMailer) Sent() []identity.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]identity.Email, len(m.sent))
	copy(out, m.sent)
	return out
}

// MockContext mocks router.Context
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}
