package auth_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/auth"
	userDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

// mockUserStore keeps users in memory keyed by username.
type mockUserStore struct {
	mu          sync.Mutex
	users       map[string]*userDatamodel.User
	nextID      int64
	lastLogins  map[int64]time.Time
	shouldFail  bool
	touchFailed bool
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users:      map[string]*userDatamodel.User{},
		nextID:     1,
		lastLogins: map[int64]time.Time{},
	}
}

func (m *mockUserStore) GetByUsername(_ context.Context, username string) (*userDatamodel.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return nil, errors.New("database unavailable")
	}
	u, ok := m.users[username]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserStore) Create(_ context.Context, u *userDatamodel.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[u.Username]; exists {
		return internal.ErrUsernameTaken
	}
	u.ID = m.nextID
	m.nextID++
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.Username] = &cp
	return nil
}

func (m *mockUserStore) TouchLastLogin(_ context.Context, userID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.touchFailed {
		return errors.New("write failed")
	}
	m.lastLogins[userID] = at
	return nil
}

func (m *mockUserStore) delete(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, username)
}

// stubEvaluator returns whatever permissions the test put in it for a user id.
type stubEvaluator struct {
	perms map[int64][]string
	err   error
	calls int
}

func (s *stubEvaluator) EffectivePermissions(_ context.Context, userID int64) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.perms[userID], nil
}

// countingHasher records how many digests were checked.
type countingHasher struct {
	auth.BcryptHasher
	verifies int
}

func (c *countingHasher) Verify(plain, digest string) (bool, error) {
	c.verifies++
	return c.BcryptHasher.Verify(plain, digest)
}

var _ = Describe("AuthService", func() {
	var (
		ctx       context.Context
		store     *mockUserStore
		evaluator *stubEvaluator
		tokenGen  *auth.JWTTokenGenerator
		now       time.Time
		service   *auth.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newMockUserStore()
		evaluator = &stubEvaluator{perms: map[int64][]string{}}
		now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		var err error
		tokenGen, err = auth.NewJWTTokenGenerator(testSecret, "HS256")
		Expect(err).NotTo(HaveOccurred())
		tokenGen.WithClock(func() time.Time { return now })

		service = auth.NewService(store, evaluator, auth.BcryptHasher{Cost: bcrypt.MinCost}, tokenGen, 30*time.Minute)
	})

	register := func(username, password string) *userDatamodel.User {
		u, err := service.Register(ctx, auth.RegisterDTO{Username: username, Password: password, Email: username + "@example.com"})
		Expect(err).NotTo(HaveOccurred())
		return u
	}

	Describe("Register", func() {
		It("stores a hashed password and no roles", func() {
			u := register("alice", "pw1")
			Expect(u.ID).To(BeNumerically(">", 0))
			Expect(u.HashedPassword).NotTo(Equal("pw1"))
			Expect(u.Roles).To(BeEmpty())
		})

		It("fails with a conflict on a duplicate username", func() {
			register("alice", "pw1")
			_, err := service.Register(ctx, auth.RegisterDTO{Username: "alice", Password: "other"})
			Expect(err).To(MatchError(internal.ErrUsernameTaken))
		})

		It("validates input", func() {
			_, err := service.Register(ctx, auth.RegisterDTO{Username: "", Password: "pw1"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})

	Describe("Authenticate", func() {
		BeforeEach(func() {
			register("alice", "pw1")
		})

		It("returns a bearer token whose subject is the username", func() {
			resp, err := service.Authenticate(ctx, auth.LoginDTO{Username: "alice", Password: "pw1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.TokenType).To(Equal("bearer"))
			Expect(resp.ExpiresIn).To(Equal(int64(1800)))

			claims, err := tokenGen.Verify(resp.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Subject).To(Equal("alice"))
		})

		It("records last login", func() {
			u, err := store.GetByUsername(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Authenticate(ctx, auth.LoginDTO{Username: "alice", Password: "pw1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(store.lastLogins).To(HaveKey(u.ID))
		})

		It("still logs in when last login cannot be written", func() {
			store.touchFailed = true
			_, err := service.Authenticate(ctx, auth.LoginDTO{Username: "alice", Password: "pw1"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("fails identically for a wrong password and an unknown user", func() {
			_, wrongPassword := service.Authenticate(ctx, auth.LoginDTO{Username: "alice", Password: "nope"})
			_, unknownUser := service.Authenticate(ctx, auth.LoginDTO{Username: "mallory", Password: "pw1"})

			Expect(wrongPassword).To(MatchError(internal.ErrInvalidCredentials))
			Expect(unknownUser).To(MatchError(internal.ErrInvalidCredentials))
			Expect(wrongPassword.Error()).To(Equal(unknownUser.Error()))
		})

		It("verifies a digest for an unknown user as it does for a known one", func() {
			hasher := &countingHasher{BcryptHasher: auth.BcryptHasher{Cost: bcrypt.MinCost}}
			service = auth.NewService(store, evaluator, hasher, tokenGen, 30*time.Minute)

			_, err := service.Authenticate(ctx, auth.LoginDTO{Username: "alice", Password: "nope"})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
			Expect(hasher.verifies).To(Equal(1))

			_, err = service.Authenticate(ctx, auth.LoginDTO{Username: "mallory", Password: "nope"})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
			Expect(hasher.verifies).To(Equal(2))
		})

		It("surfaces store failures as non-credential errors", func() {
			store.shouldFail = true
			_, err := service.Authenticate(ctx, auth.LoginDTO{Username: "alice", Password: "pw1"})
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, internal.ErrInvalidCredentials)).To(BeFalse())
		})
	})

	Describe("Authorize", func() {
		var (
			alice *userDatamodel.User
			token string
		)

		BeforeEach(func() {
			alice = register("alice", "pw1")
			resp, err := service.Authenticate(ctx, auth.LoginDTO{Username: "alice", Password: "pw1"})
			Expect(err).NotTo(HaveOccurred())
			token = resp.AccessToken
		})

		It("allows a permission in the effective set", func() {
			evaluator.perms[alice.ID] = []string{"read_hudson"}

			u, err := service.Authorize(ctx, token, "read_hudson")
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Username).To(Equal("alice"))
			Expect(u.Permissions).To(ConsistOf("read_hudson"))
		})

		It("forbids a permission outside the effective set", func() {
			evaluator.perms[alice.ID] = []string{"read_user"}

			_, err := service.Authorize(ctx, token, "read_hudson")
			Expect(err).To(MatchError(internal.ErrForbidden))
		})

		It("re-evaluates permissions on every call", func() {
			evaluator.perms[alice.ID] = []string{"read_hudson"}
			_, err := service.Authorize(ctx, token, "read_hudson")
			Expect(err).NotTo(HaveOccurred())

			evaluator.perms[alice.ID] = nil
			_, err = service.Authorize(ctx, token, "read_hudson")
			Expect(err).To(MatchError(internal.ErrForbidden))
			Expect(evaluator.calls).To(Equal(2))
		})

		It("is unauthenticated once the token has expired", func() {
			evaluator.perms[alice.ID] = []string{"read_hudson"}
			now = now.Add(30*time.Minute + time.Second)

			_, err := service.Authorize(ctx, token, "read_hudson")
			Expect(err).To(MatchError(internal.ErrUnauthenticated))
		})

		It("is unauthenticated when the user was deleted after issuance", func() {
			store.delete("alice")

			_, err := service.Authorize(ctx, token, "read_hudson")
			Expect(err).To(MatchError(internal.ErrUnauthenticated))
			_, err = service.CurrentUser(ctx, token)
			Expect(err).To(MatchError(internal.ErrUnauthenticated))
		})

		It("is unauthenticated for an empty or tampered token", func() {
			_, err := service.Authorize(ctx, "", "read_hudson")
			Expect(err).To(MatchError(internal.ErrUnauthenticated))

			_, err = service.Authorize(ctx, token+"x", "read_hudson")
			Expect(err).To(MatchError(internal.ErrUnauthenticated))
		})

		It("propagates evaluator failures", func() {
			evaluator.err = errors.New("join failed")

			_, err := service.Authorize(ctx, token, "read_hudson")
			Expect(err).To(MatchError(ContainSubstring("join failed")))
			Expect(errors.Is(err, internal.ErrForbidden)).To(BeFalse())
		})
	})

	Describe("CurrentUser", func() {
		It("resolves identity without a permission check", func() {
			register("bob", "pw2")
			resp, err := service.Authenticate(ctx, auth.LoginDTO{Username: "bob", Password: "pw2"})
			Expect(err).NotTo(HaveOccurred())

			u, err := service.CurrentUser(ctx, resp.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Username).To(Equal("bob"))
			Expect(u.Permissions).To(BeEmpty())
		})
	})
})
