package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/alumni-backend/internal/domain/entity"
	"github.com/oksasatya/alumni-backend/internal/domain/repository"
	"github.com/oksasatya/alumni-backend/internal/infrastructure/memory"
	"github.com/oksasatya/alumni-backend/pkg/helpers"
	"github.com/oksasatya/alumni-backend/pkg/mailer"
)

// inbox is a mail transport that records codes and can be told to fail.
type inbox struct {
	mu    sync.Mutex
	fail  bool
	sent  []mailer.Message
	tries int
}

func (b *inbox) SendOTP(ctx context.Context, m mailer.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tries++
	if b.fail {
		return errors.New("provider down")
	}
	b.sent = append(b.sent, m)
	return nil
}

func (b *inbox) lastCode(t *testing.T, to string) string {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.sent) - 1; i >= 0; i-- {
		if b.sent[i].To == to {
			return b.sent[i].Code
		}
	}
	t.Fatalf("no mail sent to %s", to)
	return ""
}

type fakeSessions struct {
	mu      sync.Mutex
	saved   map[string]entity.Session
	revoked []string
}

func (f *fakeSessions) Save(_ context.Context, s entity.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = map[string]entity.Session{}
	}
	f.saved[s.AccountID] = s
	return nil
}

func (f *fakeSessions) Revoke(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, id)
	f.revoked = append(f.revoked, id)
	return nil
}

type fakeDirectory struct {
	mu      sync.Mutex
	docs    map[string]entity.DirectoryEntry
	removed []string
}

func (f *fakeDirectory) Index(_ context.Context, a *entity.Account, p *entity.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docs == nil {
		f.docs = map[string]entity.DirectoryEntry{}
	}
	f.docs[a.ID] = entity.DirectoryEntry{AccountID: a.ID, Email: a.Email, Name: p.Name}
	return nil
}

func (f *fakeDirectory) Remove(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeDirectory) Search(_ context.Context, q string, _ int) ([]entity.DirectoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.DirectoryEntry
	for _, d := range f.docs {
		if d.Name == q {
			out = append(out, d)
		}
	}
	return out, nil
}

type harness struct {
	svc       *AccountService
	store     *memory.AccountStore
	mail      *inbox
	jwt       *helpers.JWTManager
	sessions  *fakeSessions
	directory *fakeDirectory
	metrics   *Metrics
	now       time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	jwt, err := helpers.NewJWTManager("test-secret", helpers.DefaultTokenTTL)
	require.NoError(t, err)
	jwt.WithClock(func() time.Time { return now })

	logger, _ := test.NewNullLogger()
	h := &harness{
		store:     memory.NewAccountStore(),
		mail:      &inbox{},
		jwt:       jwt,
		sessions:  &fakeSessions{},
		directory: &fakeDirectory{},
		metrics:   NewMetrics(prometheus.NewRegistry()),
		now:       now,
	}
	h.svc = NewAccountService(Deps{
		Store:     h.store,
		Hasher:    helpers.NewPasswordHasher(helpers.Argon2Params{Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32}),
		Tokens:    jwt,
		Mail:      h.mail,
		Sessions:  h.sessions,
		Directory: h.directory,
		Logger:    logger,
		Metrics:   h.metrics,
	})
	return h
}

func signupInput(email string) SignupInput {
	return SignupInput{
		Email: email, Password: "Abc123!@", Name: "Ann", Gender: entity.GenderFemale,
		RollNumber: "MT2020001", PhoneNumber: "9999999999", Designation: "Engineer",
		GraduationYear: 2022, Address: "Bangalore", Course: entity.CourseDataScience,
	}
}

func (h *harness) verified(t *testing.T, email string) {
	t.Helper()
	_, err := h.svc.Signup(context.Background(), signupInput(email))
	require.NoError(t, err)
	_, err = h.svc.VerifyOTP(context.Background(), email, h.mail.lastCode(t, email))
	require.NoError(t, err)
}

func TestSignup_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SignupInput)
		field  string
	}{
		{"missing email", func(in *SignupInput) { in.Email = "" }, "email"},
		{"malformed email", func(in *SignupInput) { in.Email = "not-an-email" }, "email"},
		{"missing name", func(in *SignupInput) { in.Name = "" }, "name"},
		{"missing password", func(in *SignupInput) { in.Password = "" }, "password"},
		{"weak password", func(in *SignupInput) { in.Password = "abcdef" }, "password"},
		{"unknown course", func(in *SignupInput) { in.Course = "HISTORY" }, "course"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			in := signupInput("a@x.com")
			tt.mutate(&in)

			_, err := h.svc.Signup(context.Background(), in)
			require.ErrorIs(t, err, ErrValidation)

			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Contains(t, e.Details, tt.field)
			assert.Zero(t, h.mail.tries)
		})
	}
}

func TestSignup_AcceptsEveryGender(t *testing.T) {
	for _, g := range []entity.Gender{entity.GenderMale, entity.GenderFemale, entity.GenderPreferNotToSay} {
		t.Run(string(g), func(t *testing.T) {
			h := newHarness(t)
			in := signupInput("a@x.com")
			in.Gender = g

			res, err := h.svc.Signup(context.Background(), in)
			require.NoError(t, err)
			assert.Equal(t, g, res.Profile.Gender)
		})
	}

	h := newHarness(t)
	in := signupInput("a@x.com")
	in.Gender = "Other"
	_, err := h.svc.Signup(context.Background(), in)
	require.ErrorIs(t, err, ErrValidation)
}

// Happy path: signup, verify the emailed code, log in.
func TestLifecycle_SignupVerifyLogin(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	res, err := h.svc.Signup(ctx, signupInput("a@x.com"))
	require.NoError(t, err)
	assert.Equal(t, MsgSignupAccepted, res.Message)
	assert.Equal(t, "a@x.com", res.Profile.Email)

	account, _, err := h.store.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, account.IsOTPVerified)
	assert.True(t, account.HasPendingOTP())
	assert.Equal(t, entity.RoleUser, account.Role)

	_, err = h.svc.Login(ctx, "a@x.com", "Abc123!@")
	require.ErrorIs(t, err, ErrAuth, "unverified accounts cannot log in")

	tok, err := h.svc.VerifyOTP(ctx, "a@x.com", h.mail.lastCode(t, "a@x.com"))
	require.NoError(t, err)
	assert.NotEmpty(t, tok.AccessToken)

	account, _, err = h.store.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, account.IsOTPVerified)
	assert.Nil(t, account.OTP)
	assert.Contains(t, h.sessions.saved, account.ID)
	assert.Contains(t, h.directory.docs, account.ID)

	tok, err = h.svc.Login(ctx, "a@x.com", "Abc123!@")
	require.NoError(t, err)
	assert.NotEmpty(t, tok.AccessToken)
}

// The token carries the account identity and a seven day expiry.
func TestTokenContents(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.verified(t, "a@x.com")

	tok, err := h.svc.Login(ctx, "a@x.com", "Abc123!@")
	require.NoError(t, err)

	claims, err := h.jwt.Parse(tok.AccessToken)
	require.NoError(t, err)
	account, profile, err := h.store.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)

	assert.Equal(t, account.ID, claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, profile.Name, claims.Name)
	assert.Equal(t, "MT2020001", claims.RollNo)
	assert.Equal(t, "USER", claims.Role)
	assert.Equal(t, h.now.Add(7*24*time.Hour), claims.ExpiresAt.Time.UTC())
	assert.Equal(t, h.now.Add(7*24*time.Hour), tok.ExpiresAt)
}

// A failed verification mail leaves neither record behind.
func TestSignup_DispatchFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.mail.fail = true

	_, err := h.svc.Signup(ctx, signupInput("a@x.com"))
	require.ErrorIs(t, err, ErrDispatch)
	assert.Equal(t, ErrDispatch, KindOf(err))

	accounts, profiles := h.store.Len()
	assert.Zero(t, accounts)
	assert.Zero(t, profiles)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.compensations.WithLabelValues("deleted")))

	_, err = h.svc.Login(ctx, "a@x.com", "anything")
	require.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, err, ErrAuth)
}

func TestSignup_DispatchRetriesThroughDispatcher(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	calls := 0
	failing := mailer.TransportFunc(func(context.Context, string, string, string, string) error {
		calls++
		return errors.New("smtp down")
	})
	h.svc.mail = mailer.NewDispatcher(failing, mailer.Options{MaxAttempts: 3, BaseDelay: time.Millisecond})

	_, err := h.svc.Signup(ctx, signupInput("a@x.com"))
	require.ErrorIs(t, err, ErrDispatch)
	assert.ErrorIs(t, err, mailer.ErrDispatchFailed)
	assert.Equal(t, 3, calls)

	accounts, _ := h.store.Len()
	assert.Zero(t, accounts)
}

func TestSignup_CancelledRequestStillCompensates(t *testing.T) {
	h := newHarness(t)
	h.svc.mail = mailer.NewDispatcher(mailer.TransportFunc(func(context.Context, string, string, string, string) error {
		return errors.New("timeout")
	}), mailer.Options{MaxAttempts: 3, BaseDelay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := h.svc.Signup(ctx, signupInput("a@x.com"))
	require.ErrorIs(t, err, ErrDispatch)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	accounts, profiles := h.store.Len()
	assert.Zero(t, accounts)
	assert.Zero(t, profiles)
}

func TestSignup_Duplicate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.svc.Signup(ctx, signupInput("a@x.com"))
	require.NoError(t, err)
	_, err = h.svc.Signup(ctx, signupInput("a@x.com"))
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, h.mail.tries)
}

// duplicateAfterCheck lets the pre-check pass and then loses the insert race.
type duplicateAfterCheck struct {
	*memory.AccountStore
}

func (d duplicateAfterCheck) CreateLinked(context.Context, *entity.Account, *entity.Profile) error {
	return repository.ErrDuplicateEmail
}

func TestSignup_StoreUniquenessIsTheGuard(t *testing.T) {
	h := newHarness(t)
	h.svc.store = duplicateAfterCheck{memory.NewAccountStore()}

	_, err := h.svc.Signup(context.Background(), signupInput("a@x.com"))
	require.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
	assert.Zero(t, h.mail.tries)
}

// Only one of many concurrent signups for an email succeeds.
func TestSignup_ConcurrentSameEmail(t *testing.T) {
	h := newHarness(t)
	const n = 8

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.Signup(context.Background(), signupInput("race@x.com"))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrConflict)
	}
	assert.Equal(t, 1, ok)
	accounts, profiles := h.store.Len()
	assert.Equal(t, 1, accounts)
	assert.Equal(t, 1, profiles)
}

// A wrong code is rejected and the account stays unverified.
func TestVerifyOTP_Mismatch(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.svc.newOTP = func() (string, error) { return "1234", nil }

	_, err := h.svc.Signup(ctx, signupInput("a@x.com"))
	require.NoError(t, err)

	_, err = h.svc.VerifyOTP(ctx, "a@x.com", "0000")
	require.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, "Invalid OTP", MessageOf(err))

	account, _, err := h.store.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, account.IsOTPVerified)
	assert.Equal(t, "1234", *account.OTP)
}

func TestVerifyOTP_Errors(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.verified(t, "a@x.com")

	_, err := h.svc.VerifyOTP(ctx, "", "1")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.svc.VerifyOTP(ctx, "ghost@x.com", "123456")
	assert.ErrorIs(t, err, ErrNotFound)

	// no challenge outstanding once verified
	_, err = h.svc.VerifyOTP(ctx, "a@x.com", "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = h.svc.VerifyOTP(ctx, "a@x.com", "123456")
	assert.ErrorIs(t, err, ErrAuth)
}

// An unverified account cannot log in, whatever the password.
func TestLogin_VerificationGate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.svc.Signup(ctx, signupInput("a@x.com"))
	require.NoError(t, err)

	for _, pw := range []string{"Abc123!@", "wrong", "null"} {
		_, err := h.svc.Login(ctx, "a@x.com", pw)
		require.ErrorIs(t, err, ErrAuth, pw)
		assert.Equal(t, "User is not OTP verified", MessageOf(err))
	}
}

func TestLogin_Errors(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.verified(t, "a@x.com")

	_, err := h.svc.Login(ctx, "a@x.com", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.svc.Login(ctx, "a@x.com", "Abc123!#")
	assert.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, "Incorrect password", MessageOf(err))

	_, err = h.svc.Login(ctx, "A@x.com", "Abc123!@")
	assert.ErrorIs(t, err, ErrAuth, "email lookup is case-sensitive")
}

func TestLogin_UpgradesLegacyDigest(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.verified(t, "a@x.com")

	legacy, err := bcrypt.GenerateFromPassword([]byte("Abc123!@"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, h.store.CompletePasswordReset(ctx, "a@x.com", string(legacy)))

	_, err = h.svc.Login(ctx, "a@x.com", "Abc123!@")
	require.NoError(t, err)

	_, profile, err := h.store.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(profile.PasswordHash, "$argon2id$"))

	_, err = h.svc.Login(ctx, "a@x.com", "Abc123!@")
	require.NoError(t, err)
}

// Full reset: forgot, verify, change, then login with the new password.
func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.verified(t, "a@x.com")
	account, _, err := h.store.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)

	_, err = h.svc.ChangePassword(ctx, "a@x.com", "NewPass1!")
	require.ErrorIs(t, err, ErrAuth, "reset not started")

	res, err := h.svc.ForgotPassword(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, MsgResetStarted, res.Message)
	assert.Contains(t, h.sessions.revoked, account.ID)

	_, profile, err := h.store.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, entity.PasswordResetSentinel, profile.PasswordHash)

	_, err = h.svc.Login(ctx, "a@x.com", "Abc123!@")
	require.ErrorIs(t, err, ErrAuth, "old password invalidated")

	_, err = h.svc.ChangePassword(ctx, "a@x.com", "NewPass1!")
	require.ErrorIs(t, err, ErrAuth, "reset otp not verified")

	_, err = h.svc.VerifyOTP(ctx, "a@x.com", h.mail.lastCode(t, "a@x.com"))
	require.NoError(t, err)

	_, err = h.svc.Login(ctx, "a@x.com", "null")
	require.ErrorIs(t, err, ErrAuth, "sentinel never verifies")

	res, err = h.svc.ChangePassword(ctx, "a@x.com", "NewPass1!")
	require.NoError(t, err)
	assert.Equal(t, MsgPasswordUpdated, res.Message)

	account, _, err = h.store.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, account.IsChangingPassword)

	_, err = h.svc.Login(ctx, "a@x.com", "NewPass1!")
	require.NoError(t, err)
	_, err = h.svc.Login(ctx, "a@x.com", "Abc123!@")
	require.ErrorIs(t, err, ErrAuth)

	// the flag is cleared, so a second change needs a new reset
	_, err = h.svc.ChangePassword(ctx, "a@x.com", "Other1!x")
	require.ErrorIs(t, err, ErrAuth)
}

func TestPasswordReset_Errors(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.svc.ForgotPassword(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = h.svc.ChangePassword(ctx, "ghost@x.com", "NewPass1!")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = h.svc.ChangePassword(ctx, "ghost@x.com", "weak")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestForgotPassword_DispatchFailureKeepsResetState(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.verified(t, "a@x.com")
	h.mail.fail = true

	_, err := h.svc.ForgotPassword(ctx, "a@x.com")
	require.ErrorIs(t, err, ErrDispatch)

	account, profile, err := h.store.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, account.IsChangingPassword)
	assert.Equal(t, entity.PasswordResetSentinel, profile.PasswordHash)

	// a later request issues a fresh code
	h.mail.fail = false
	_, err = h.svc.ForgotPassword(ctx, "a@x.com")
	require.NoError(t, err)
	_, err = h.svc.VerifyOTP(ctx, "a@x.com", h.mail.lastCode(t, "a@x.com"))
	require.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.verified(t, "a@x.com")

	name := "Ann Lee"
	year := 2023
	p, err := h.svc.UpdateProfile(ctx, "a@x.com", ProfileUpdate{Name: &name, GraduationYear: &year})
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", p.Name)
	assert.Equal(t, 2023, p.GraduationYear)
	assert.Equal(t, "Engineer", p.Designation, "unset fields are kept")
	assert.Equal(t, "a@x.com", p.Email)

	account, _, _ := h.store.FindByEmail(ctx, "a@x.com")
	assert.Equal(t, "Ann Lee", h.directory.docs[account.ID].Name)

	_, err = h.svc.UpdateProfile(ctx, "ghost@x.com", ProfileUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	bad := entity.Course("HISTORY")
	_, err = h.svc.UpdateProfile(ctx, "a@x.com", ProfileUpdate{Course: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	private := entity.GenderPreferNotToSay
	p, err = h.svc.UpdateProfile(ctx, "a@x.com", ProfileUpdate{Gender: &private})
	require.NoError(t, err)
	assert.Equal(t, entity.GenderPreferNotToSay, p.Gender)
}

func TestCompleteProfile(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.verified(t, "a@x.com")

	res, err := h.svc.CompleteProfile(ctx, "a@x.com", CompletionInput{FoodPreference: entity.FoodNonVeg, Designation: "Manager"})
	require.NoError(t, err)
	assert.True(t, res.IsProfileComplete)

	account, profile, err := h.store.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, account.IsCompleted)
	assert.Equal(t, entity.FoodNonVeg, *account.FoodPreference)
	assert.Equal(t, "Manager", profile.Designation)
	assert.Equal(t, "Bangalore", profile.Address)

	_, err = h.svc.CompleteProfile(ctx, "a@x.com", CompletionInput{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.verified(t, "a@x.com")
	account, _, _ := h.store.FindByEmail(ctx, "a@x.com")

	res, err := h.svc.DeleteAccount(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, MsgAccountDeleted, res.Message)

	accounts, profiles := h.store.Len()
	assert.Zero(t, accounts)
	assert.Zero(t, profiles)
	assert.Contains(t, h.sessions.revoked, account.ID)
	assert.Contains(t, h.directory.removed, account.ID)

	_, err = h.svc.DeleteAccount(ctx, "a@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = h.svc.CurrentUser(ctx, account.ID, "a@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCurrentUser_RejectsReRegisteredEmail(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.verified(t, "a@x.com")
	old, _, _ := h.store.FindByEmail(ctx, "a@x.com")

	_, _, err := h.svc.CurrentUser(ctx, old.ID, "a@x.com")
	require.NoError(t, err)

	_, err = h.svc.DeleteAccount(ctx, "a@x.com")
	require.NoError(t, err)
	h.verified(t, "a@x.com")

	_, _, err = h.svc.CurrentUser(ctx, old.ID, "a@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchAlumni(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.verified(t, "a@x.com")

	hits, err := h.svc.SearchAlumni(ctx, "Ann", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a@x.com", hits[0].Email)

	_, err = h.svc.SearchAlumni(ctx, "  ", 5)
	assert.ErrorIs(t, err, ErrValidation)

	h.svc.directory = nil
	hits, err = h.svc.SearchAlumni(ctx, "Ann", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrInternal, KindOf(errors.New("boom")))
	assert.Equal(t, ErrAuth, KindOf(newErr(ErrAuth, "x", repository.ErrNotFound)))
	assert.Equal(t, "internal server error", MessageOf(errors.New("boom")))
}
