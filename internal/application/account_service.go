package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/alumni-backend/internal/domain/entity"
	"github.com/oksasatya/alumni-backend/internal/domain/repository"
	"github.com/oksasatya/alumni-backend/pkg/helpers"
	"github.com/oksasatya/alumni-backend/pkg/mailer"
	"github.com/oksasatya/alumni-backend/pkg/validation"
)

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(digest, plain string) bool
}

// rehasher is implemented by hashers that can tell when a stored digest was
// produced with outdated parameters.
type rehasher interface {
	NeedsRehash(digest string) bool
}

type TokenIssuer interface {
	Issue(c helpers.TokenClaims) (string, time.Time, error)
}

type MailDispatcher interface {
	SendOTP(ctx context.Context, m mailer.Message) error
}

type SessionStore interface {
	Save(ctx context.Context, s entity.Session) error
	Revoke(ctx context.Context, accountID string) error
}

type ProfileIndex interface {
	Index(ctx context.Context, a *entity.Account, p *entity.Profile) error
	Remove(ctx context.Context, accountID string) error
	Search(ctx context.Context, q string, size int) ([]entity.DirectoryEntry, error)
}

// Deps wires AccountService. Sessions and Directory are optional.
type Deps struct {
	Store     repository.AccountStore
	Hasher    PasswordHasher
	Tokens    TokenIssuer
	Mail      MailDispatcher
	Sessions  SessionStore
	Directory ProfileIndex
	Logger    logrus.FieldLogger
	Metrics   *Metrics

	OTPLength           int
	NewOTP              func() (string, error)
	CompensationTimeout time.Duration
}

// AccountService owns the account lifecycle: signup, OTP verification,
// login, the password reset sequence and profile maintenance.
type AccountService struct {
	store     repository.AccountStore
	hasher    PasswordHasher
	tokens    TokenIssuer
	mail      MailDispatcher
	sessions  SessionStore
	directory ProfileIndex
	log       logrus.FieldLogger
	metrics   *Metrics

	newOTP              func() (string, error)
	compensationTimeout time.Duration
}

func NewAccountService(d Deps) *AccountService {
	s := &AccountService{
		store:               d.Store,
		hasher:              d.Hasher,
		tokens:              d.Tokens,
		mail:                d.Mail,
		sessions:            d.Sessions,
		directory:           d.Directory,
		log:                 d.Logger,
		metrics:             d.Metrics,
		newOTP:              d.NewOTP,
		compensationTimeout: d.CompensationTimeout,
	}
	if s.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		s.log = l
	}
	if s.newOTP == nil {
		n := d.OTPLength
		s.newOTP = func() (string, error) { return helpers.GenOTPCode(n) }
	}
	if s.compensationTimeout <= 0 {
		s.compensationTimeout = 10 * time.Second
	}
	return s
}

const (
	MsgSignupAccepted   = "OTP sent to email for verification"
	MsgResetStarted     = "Forgot Password Process initialized otp sent"
	MsgPasswordUpdated  = "Password updated successfully"
	MsgAccountDeleted   = "User deleted successfully"
	MsgProfileCompleted = "Profile updated successfully"
)

type SignupInput struct {
	Email          string        `json:"email" validate:"required,email"`
	Password       string        `json:"password" validate:"required,password"`
	Name           string        `json:"name" validate:"required"`
	Gender         entity.Gender `json:"gender" validate:"omitempty,oneof=Male Female PreferNotToSay"`
	RollNumber     string        `json:"rollno"`
	PhoneNumber    string        `json:"phonenumber"`
	Designation    string        `json:"designation"`
	GraduationYear int           `json:"gradyear" validate:"gradyear"`
	Address        string        `json:"addr"`
	Course         entity.Course `json:"course" validate:"omitempty,oneof=SOFTWARESYSTEMS DATASCIENCE"`
}

type SignupResult struct {
	Message string
	Profile *entity.Profile
}

type TokenResult struct {
	AccessToken string
	ExpiresAt   time.Time
}

type MessageResult struct {
	Message string
}

// ProfileUpdate is a field-level patch; nil keeps the stored value.
// Email is the join key and is not patchable.
type ProfileUpdate struct {
	Name           *string        `json:"name" validate:"omitempty,min=1"`
	Gender         *entity.Gender `json:"gender" validate:"omitempty,oneof=Male Female PreferNotToSay"`
	RollNumber     *string        `json:"rollno"`
	PhoneNumber    *string        `json:"phonenumber"`
	Designation    *string        `json:"designation"`
	GraduationYear *int           `json:"gradyear" validate:"omitempty,gradyear"`
	Address        *string        `json:"addr"`
	Course         *entity.Course `json:"course" validate:"omitempty,oneof=SOFTWARESYSTEMS DATASCIENCE"`
}

// CompletionInput fills the extended profile. Empty fields keep the stored value.
type CompletionInput struct {
	FoodPreference entity.FoodPreference `json:"foodPreference" validate:"required,oneof=Veg NonVeg"`
	RollNumber     string                `json:"rollno"`
	Gender         entity.Gender         `json:"gender" validate:"omitempty,oneof=Male Female PreferNotToSay"`
	PhoneNumber    string                `json:"phonenumber"`
	Designation    string                `json:"designation"`
	GraduationYear int                   `json:"gradyear" validate:"gradyear"`
	Address        string                `json:"addr"`
	Course         entity.Course         `json:"course" validate:"omitempty,oneof=SOFTWARESYSTEMS DATASCIENCE"`
}

type CompletionResult struct {
	Message           string
	IsProfileComplete bool
}

// Signup creates the linked account and profile, then mails the verification
// code. If the code cannot be delivered both records are removed again.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*SignupResult, error) {
	if err := validation.Struct(in); err != nil {
		s.metrics.signup("invalid")
		return nil, validationErr("Invalid signup details", validation.ToDetails(err))
	}

	_, _, err := s.store.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		s.metrics.signup("conflict")
		return nil, newErr(ErrConflict, "User with this email already exists", nil)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, s.internal("signup lookup failed", err, in.Email)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, s.internal("hash password failed", err, in.Email)
	}
	otp, err := s.newOTP()
	if err != nil {
		return nil, s.internal("generate otp failed", err, in.Email)
	}

	accountID := uuid.NewString()
	account := &entity.Account{
		ID:    accountID,
		Email: in.Email,
		Role:  entity.RoleUser,
		OTP:   &otp,
	}
	profile := &entity.Profile{
		ID:             uuid.NewString(),
		UserID:         accountID,
		Email:          in.Email,
		PasswordHash:   digest,
		Name:           in.Name,
		Gender:         in.Gender,
		RollNumber:     in.RollNumber,
		PhoneNumber:    in.PhoneNumber,
		Designation:    in.Designation,
		GraduationYear: in.GraduationYear,
		Address:        in.Address,
		Course:         in.Course,
	}
	if err := s.store.CreateLinked(ctx, account, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			s.metrics.signup("conflict")
			return nil, newErr(ErrConflict, "User with this email already exists", err)
		}
		return nil, s.internal("create account failed", err, in.Email)
	}

	if err := s.mail.SendOTP(ctx, mailer.Message{To: in.Email, Name: in.Name, Code: otp, Purpose: mailer.PurposeVerify}); err != nil {
		s.compensateSignup(ctx, in.Email)
		s.metrics.signup("dispatch_failed")
		return nil, newErr(ErrDispatch, "Failed to send verification email. Please contact support.", err)
	}

	s.metrics.signup("accepted")
	s.log.WithFields(logrus.Fields{"account_id": accountID, "email": in.Email}).Info("signup accepted")
	return &SignupResult{Message: MsgSignupAccepted, Profile: profile}, nil
}

// compensateSignup removes the just-created records. It runs detached from
// request cancellation so an aborted request still cleans up.
func (s *AccountService) compensateSignup(ctx context.Context, email string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.compensationTimeout)
	defer cancel()
	log := s.log.WithField("email", email)
	if err := s.store.DeleteLinked(cctx, email); err != nil {
		s.metrics.compensation("failed")
		log.WithError(err).Error("signup compensation failed, account left without verification mail")
		return
	}
	s.metrics.compensation("deleted")
	log.Warn("signup rolled back after mail dispatch failure")
}

// VerifyOTP confirms the outstanding challenge and issues an access token.
func (s *AccountService) VerifyOTP(ctx context.Context, email, otp string) (*TokenResult, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(otp) == "" {
		return nil, validationErr("Email and OTP are required", nil)
	}
	account, profile, err := s.find(ctx, email, "User not found")
	if err != nil {
		return nil, err
	}
	if !account.HasPendingOTP() || subtle.ConstantTimeCompare([]byte(*account.OTP), []byte(otp)) != 1 {
		return nil, newErr(ErrAuth, "Invalid OTP", nil)
	}
	if err := s.store.MarkOTPVerified(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newErr(ErrNotFound, "User not found", err)
		}
		return nil, s.internal("mark otp verified failed", err, email)
	}
	account.OTP = nil
	account.IsOTPVerified = true

	tok, err := s.issue(ctx, account, profile)
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, account, profile)
	return tok, nil
}

// Login checks credentials of a verified account and issues an access token.
func (s *AccountService) Login(ctx context.Context, email, password string) (*TokenResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, validationErr("Email and password are required", nil)
	}
	account, profile, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newErr(ErrAuth, "No user found", err)
		}
		return nil, s.internal("login lookup failed", err, email)
	}
	if !account.IsOTPVerified {
		return nil, newErr(ErrAuth, "User is not OTP verified", nil)
	}
	if !s.hasher.Verify(profile.PasswordHash, password) {
		return nil, newErr(ErrAuth, "Incorrect password", nil)
	}
	s.upgradeHash(ctx, email, profile.PasswordHash, password)
	return s.issue(ctx, account, profile)
}

// upgradeHash re-hashes a verified password whose digest uses outdated
// parameters. A successful login implies no reset is pending, so storing the
// digest through CompletePasswordReset leaves the reset flag untouched.
func (s *AccountService) upgradeHash(ctx context.Context, email, digest, password string) {
	rh, ok := s.hasher.(rehasher)
	if !ok || !rh.NeedsRehash(digest) {
		return
	}
	fresh, err := s.hasher.Hash(password)
	if err == nil {
		err = s.store.CompletePasswordReset(ctx, email, fresh)
	}
	if err != nil {
		s.log.WithError(err).WithField("email", email).Warn("password rehash failed")
	}
}

// ForgotPassword starts a reset: new challenge, verification revoked, password
// replaced by the sentinel. A failed mail is reported but not rolled back; the
// caller may request a fresh code.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) (*MessageResult, error) {
	if strings.TrimSpace(email) == "" {
		return nil, validationErr("Email is required", nil)
	}
	account, profile, err := s.find(ctx, email, "User with the given mail not found")
	if err != nil {
		return nil, err
	}
	otp, err := s.newOTP()
	if err != nil {
		return nil, s.internal("generate otp failed", err, email)
	}
	if err := s.store.BeginPasswordReset(ctx, email, otp); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newErr(ErrNotFound, "User with the given mail not found", err)
		}
		return nil, s.internal("begin password reset failed", err, email)
	}
	s.revoke(ctx, account.ID)

	if err := s.mail.SendOTP(ctx, mailer.Message{To: email, Name: profile.Name, Code: otp, Purpose: mailer.PurposeReset}); err != nil {
		s.log.WithError(err).WithField("email", email).Error("password reset mail not delivered")
		return nil, newErr(ErrDispatch, "Failed to send password reset email. Please try again.", err)
	}
	return &MessageResult{Message: MsgResetStarted}, nil
}

// ChangePassword finishes a reset whose OTP has been verified.
func (s *AccountService) ChangePassword(ctx context.Context, email, newPassword string) (*MessageResult, error) {
	if strings.TrimSpace(email) == "" {
		return nil, validationErr("Email is required", nil)
	}
	if !validation.StrongPassword(newPassword) {
		return nil, validationErr("Invalid password", map[string]string{
			"newpassword": "must contain a lowercase letter, an uppercase letter, a number and a symbol, 4 to 30 characters",
		})
	}
	account, _, err := s.find(ctx, email, "User with the given mail not found")
	if err != nil {
		return nil, err
	}
	if !account.CanChangePassword() {
		return nil, newErr(ErrAuth, "forgot password process is not initialized or OTP isn't verified", nil)
	}
	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, s.internal("hash password failed", err, email)
	}
	if err := s.store.CompletePasswordReset(ctx, email, digest); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newErr(ErrNotFound, "User with the given mail not found", err)
		}
		return nil, s.internal("complete password reset failed", err, email)
	}
	return &MessageResult{Message: MsgPasswordUpdated}, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, email string, in ProfileUpdate) (*entity.Profile, error) {
	if err := validation.Struct(in); err != nil {
		return nil, validationErr("Invalid profile details", validation.ToDetails(err))
	}
	account, profile, err := s.find(ctx, email, "User not found")
	if err != nil {
		return nil, err
	}
	setIf(&profile.Name, in.Name)
	setIf(&profile.Gender, in.Gender)
	setIf(&profile.RollNumber, in.RollNumber)
	setIf(&profile.PhoneNumber, in.PhoneNumber)
	setIf(&profile.Designation, in.Designation)
	setIf(&profile.GraduationYear, in.GraduationYear)
	setIf(&profile.Address, in.Address)
	setIf(&profile.Course, in.Course)

	if err := s.store.UpdateProfile(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newErr(ErrNotFound, "User not found", err)
		}
		return nil, s.internal("update profile failed", err, email)
	}
	s.reindex(ctx, account, profile)
	return profile, nil
}

func (s *AccountService) CompleteProfile(ctx context.Context, email string, in CompletionInput) (*CompletionResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, validationErr("Invalid profile details", validation.ToDetails(err))
	}
	account, profile, err := s.find(ctx, email, "No user with the mail id:"+email+" is found.")
	if err != nil {
		return nil, err
	}
	setNonZero(&profile.Gender, in.Gender)
	setNonZero(&profile.RollNumber, in.RollNumber)
	setNonZero(&profile.PhoneNumber, in.PhoneNumber)
	setNonZero(&profile.Designation, in.Designation)
	setNonZero(&profile.GraduationYear, in.GraduationYear)
	setNonZero(&profile.Address, in.Address)
	setNonZero(&profile.Course, in.Course)

	food := in.FoodPreference
	if err := s.store.CompleteProfile(ctx, profile, &food); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newErr(ErrNotFound, "User not found", err)
		}
		return nil, s.internal("complete profile failed", err, email)
	}
	account.IsCompleted = true
	account.FoodPreference = &food
	s.reindex(ctx, account, profile)
	return &CompletionResult{Message: MsgProfileCompleted, IsProfileComplete: true}, nil
}

// DeleteAccount removes both records atomically and ends any live session.
func (s *AccountService) DeleteAccount(ctx context.Context, email string) (*MessageResult, error) {
	account, _, err := s.find(ctx, email, "User not found")
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteLinked(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newErr(ErrNotFound, "User not found", err)
		}
		return nil, s.internal("delete account failed", err, email)
	}
	s.revoke(ctx, account.ID)
	if s.directory != nil {
		if err := s.directory.Remove(ctx, account.ID); err != nil {
			s.log.WithError(err).WithField("account_id", account.ID).Warn("directory remove failed")
		}
	}
	return &MessageResult{Message: MsgAccountDeleted}, nil
}

// CurrentUser resolves the account behind a token. A token whose subject no
// longer matches the stored account (deleted, or re-registered) is NotFound.
func (s *AccountService) CurrentUser(ctx context.Context, subject, email string) (*entity.Account, *entity.Profile, error) {
	account, profile, err := s.find(ctx, email, "User not found")
	if err != nil {
		return nil, nil, err
	}
	if account.ID != subject {
		return nil, nil, newErr(ErrNotFound, "User not found", nil)
	}
	return account, profile, nil
}

// SearchAlumni queries the directory. Without a directory it returns nothing.
func (s *AccountService) SearchAlumni(ctx context.Context, q string, size int) ([]entity.DirectoryEntry, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, validationErr("Search query is required", map[string]string{"q": "is required"})
	}
	if s.directory == nil {
		return []entity.DirectoryEntry{}, nil
	}
	hits, err := s.directory.Search(ctx, q, size)
	if err != nil {
		s.log.WithError(err).WithField("query", q).Error("alumni search failed")
		return nil, newErr(ErrInternal, "Search is unavailable", err)
	}
	return hits, nil
}

func (s *AccountService) find(ctx context.Context, email, notFoundMsg string) (*entity.Account, *entity.Profile, error) {
	account, profile, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, newErr(ErrNotFound, notFoundMsg, err)
		}
		return nil, nil, s.internal("account lookup failed", err, email)
	}
	return account, profile, nil
}

func (s *AccountService) issue(ctx context.Context, a *entity.Account, p *entity.Profile) (*TokenResult, error) {
	// sub is the account id, not the profile id: sessions are keyed by it and
	// CurrentUser matches it against the stored account.
	token, exp, err := s.tokens.Issue(helpers.TokenClaims{
		Subject:    a.ID,
		Email:      p.Email,
		Name:       p.Name,
		RollNumber: p.RollNumber,
		Role:       string(a.Role),
	})
	if err != nil {
		return nil, s.internal("issue token failed", err, a.Email)
	}
	if s.sessions != nil {
		sess := entity.Session{AccountID: a.ID, Email: a.Email, Name: p.Name, Role: a.Role, ExpiresAt: exp}
		if err := s.sessions.Save(ctx, sess); err != nil {
			s.log.WithError(err).WithField("account_id", a.ID).Warn("session save failed")
		}
	}
	return &TokenResult{AccessToken: token, ExpiresAt: exp}, nil
}

func (s *AccountService) revoke(ctx context.Context, accountID string) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.Revoke(ctx, accountID); err != nil {
		s.log.WithError(err).WithField("account_id", accountID).Warn("session revoke failed")
	}
}

// reindex keeps the directory in step for verified accounts only.
func (s *AccountService) reindex(ctx context.Context, a *entity.Account, p *entity.Profile) {
	if s.directory == nil || !a.IsOTPVerified {
		return
	}
	if err := s.directory.Index(ctx, a, p); err != nil {
		s.log.WithError(err).WithField("account_id", a.ID).Warn("directory index failed")
	}
}

func (s *AccountService) internal(msg string, err error, email string) error {
	s.log.WithError(err).WithField("email", email).Error(msg)
	return newErr(ErrInternal, "internal server error", err)
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setNonZero[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}
