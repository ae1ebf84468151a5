package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/alumni-backend/internal/application"
	"github.com/oksasatya/alumni-backend/internal/domain/entity"
	"github.com/oksasatya/alumni-backend/internal/interface/middleware"
	"github.com/oksasatya/alumni-backend/pkg/helpers"
	"github.com/oksasatya/alumni-backend/pkg/response"
	"github.com/oksasatya/alumni-backend/pkg/validation"
)

const defaultSearchSize = 20

type AccountHandler struct {
	Svc     *application.AccountService
	Logger  logrus.FieldLogger
	Cookies *helpers.Manager
}

func NewAccountHandler(svc *application.AccountService, logger logrus.FieldLogger, cookieDomain string, cookieSecure bool) *AccountHandler {
	return &AccountHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

type changePasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	NewPassword string `json:"newpassword" binding:"required"`
}

// profileResponse is the public view of a profile; the password hash never
// leaves the service.
type profileResponse struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	Email          string        `json:"email"`
	Name           string        `json:"name"`
	Gender         entity.Gender `json:"gender,omitempty"`
	RollNumber     string        `json:"rollno,omitempty"`
	PhoneNumber    string        `json:"phonenumber,omitempty"`
	Designation    string        `json:"designation,omitempty"`
	GraduationYear int           `json:"gradyear,omitempty"`
	Address        string        `json:"addr,omitempty"`
	Course         entity.Course `json:"course,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func toProfileResponse(p *entity.Profile) profileResponse {
	return profileResponse{
		ID:             p.ID,
		UserID:         p.UserID,
		Email:          p.Email,
		Name:           p.Name,
		Gender:         p.Gender,
		RollNumber:     p.RollNumber,
		PhoneNumber:    p.PhoneNumber,
		Designation:    p.Designation,
		GraduationYear: p.GraduationYear,
		Address:        p.Address,
		Course:         p.Course,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Signup POST /api/auth/signup
func (h *AccountHandler) Signup(c *gin.Context) {
	var req application.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.Signup(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"profile": toProfileResponse(res.Profile)}, res.Message, nil)
}

// Signin POST /api/auth/signin
func (h *AccountHandler) Signin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	tok, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Cookies.SetAccess(c, tok.AccessToken, tok.ExpiresAt)
	response.Success(c, http.StatusOK, tokenResponse{AccessToken: tok.AccessToken, ExpiresAt: tok.ExpiresAt}, "Signin successful", nil)
}

// VerifyOTP PUT /api/auth/verifyotp
func (h *AccountHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	tok, err := h.Svc.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Cookies.SetAccess(c, tok.AccessToken, tok.ExpiresAt)
	response.Success(c, http.StatusOK, tokenResponse{AccessToken: tok.AccessToken, ExpiresAt: tok.ExpiresAt}, "OTP verified", nil)
}

// ForgotPassword PUT /api/auth/forgotPassword
func (h *AccountHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, nil, res.Message, nil)
}

// ChangePassword PUT /api/auth/changePassword
func (h *AccountHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.ChangePassword(c.Request.Context(), req.Email, req.NewPassword)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, res.Message, nil)
}

// Me GET /api/auth/me
func (h *AccountHandler) Me(c *gin.Context) {
	account, profile, err := h.Svc.CurrentUser(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), c.GetString(middleware.CtxUserEmailKey))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"user": gin.H{
			"sub":    account.ID,
			"email":  profile.Email,
			"name":   profile.Name,
			"rollno": profile.RollNumber,
			"role":   account.Role,
		},
		"is_profile_complete": account.IsCompleted,
		"profile":             toProfileResponse(profile),
	}, "current user", nil)
}

// UpdateProfile PUT /api/auth/updateProfile
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	var req application.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	p, err := h.Svc.UpdateProfile(c.Request.Context(), c.GetString(middleware.CtxUserEmailKey), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updatedProfile": toProfileResponse(p)}, "profile updated", nil)
}

// DeleteProfile DELETE /api/auth/deleteProfile
func (h *AccountHandler) DeleteProfile(c *gin.Context) {
	res, err := h.Svc.DeleteAccount(c.Request.Context(), c.GetString(middleware.CtxUserEmailKey))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, nil, res.Message, nil)
}

// CompleteProfile PUT /api/profile/complete
func (h *AccountHandler) CompleteProfile(c *gin.Context) {
	var req application.CompletionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.CompleteProfile(c.Request.Context(), c.GetString(middleware.CtxUserEmailKey), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"isProfileComplete": res.IsProfileComplete}, res.Message, nil)
}

// Search GET /api/alumni/search?q=&size=
func (h *AccountHandler) Search(c *gin.Context) {
	size := defaultSearchSize
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 50 {
			response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"size": "must be between 1 and 50"})
			return
		}
		size = n
	}
	hits, err := h.Svc.SearchAlumni(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)})
}

// fail writes the error envelope for a service error. Internal causes are
// logged, never echoed.
func (h *AccountHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	var details any
	var e *application.Error
	if errors.As(err, &e) && len(e.Details) > 0 {
		details = e.Details
	}
	if status >= http.StatusInternalServerError && h.Logger != nil {
		h.Logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString(response.RequestIDKey),
			"path":       c.FullPath(),
		}).Error("request failed")
	}
	response.Error[any](c, status, application.MessageOf(err), details)
}

func statusFor(err error) int {
	switch application.KindOf(err) {
	case application.ErrValidation, application.ErrConflict:
		return http.StatusBadRequest
	case application.ErrNotFound:
		return http.StatusNotFound
	case application.ErrAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
