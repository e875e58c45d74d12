// Package auth owns the bearer token and current user profile. The
// session gates the other managers' guest/authenticated mode.
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/amorlias/storefront/internal/api"
	"github.com/amorlias/storefront/internal/constants"
	inErrors "github.com/amorlias/storefront/internal/errors"
	"github.com/amorlias/storefront/internal/localstore"
	"github.com/amorlias/storefront/internal/log"
	"github.com/amorlias/storefront/internal/otel"
)

type Address struct {
	Name    string `json:"name"    validate:"required"`
	Phone   string `json:"phone"   validate:"required"`
	Line1   string `json:"line1"   validate:"required"`
	Line2   string `json:"line2"`
	City    string `json:"city"    validate:"required"`
	State   string `json:"state"   validate:"required"`
	Pincode string `json:"pincode" validate:"required,len=6,numeric"`
}

type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Role        string    `json:"role"`
	IsWholesale bool      `json:"is_wholesale"`
	Addresses   []Address `json:"addresses"`
}

const RoleAdmin = "admin"

// Session is not safe for concurrent use; all mutation happens on the
// command loop, mirroring the single-threaded UI it replaces.
type Session struct {
	api   *api.Client
	store *localstore.Store
	token string
	user  *User
}

func NewSession(store *localstore.Store, apiClient *api.Client) *Session {
	return &Session{store: store, api: apiClient}
}

func (s *Session) Token() string {
	return s.token
}

func (s *Session) IsAuthenticated() bool {
	return s.token != "" && s.user != nil
}

func (s *Session) User() *User {
	return s.user
}

func (s *Session) IsAdmin() bool {
	return s.user != nil && s.user.Role == RoleAdmin
}

func (s *Session) IsWholesale() bool {
	return s.user != nil && s.user.IsWholesale
}

// UserID returns the identifier keying per-user client storage. Falls
// back to the token's subject claim when the profile has not been
// fetched yet, and to "" for a guest.
func (s *Session) UserID() string {
	if s.user != nil {
		return s.user.ID
	}
	if s.token != "" {
		return subjectFromToken(s.token)
	}
	return ""
}

// subjectFromToken reads the unverified subject claim. The client never
// verifies tokens; the backend does. This is only a storage-key hint.
func subjectFromToken(token string) string {
	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return ""
	}
	return claims.Subject
}

// Restore rehydrates the persisted token and fetches the current user.
// A failing profile fetch tears the session down; that fetch failure is
// the sole automatic logout trigger.
func (s *Session) Restore(c context.Context) error {
	c, span := otel.Tracer.Start(c, "Session Restore")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Session Restore").
		Logger()

	token := ""
	found, err := s.store.Get(constants.StorageKeyAuthToken, &token)
	if err != nil {
		err = fmt.Errorf("failed reading persisted token with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if !found || token == "" {
		logger.Info().Msg("no persisted token, continuing as guest")
		return nil
	}
	s.token = token

	logger = logger.With().Str(log.KeyProcess, "fetching current user").Logger()
	logger.Info().Msg("fetching current user")
	user, err := s.FetchProfile(c)
	if err != nil {
		err = fmt.Errorf("failed fetching current user with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return fmt.Errorf("%w: %w", inErrors.ErrSessionInvalid, err)
	}
	logger = logger.With().Str(log.KeyUserID, user.ID).Logger()
	logger.Info().Msg("fetched current user")
	return nil
}

// FetchProfile refreshes the user record from the backend. The profile
// is never treated as authoritative from persistence, only from here.
// Any failure tears the session down.
func (s *Session) FetchProfile(c context.Context) (User, error) {
	c, span := otel.Tracer.Start(c, "Session FetchProfile")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Session FetchProfile").
		Logger()

	user := User{}
	if err := s.api.Get(c, "/auth/me", &user); err != nil {
		err = fmt.Errorf("failed fetching profile with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		s.Logout(c)
		return User{}, err
	}
	s.user = &user
	return user, nil
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,min=2"`
	Email    string `json:"email"    validate:"required,email"`
	Phone    string `json:"phone"    validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (s *Session) Login(c context.Context, param LoginRequest) (AuthResponse, error) {
	c, span := otel.Tracer.Start(c, "Session Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Session Login").
		Str("email", param.Email).
		Logger()

	logger.Info().Msg("logging in")
	resp := AuthResponse{}
	if err := s.api.Post(c, "/auth/login", param, &resp); err != nil {
		err = fmt.Errorf("failed logging in with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return AuthResponse{}, err
	}
	if err := s.establish(c, resp); err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return AuthResponse{}, err
	}
	logger.Info().Str(log.KeyUserID, resp.User.ID).Msg("logged in")
	return resp, nil
}

func (s *Session) Register(c context.Context, param RegisterRequest) (AuthResponse, error) {
	c, span := otel.Tracer.Start(c, "Session Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Session Register").
		Str("email", param.Email).
		Logger()

	logger.Info().Msg("registering")
	resp := AuthResponse{}
	if err := s.api.Post(c, "/auth/register", param, &resp); err != nil {
		err = fmt.Errorf("failed registering with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return AuthResponse{}, err
	}
	if err := s.establish(c, resp); err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return AuthResponse{}, err
	}
	logger.Info().Str(log.KeyUserID, resp.User.ID).Msg("registered")
	return resp, nil
}

func (s *Session) SendOtp(c context.Context, phone string) error {
	c, span := otel.Tracer.Start(c, "Session SendOtp")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Session SendOtp").
		Logger()

	logger.Info().Msg("sending otp")
	body := map[string]string{"phone": phone}
	if err := s.api.Post(c, "/auth/otp/send", body, nil); err != nil {
		err = fmt.Errorf("failed sending otp with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("sent otp")
	return nil
}

func (s *Session) VerifyOtp(c context.Context, phone, code string) (AuthResponse, error) {
	c, span := otel.Tracer.Start(c, "Session VerifyOtp")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Session VerifyOtp").
		Logger()

	logger.Info().Msg("verifying otp")
	body := map[string]string{"phone": phone, "otp": code}
	resp := AuthResponse{}
	if err := s.api.Post(c, "/auth/otp/verify", body, &resp); err != nil {
		err = fmt.Errorf("failed verifying otp with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return AuthResponse{}, err
	}
	if err := s.establish(c, resp); err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return AuthResponse{}, err
	}
	logger.Info().Str(log.KeyUserID, resp.User.ID).Msg("verified otp")
	return resp, nil
}

type UpdateProfileRequest struct {
	Name      string    `json:"name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Addresses []Address `json:"addresses,omitempty"`
}

func (s *Session) UpdateProfile(c context.Context, param UpdateProfileRequest) (User, error) {
	c, span := otel.Tracer.Start(c, "Session UpdateProfile")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Session UpdateProfile").
		Logger()

	if !s.IsAuthenticated() {
		logger.Error().
			Err(inErrors.ErrNotAuthenticated).
			Msg(inErrors.ErrNotAuthenticated.Error())
		return User{}, inErrors.ErrNotAuthenticated
	}

	logger.Info().Msg("updating profile")
	user := User{}
	if err := s.api.Put(c, "/auth/profile", param, &user); err != nil {
		err = fmt.Errorf("failed updating profile with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return User{}, err
	}
	s.user = &user
	logger.Info().Msg("updated profile")
	return user, nil
}

func (s *Session) establish(c context.Context, resp AuthResponse) error {
	s.token = resp.Token
	user := resp.User
	s.user = &user
	if err := s.store.Set(constants.StorageKeyAuthToken, resp.Token); err != nil {
		return fmt.Errorf("failed persisting token with error=%w", err)
	}
	return nil
}

// Logout is a pure local teardown; no server call is made.
func (s *Session) Logout(c context.Context) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Session Logout").
		Logger()

	s.token = ""
	s.user = nil
	if err := s.store.Delete(constants.StorageKeyAuthToken); err != nil {
		err = fmt.Errorf("failed deleting persisted token with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("session torn down")
}
