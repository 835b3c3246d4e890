package server

import (
	"context"
	"embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"donkeymap/internal/auth"
	"donkeymap/internal/survey"
	"donkeymap/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

//go:embed templates static
var uiFS embed.FS
var decoder = form.NewDecoder()

// CognitoAPI is the part of the Cognito client the auth flows use.
type CognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	RespondToAuthChallenge(ctx context.Context, params *cognitoidentityprovider.RespondToAuthChallengeInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.RespondToAuthChallengeOutput, error)
	SignUp(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, params *cognitoidentityprovider.ConfirmSignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmSignUpOutput, error)
	ResendConfirmationCode(ctx context.Context, params *cognitoidentityprovider.ResendConfirmationCodeInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ResendConfirmationCodeOutput, error)
	ForgotPassword(ctx context.Context, params *cognitoidentityprovider.ForgotPasswordInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, params *cognitoidentityprovider.ConfirmForgotPasswordInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmForgotPasswordOutput, error)
	GetUser(ctx context.Context, params *cognitoidentityprovider.GetUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GetUserOutput, error)
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Identity, error)
}

type codeExchanger interface {
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

type UserStore interface {
	User(ctx context.Context, userID string) (*types.User, error)
	Users(ctx context.Context) ([]*types.User, error)
	Ensure(ctx context.Context, user *types.User) (bool, error)
	SetStatus(ctx context.Context, userID string, status types.UserStatus, approvedBy string) (*types.User, error)
	Stats(ctx context.Context, userID string) (*types.UserStats, error)
	TouchLastLogin(ctx context.Context, userID string) error
}

type SurveyStore interface {
	Create(ctx context.Context, survey *types.Survey) error
	Survey(ctx context.Context, surveyID string) (*types.Survey, error)
	Visible(ctx context.Context) ([]*types.Survey, error)
	ByCreator(ctx context.Context, userID string) ([]*types.Survey, error)
	Pending(ctx context.Context) ([]*types.PendingSurvey, error)
	Update(ctx context.Context, survey *types.Survey) (*types.Survey, error)
	SetStatus(ctx context.Context, surveyID string, status types.SurveyStatus, isPublic *bool, approvedBy string) (*types.Survey, error)
}

type ResponseStore interface {
	Submit(ctx context.Context, response *types.SurveyResponse, points int) error
	Located(ctx context.Context) ([]*types.LocatedResponse, error)
}

type RewardStore interface {
	Rewards(ctx context.Context) ([]*types.Reward, error)
}

type ClaimStore interface {
	Claim(ctx context.Context, userID, rewardID string) (*types.ClaimedReward, error)
	History(ctx context.Context, userID string) ([]*types.ClaimedRewardView, error)
	SetStatus(ctx context.Context, claimID string, status types.ClaimStatus) (*types.ClaimedReward, error)
}

// Repositories groups the data access the handlers need. ServiceUsers is
// backed by the privileged connection and stays nil when it is not configured.
type Repositories struct {
	Users        UserStore
	ServiceUsers UserStore
	Surveys      SurveyStore
	Responses    ResponseStore
	Rewards      RewardStore
	Claims       ClaimStore
}

type Service struct {
	logger    *logrus.Logger
	config    *types.Config
	templates *template.Template

	cognito  CognitoAPI
	verifier TokenVerifier
	oauth    codeExchanger
	cookie   *securecookie.SecureCookie

	users        UserStore
	serviceUsers UserStore
	surveys      SurveyStore
	responses    ResponseStore
	rewards      RewardStore
	claims       ClaimStore

	points survey.PointsPolicy
	now    func() time.Time

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	cognito CognitoAPI,
	verifier TokenVerifier,
	repos Repositories,
) (*Service, error) {
	mux := flow.New()

	hashKey, _ := base64.StdEncoding.DecodeString(config.CookieHashKey)
	blockKey, _ := base64.StdEncoding.DecodeString(config.CookieBlockKey)
	if len(hashKey) == 0 {
		logger.Warn("COOKIE_HASH_KEY not set, sessions will not survive a restart")
		hashKey = securecookie.GenerateRandomKey(64)
		blockKey = securecookie.GenerateRandomKey(32)
	}

	s := &Service{
		logger:   logger,
		config:   config,
		cognito:  cognito,
		verifier: verifier,
		cookie:   securecookie.New(hashKey, blockKey),

		users:        repos.Users,
		serviceUsers: repos.ServiceUsers,
		surveys:      repos.Surveys,
		responses:    repos.Responses,
		rewards:      repos.Rewards,
		claims:       repos.Claims,

		points: survey.PointsPolicy{
			Base:        config.PointsBase,
			PerQuestion: config.PointsPerQuestion,
			Max:         config.PointsMax,
		},
		now: time.Now,

		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	if config.CognitoDomain != "" && config.CognitoClientID != "" {
		s.oauth = oauthConfig(config)
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	s.templates = templates

	s.buildRouter(mux)

	return s, nil
}

func oauthConfig(config *types.Config) *oauth2.Config {
	domain := strings.TrimSuffix(config.CognitoDomain, "/")

	return &oauth2.Config{
		ClientID: config.CognitoClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:   domain + "/oauth2/authorize",
			TokenURL:  domain + "/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: strings.TrimSuffix(config.BaseURL, "/") + "/auth/callback",
		Scopes:      []string{"openid", "email", "profile"},
	}
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests and embedding.
func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)
	r.Use(s.LoadSession)
	r.Use(s.GuardPages)

	r.HandleFunc("/", s.handleHome, http.MethodGet)
	r.HandleFunc("/login", s.handleGetLogin, http.MethodGet)
	r.HandleFunc("/reset-password", s.handleGetResetPassword, http.MethodGet)
	r.HandleFunc("/map", s.handleGetMap, http.MethodGet)
	r.HandleFunc("/rewards", s.handleGetRewards, http.MethodGet)
	r.HandleFunc("/dashboard", s.handleGetDashboard, http.MethodGet)
	r.HandleFunc("/admin", s.handleGetAdmin, http.MethodGet)
	r.HandleFunc("/surveys/create", s.handleGetSurveyCreate, http.MethodGet)
	r.HandleFunc("/surveys/:id/edit", s.handleGetSurveyEdit, http.MethodGet)
	r.HandleFunc("/surveys/:id", s.handleGetSurvey, http.MethodGet)

	r.HandleFunc("/auth/callback", s.handleAuthCallback, http.MethodGet)

	// public data
	r.HandleFunc("/api/surveys", s.handleListSurveys, http.MethodGet)
	r.HandleFunc("/api/rewards", s.handleListRewards, http.MethodGet)
	r.HandleFunc("/api/map/points", s.handleMapPoints, http.MethodGet)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuthConfig)

		r.HandleFunc("/api/auth/login", s.handlePostLogin, http.MethodPost)
		r.HandleFunc("/api/auth/signup", s.handlePostSignup, http.MethodPost)
		r.HandleFunc("/api/auth/signup/confirm", s.handlePostSignupConfirm, http.MethodPost)
		r.HandleFunc("/api/auth/signup/resend", s.handlePostSignupResend, http.MethodPost)
		r.HandleFunc("/api/auth/otp", s.handlePostOTP, http.MethodPost)
		r.HandleFunc("/api/auth/otp/verify", s.handlePostOTPVerify, http.MethodPost)
		r.HandleFunc("/api/auth/password/forgot", s.handlePostForgotPassword, http.MethodPost)
		r.HandleFunc("/api/auth/password/reset", s.handlePostResetPassword, http.MethodPost)
		r.HandleFunc("/api/auth/logout", s.handlePostLogout, http.MethodPost)

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequireSession)

			r.HandleFunc("/api/surveys", s.handleCreateSurvey, http.MethodPost)
			r.HandleFunc("/api/surveys/mine", s.handleMySurveys, http.MethodGet)
			r.HandleFunc("/api/surveys/:id", s.handleSubmitResponse, http.MethodPost)
			r.HandleFunc("/api/surveys/:id", s.handleUpdateSurvey, http.MethodPatch)
			r.HandleFunc("/api/surveys/:id/questions/move", s.handleMoveQuestion, http.MethodPost)

			r.HandleFunc("/api/user/stats", s.handleUserStats, http.MethodGet)
			r.HandleFunc("/api/rewards/history", s.handleRewardHistory, http.MethodGet)
			r.HandleFunc("/api/rewards/:id/claim", s.handleClaimReward, http.MethodPost)

			r.Group(func(r *flow.Mux) {
				r.Use(s.RequireServiceConfig)

				r.HandleFunc("/api/users/ensure", s.handleEnsureUser, http.MethodPost)
				r.HandleFunc("/api/users/direct-create", s.handleDirectCreateUser, http.MethodPost)
			})

			r.Group(func(r *flow.Mux) {
				r.Use(s.RequireAdmin)

				r.HandleFunc("/api/admin/surveys", s.handleAdminListSurveys, http.MethodGet)
				r.HandleFunc("/api/admin/surveys", s.handleAdminModerateSurvey, http.MethodPatch)
				r.HandleFunc("/api/admin/users", s.handleAdminListUsers, http.MethodGet)
				r.HandleFunc("/api/admin/users", s.handleAdminModerateUser, http.MethodPatch)
				r.HandleFunc("/api/admin/claims", s.handleAdminModerateClaim, http.MethodPatch)
			})
		})
	})

	// declared after /api/surveys/mine; visibility depends on who is asking
	r.HandleFunc("/api/surveys/:id", s.handleGetSurveyAPI, http.MethodGet)

	staticRoot, err := fs.Sub(uiFS, "static")
	if err != nil {
		s.logger.WithError(err).Fatal("failed to mount static assets")
	}
	r.Handle("/static/...", http.StripPrefix("/static/", http.FileServer(http.FS(staticRoot))), http.MethodGet)
}

func loadTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"derefOr": func(s *string, defaultVal string) string {
			if s == nil {
				return defaultVal
			}
			return *s
		},
		"date": func(t time.Time) string {
			return t.Format("2 Jan 2006")
		},
		"json": func(v any) (string, error) {
			b, err := json.MarshalIndent(v, "", "  ")
			return string(b), err
		},
	}

	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(uiFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		data, err := fs.ReadFile(uiFS, path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", path, err)
		}

		if _, err := t.Parse(string(data)); err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}
