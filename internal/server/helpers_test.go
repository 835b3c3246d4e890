package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"donkeymap/internal/auth"
	"donkeymap/pkg/types"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/sirupsen/logrus"
)

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type fakeVerifier map[string]*auth.Identity

func (f fakeVerifier) Verify(_ context.Context, token string) (*auth.Identity, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return nil, auth.ErrInvalidToken
}

// fakeCognito panics on any call a test did not stub.
type fakeCognito struct {
	CognitoAPI

	initiateAuth   func(*cognitoidentityprovider.InitiateAuthInput) (*cognitoidentityprovider.InitiateAuthOutput, error)
	forgotPassword func(*cognitoidentityprovider.ForgotPasswordInput) (*cognitoidentityprovider.ForgotPasswordOutput, error)
	calls          int
}

func (f *fakeCognito) InitiateAuth(_ context.Context, in *cognitoidentityprovider.InitiateAuthInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error) {
	f.calls++
	return f.initiateAuth(in)
}

func (f *fakeCognito) ForgotPassword(_ context.Context, in *cognitoidentityprovider.ForgotPasswordInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ForgotPasswordOutput, error) {
	f.calls++
	return f.forgotPassword(in)
}

type fakeUsers struct {
	users    map[string]*types.User
	stats    *types.UserStats
	statsErr error
	ensured  []*types.User
}

func (f *fakeUsers) User(_ context.Context, userID string) (*types.User, error) {
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return nil, types.ErrUserNotFound
}

func (f *fakeUsers) Users(context.Context) ([]*types.User, error) {
	out := make([]*types.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUsers) Ensure(_ context.Context, user *types.User) (bool, error) {
	f.ensured = append(f.ensured, user)
	if _, ok := f.users[user.ID]; ok {
		return false, nil
	}
	if f.users == nil {
		f.users = map[string]*types.User{}
	}
	f.users[user.ID] = user
	return true, nil
}

func (f *fakeUsers) SetStatus(_ context.Context, userID string, status types.UserStatus, approvedBy string) (*types.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	u.Status = status
	u.ApprovedBy = &approvedBy
	return u, nil
}

func (f *fakeUsers) Stats(context.Context, string) (*types.UserStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	if f.stats == nil {
		return &types.UserStats{}, nil
	}
	return f.stats, nil
}

func (f *fakeUsers) TouchLastLogin(context.Context, string) error { return nil }

type fakeSurveys struct {
	surveys map[string]*types.Survey
	created []*types.Survey
	mineFor string
}

func (f *fakeSurveys) Create(_ context.Context, sv *types.Survey) error {
	sv.ID = "new-survey"
	sv.Status = types.SurveyStatusPending
	f.created = append(f.created, sv)
	return nil
}

func (f *fakeSurveys) Survey(_ context.Context, surveyID string) (*types.Survey, error) {
	if sv, ok := f.surveys[surveyID]; ok {
		return sv, nil
	}
	return nil, types.ErrSurveyNotFound
}

func (f *fakeSurveys) Visible(context.Context) ([]*types.Survey, error) {
	var out []*types.Survey
	for _, sv := range f.surveys {
		if sv.Visible() {
			out = append(out, sv)
		}
	}
	return out, nil
}

func (f *fakeSurveys) ByCreator(_ context.Context, userID string) ([]*types.Survey, error) {
	f.mineFor = userID
	return []*types.Survey{}, nil
}

func (f *fakeSurveys) Pending(context.Context) ([]*types.PendingSurvey, error) {
	return []*types.PendingSurvey{}, nil
}

func (f *fakeSurveys) Update(_ context.Context, sv *types.Survey) (*types.Survey, error) {
	sv.Status = types.SurveyStatusPending
	return sv, nil
}

func (f *fakeSurveys) SetStatus(_ context.Context, surveyID string, status types.SurveyStatus, _ *bool, approvedBy string) (*types.Survey, error) {
	sv, ok := f.surveys[surveyID]
	if !ok {
		return nil, types.ErrSurveyNotFound
	}
	sv.Status = status
	sv.ApprovedBy = &approvedBy
	return sv, nil
}

type fakeResponses struct {
	located   []*types.LocatedResponse
	submitted []*types.SurveyResponse
	points    int
}

func (f *fakeResponses) Submit(_ context.Context, resp *types.SurveyResponse, points int) error {
	resp.ID = "new-response"
	f.submitted = append(f.submitted, resp)
	f.points += points
	return nil
}

func (f *fakeResponses) Located(context.Context) ([]*types.LocatedResponse, error) {
	return f.located, nil
}

type fakeRewards struct {
	err error
}

func (f *fakeRewards) Rewards(context.Context) ([]*types.Reward, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*types.Reward{{ID: "r1", Name: "Mug", Points: 750}}, nil
}

type fakeClaims struct {
	err error
}

func (f *fakeClaims) Claim(_ context.Context, userID, rewardID string) (*types.ClaimedReward, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.ClaimedReward{ID: "c1", UserID: userID, RewardID: rewardID, Status: types.ClaimStatusProcessing}, nil
}

func (f *fakeClaims) History(context.Context, string) ([]*types.ClaimedRewardView, error) {
	return []*types.ClaimedRewardView{}, nil
}

func (f *fakeClaims) SetStatus(context.Context, string, types.ClaimStatus) (*types.ClaimedReward, error) {
	return nil, errors.New("not stubbed")
}

type testEnv struct {
	svc       *Service
	cognito   *fakeCognito
	users     *fakeUsers
	service   *fakeUsers
	surveys   *fakeSurveys
	responses *fakeResponses
	rewards   *fakeRewards
	claims    *fakeClaims
}

const (
	collectorToken = "collector-token"
	adminToken     = "admin-token"
)

func testConfig() *types.Config {
	return &types.Config{
		ServerPort:        8080,
		BaseURL:           "http://localhost:8080",
		CognitoClientID:   "client",
		CognitoIssuerURL:  "https://issuer.example",
		CookieHashKey:     base64.StdEncoding.EncodeToString([]byte(strings.Repeat("h", 32))),
		CookieBlockKey:    base64.StdEncoding.EncodeToString([]byte(strings.Repeat("b", 32))),
		OTPCooldownSec:    60,
		PointsBase:        50,
		PointsPerQuestion: 5,
		PointsMax:         100,
	}
}

func newTestEnv(t *testing.T, mutate ...func(*types.Config)) *testEnv {
	t.Helper()

	config := testConfig()
	for _, m := range mutate {
		m(config)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	env := &testEnv{
		cognito: &fakeCognito{},
		users: &fakeUsers{users: map[string]*types.User{
			"collector": {ID: "collector", Name: "Collector", Role: types.UserRoleDataCollector, Status: types.UserStatusApproved},
			"admin":     {ID: "admin", Name: "Admin", Role: types.UserRoleAdmin, Status: types.UserStatusApproved},
		}},
		service:   &fakeUsers{},
		surveys:   &fakeSurveys{surveys: map[string]*types.Survey{}},
		responses: &fakeResponses{},
		rewards:   &fakeRewards{},
		claims:    &fakeClaims{},
	}

	verifier := fakeVerifier{
		collectorToken: {UserID: "collector", Email: "collector@example.com", Name: "Collector"},
		adminToken:     {UserID: "admin", Email: "admin@example.com", Name: "Admin"},
	}

	svc, err := New(config, logger, env.cognito, verifier, Repositories{
		Users:        env.users,
		ServiceUsers: env.service,
		Surveys:      env.surveys,
		Responses:    env.responses,
		Rewards:      env.rewards,
		Claims:       env.claims,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	svc.now = func() time.Time { return testNow }

	env.svc = svc
	return env
}

// do sends a request through the full router. A non-empty token is sent as
// the session cookie.
func (e *testEnv) do(t *testing.T, method, target, token string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			b, err := json.Marshal(body)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			raw = string(b)
		}
		reader = strings.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		encoded, err := e.svc.cookie.Encode(cookieSessionName, token)
		if err != nil {
			t.Fatalf("encode session cookie: %v", err)
		}
		req.AddCookie(&http.Cookie{Name: cookieSessionName, Value: encoded})
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	e.svc.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
