package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/insuregenie/internal/handler"
	"github.com/xxxsen/insuregenie/internal/model"
	"github.com/xxxsen/insuregenie/internal/pkg/errcode"
	appErr "github.com/xxxsen/insuregenie/internal/pkg/errors"
	"github.com/xxxsen/insuregenie/internal/service"
)

type fakeRisk struct {
	err error
}

func (f *fakeRisk) Assess(ctx context.Context, assetID string) (*model.AssessmentResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.AssessmentResult{AssetID: assetID, RiskScore: 55, PremiumEstimate: 12.5, CoverageRecommendation: "standard"}, nil
}

func (f *fakeRisk) History(ctx context.Context, assetID string) ([]service.HistoryItem, error) {
	return []service.HistoryItem{{RiskAssessment: model.RiskAssessment{ID: "r-2", AssetID: assetID}}}, f.err
}

func (f *fakeRisk) AssetWithRisk(ctx context.Context, assetID string) (*service.EnrichedAsset, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.EnrichedAsset{Asset: &model.Asset{ID: assetID}, RiskError: "not assessed"}, nil
}

type fakeChat struct {
	last service.ChatRequest
	err  error
}

func (f *fakeChat) Message(ctx context.Context, req service.ChatRequest) (*service.ChatReply, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &service.ChatReply{Response: "hello " + req.UserID, SessionID: "s-1", Timestamp: 1}, nil
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func setupRouter(risk *fakeRisk, chat *fakeChat) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler.RegisterRoutes(r.Group("/api/v1"), handler.RouterDeps{
		Risk: handler.NewRiskHandler(risk),
		Chat: handler.NewChatHandler(chat),
	})
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "u-1")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	return resp, env
}

func TestAssessRoute(t *testing.T) {
	r := setupRouter(&fakeRisk{}, &fakeChat{})
	resp, env := do(t, r, http.MethodPost, "/api/v1/risk/assess", `{"asset_id":"a-1"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	var res model.AssessmentResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Equal(t, "a-1", res.AssetID)
	require.Equal(t, "standard", res.CoverageRecommendation)

	resp, env = do(t, r, http.MethodPost, "/api/v1/risk/assess", `{}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Equal(t, errcode.ErrInvalid, env.Code)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   int
	}{
		{appErr.ErrNotFound, http.StatusNotFound, errcode.ErrNotFound},
		{fmt.Errorf("score: %w", appErr.ErrModelNotFound), http.StatusServiceUnavailable, errcode.ErrModelUnavailable},
		{appErr.ErrIndexNotFound, http.StatusServiceUnavailable, errcode.ErrModelUnavailable},
		{fmt.Errorf("%w: bad", appErr.ErrInvalid), http.StatusBadRequest, errcode.ErrInvalid},
		{fmt.Errorf("boom"), http.StatusInternalServerError, errcode.ErrInternal},
	}
	for _, tc := range cases {
		r := setupRouter(&fakeRisk{err: tc.err}, &fakeChat{})
		resp, env := do(t, r, http.MethodPost, "/api/v1/risk/assess", `{"asset_id":"a-1"}`)
		require.Equal(t, tc.status, resp.Code, tc.err.Error())
		require.Equal(t, tc.code, env.Code)
	}
}

func TestHistoryAndAssetRoutes(t *testing.T) {
	r := setupRouter(&fakeRisk{}, &fakeChat{})
	resp, env := do(t, r, http.MethodGet, "/api/v1/risk/history/a-9", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var items []service.HistoryItem
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	require.Equal(t, "a-9", items[0].AssetID)

	resp, env = do(t, r, http.MethodGet, "/api/v1/assets/a-9", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var enriched service.EnrichedAsset
	require.NoError(t, json.Unmarshal(env.Data, &enriched))
	require.Equal(t, "a-9", enriched.Asset.ID)
	require.Equal(t, "not assessed", enriched.RiskError)
}

func TestChatRoute(t *testing.T) {
	chat := &fakeChat{}
	r := setupRouter(&fakeRisk{}, chat)
	resp, env := do(t, r, http.MethodPost, "/api/v1/chat/message", `{"message":"hi","asset_id":"a-1"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	var reply service.ChatReply
	require.NoError(t, json.Unmarshal(env.Data, &reply))
	require.Equal(t, "hello u-1", reply.Response)
	require.Equal(t, "a-1", chat.last.AssetID)

	chat.err = appErr.ErrIndexNotFound
	resp, env = do(t, r, http.MethodPost, "/api/v1/chat/message", `{"message":"hi"}`)
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	require.Equal(t, errcode.ErrModelUnavailable, env.Code)
}
