package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/insuregenie/internal/model"
	appErr "github.com/xxxsen/insuregenie/internal/pkg/errors"
	"github.com/xxxsen/insuregenie/internal/retrieval"
	"github.com/xxxsen/insuregenie/internal/scoring"
)

const DefaultLocation = "London"

// Answerer produces a personalised reply for a question.
type Answerer interface {
	Answer(ctx context.Context, query string, c *retrieval.Context) (string, error)
}

type ChatRequest struct {
	UserID    string `json:"user_id"`
	AssetID   string `json:"asset_id,omitempty"`
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type ChatReply struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
	Timestamp int64  `json:"timestamp"`
}

type ChatService struct {
	answerer    Answerer
	assets      AssetStore
	assessments AssessmentStore
	quoter      Quoter
	now         func() time.Time
}

func NewChatService(answerer Answerer, assets AssetStore, assessments AssessmentStore, quoter Quoter) *ChatService {
	return &ChatService{
		answerer:    answerer,
		assets:      assets,
		assessments: assessments,
		quoter:      quoter,
		now:         time.Now,
	}
}

func (s *ChatService) Message(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, fmt.Errorf("%w: message is required", appErr.ErrInvalid)
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = newID()
	}
	c, err := s.buildContext(ctx, req.UserID, req.AssetID)
	if err != nil {
		return nil, err
	}
	response, err := s.answerer.Answer(ctx, msg, c)
	if err != nil {
		return nil, err
	}
	return &ChatReply{
		Response:  response,
		SessionID: sessionID,
		Timestamp: s.now().Unix(),
	}, nil
}

// buildContext picks the explicit asset, else the user's first asset. Each
// piece of live data that cannot be resolved is left out.
func (s *ChatService) buildContext(ctx context.Context, userID, assetID string) (*retrieval.Context, error) {
	asset, err := s.resolveAsset(ctx, userID, assetID)
	if err != nil || asset == nil {
		return nil, err
	}
	value := asset.CurrentValue
	location := strings.TrimSpace(asset.Location)
	if location == "" {
		location = DefaultLocation
	}
	c := &retrieval.Context{Value: &value, Location: &location}
	if info := asset.VehicleInfo(); info != "" {
		c.VehicleInfo = &info
	}
	if s.assessments == nil {
		return c, nil
	}
	latest, err := s.assessments.LatestByAsset(ctx, asset.ID)
	if err != nil {
		if !errors.Is(err, appErr.ErrNotFound) {
			logutil.GetLogger(ctx).Warn("load risk for chat context failed", zap.String("asset_id", asset.ID), zap.Error(err))
		}
		return c, nil
	}
	score := latest.RiskScore
	c.RiskScore = &score
	if s.quoter == nil {
		return c, nil
	}
	premium, err := s.quoter.Calculate(ctx, score, value*scoring.CoverageRatio, value)
	if err != nil {
		logutil.GetLogger(ctx).Warn("quote for chat context failed", zap.String("asset_id", asset.ID), zap.Error(err))
		return c, nil
	}
	c.Premium = &premium
	return c, nil
}

func (s *ChatService) resolveAsset(ctx context.Context, userID, assetID string) (*model.Asset, error) {
	if s.assets == nil {
		return nil, nil
	}
	if assetID != "" {
		asset, err := s.assets.GetByID(ctx, assetID)
		if err != nil {
			return nil, err
		}
		if userID != "" && asset.UserID != userID {
			return nil, appErr.ErrNotFound
		}
		return asset, nil
	}
	if userID == "" {
		return nil, nil
	}
	assets, err := s.assets.ListByUser(ctx, userID)
	if err != nil {
		logutil.GetLogger(ctx).Warn("list user assets for chat context failed", zap.String("user_id", userID), zap.Error(err))
		return nil, nil
	}
	if len(assets) == 0 {
		return nil, nil
	}
	return &assets[0], nil
}
