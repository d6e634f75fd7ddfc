package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fabriq/internal/dto"
	"fabriq/internal/middleware"
	"fabriq/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBOMService struct {
	createResp *dto.BOMMutationResponse
	updateResp *dto.BOMMutationResponse
}

var _ service.BOMService = (*stubBOMService)(nil)

func (s *stubBOMService) Create(ctx context.Context, actor service.Actor, req dto.CreateBOMRequest) (*dto.BOMMutationResponse, error) {
	return s.createResp, nil
}

func (s *stubBOMService) Update(ctx context.Context, actor service.Actor, id uuid.UUID, req dto.UpdateBOMRequest) (*dto.BOMMutationResponse, error) {
	return s.updateResp, nil
}

func (s *stubBOMService) Remove(ctx context.Context, id uuid.UUID) (*dto.BOMResponse, error) {
	return nil, nil
}

func (s *stubBOMService) Details(ctx context.Context, id uuid.UUID) (*dto.BOMResponse, error) {
	return nil, nil
}

func (s *stubBOMService) ListApproved(ctx context.Context, filter dto.BOMFilter) (*dto.BOMListResponse, error) {
	return nil, nil
}

func (s *stubBOMService) ListUnapproved(ctx context.Context) ([]dto.BOMResponse, error) {
	return nil, nil
}

func (s *stubBOMService) ListByFinishedGood(ctx context.Context, productID uuid.UUID) ([]dto.BOMResponse, error) {
	return nil, nil
}

func (s *stubBOMService) AutoClone(ctx context.Context, actor service.Actor, q dto.AutoBOMQuery) (*dto.BOMMutationResponse, error) {
	return nil, nil
}

func (s *stubBOMService) WeeklyGrouping(ctx context.Context) (map[string][]dto.WeeklyBOMEntry, error) {
	return nil, nil
}

func (s *stubBOMService) ListShortages(ctx context.Context, page, limit int) (*dto.ShortageListResponse, error) {
	return nil, nil
}

func (s *stubBOMService) ListUnapprovedRawMaterials(ctx context.Context, forInventory bool) ([]dto.UnapprovedRawMaterialResponse, error) {
	return nil, nil
}

func (s *stubBOMService) ApproveRawMaterialByAdmin(ctx context.Context, lineID uuid.UUID) error {
	return nil
}

func (s *stubBOMService) ApproveRawMaterialByInventory(ctx context.Context, lineID uuid.UUID) error {
	return nil
}

func newBOMTestRouter(svc service.BOMService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ClaimsKey, &middleware.JWTClaims{
			UserID:   uuid.NewString(),
			Username: "admin",
			Role:     "admin",
		})
		c.Next()
	})
	h := NewBOMHandler(svc)
	r.POST("/bom", h.Create)
	r.PUT("/bom/:id", h.Update)
	return r
}

func bomRequestBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	req := dto.CreateBOMRequest{
		BOMName: "Widget Mk2",
		RawMaterials: []dto.BOMLineRequest{
			{Item: uuid.NewString(), Quantity: decimal.NewFromInt(4)},
		},
		FinishedGood: dto.FinishedGoodRequest{
			Item:     uuid.NewString(),
			Quantity: decimal.NewFromInt(1),
		},
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

// A shortage is advisory: the BOM was persisted, so create still answers 201
// and the warning rides in the response body.
func TestCreateBOM_ShortageStillCreated(t *testing.T) {
	svc := &stubBOMService{
		createResp: &dto.BOMMutationResponse{
			Message:  "BOM has been created successfully. Insufficient stock of Steel Rod",
			Shortage: true,
		},
	}
	r := newBOMTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bom", bomRequestBody(t))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp dto.BOMMutationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Shortage)
	assert.Contains(t, resp.Message, "Insufficient stock of")
}

func TestUpdateBOM_ShortageStillUpdated(t *testing.T) {
	svc := &stubBOMService{
		updateResp: &dto.BOMMutationResponse{
			Message:  "BOM has been updated successfully. Insufficient stock of Steel Rod",
			Shortage: true,
		},
	}
	r := newBOMTestRouter(svc)

	w := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"bom_name":"Widget Mk2"}`)
	req := httptest.NewRequest(http.MethodPut, "/bom/"+uuid.NewString(), body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.BOMMutationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Shortage)
	assert.Contains(t, resp.Message, "Insufficient stock of")
}
