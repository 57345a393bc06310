package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vinobytes/somm-backend/internal/domain"
	"github.com/vinobytes/somm-backend/internal/services"
	"github.com/vinobytes/somm-backend/internal/somm"
)

func TestSynthesizeProfile_BadID_NotFound_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)
	scanID := uuid.NewString()

	// Non-UUID id -> 400
	{
		h := newTestHandlers(nil, nil, nil, nil)
		r := gin.New()
		r.POST("/scans/:id/profile", h.SynthesizeProfile)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scans/nope/profile", nil))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("bad id -> %d", w.Code)
		}
	}

	// Scan not found -> 404
	{
		svc := stubProfileSvc{
			synthesize: func(ctx context.Context, u, id string) (*domain.AITastingProfile, error) {
				return nil, services.ErrScanNotFound
			},
		}
		h := newTestHandlers(nil, svc, nil, nil)
		r := gin.New()
		r.POST("/scans/:id/profile", h.SynthesizeProfile)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scans/"+scanID+"/profile", nil))
		if w.Code != http.StatusNotFound {
			t.Fatalf("missing -> %d", w.Code)
		}
	}

	// Success -> 200 with the profile
	{
		svc := stubProfileSvc{
			synthesize: func(ctx context.Context, u, id string) (*domain.AITastingProfile, error) {
				return &domain.AITastingProfile{
					Acidity:   domain.IntensityMediumPlus,
					Alcohol:   domain.IntensityMedium,
					Tannin:    domain.IntensityHigh,
					Body:      domain.BodyFull,
					Sweetness: domain.SweetnessDry,
					Aromas:    []string{"Blackberry", "Violet", "Tobacco", "Earth"},
					Flavors:   []string{"Black Cherry", "Coffee", "Oak", "Plum"},
					Tips:      []string{"Note the grip"},
					HasTannin: true,
				}, nil
			},
		}
		h := newTestHandlers(nil, svc, nil, nil)
		r := gin.New()
		r.POST("/scans/:id/profile", h.SynthesizeProfile)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scans/"+scanID+"/profile", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("synthesize -> %d body=%s", w.Code, w.Body.String())
		}
		var out domain.AITastingProfile
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if out.Acidity != domain.IntensityMediumPlus || !out.HasTannin || len(out.Aromas) != 4 {
			t.Fatalf("profile: %#v", out)
		}
	}
}

func TestSynthesizeProfile_UpstreamMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	scanID := uuid.NewString()

	cases := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"proxy unreachable", somm.ErrUnavailable, http.StatusServiceUnavailable, ErrCodeUpstreamDown},
		{"proxy rejected", &somm.StatusError{StatusCode: 429, Body: "slow down"}, http.StatusBadGateway, ErrCodeSynthesisFailed},
		{"bad payload", somm.ErrPayload, http.StatusBadGateway, ErrCodeSynthesisFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := stubProfileSvc{
				synthesize: func(ctx context.Context, u, id string) (*domain.AITastingProfile, error) {
					return nil, tc.err
				},
			}
			h := newTestHandlers(nil, svc, nil, nil)
			r := gin.New()
			r.POST("/scans/:id/profile", h.SynthesizeProfile)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scans/"+scanID+"/profile", nil))
			if w.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantCode)
			}
			var er ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
				t.Fatalf("json: %v", err)
			}
			if er.Code != tc.wantErr {
				t.Fatalf("code = %q, want %q", er.Code, tc.wantErr)
			}
		})
	}
}
