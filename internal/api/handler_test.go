package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/emicklei/go-restful/v3"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/api"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/api/middleware"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/api/mocks"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/executor"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"
)

func setupTestAPI(t *testing.T, checker api.Checker) *restful.Container {
	t.Helper()

	logger := zerolog.Nop()
	container := restful.NewContainer()
	container.Filter(middleware.RecoverPanic)
	api.RegisterRoutes(container, api.NewHandler(checker, "test", &logger))
	api.RegisterOpenAPI(container)
	return container
}

func TestAPI_Health(t *testing.T) {
	ctrl := gomock.NewController(t)
	container := setupTestAPI(t, mocks.NewMockChecker(ctrl))

	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", recorder.Code)
	}

	var response api.HealthResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response.Status != "ok" || response.Version != "test" {
		t.Errorf("unexpected health response %+v", response)
	}
}

func TestAPI_Check(t *testing.T) {
	ctrl := gomock.NewController(t)
	checker := mocks.NewMockChecker(ctrl)

	threshold := 4
	checker.EXPECT().
		Execute(gomock.Any(), models.CheckRequest{Names: []string{"Angry Puppies"}, Threshold: &threshold}).
		Return(models.CheckResponse{
			RequestID: "req-1",
			Threshold: models.SeverityMedium,
			Results: []models.CheckResult{
				{Name: "Angry Puppies", Verdict: models.VerdictAllowed, MaxSeverity: models.SeverityLow},
			},
			Summary: models.CheckSummary{Total: 1, Allowed: 1},
		}, nil)

	container := setupTestAPI(t, checker)

	body := []byte(`{"names":["Angry Puppies"],"threshold":4}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/check", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var response models.CheckResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response.RequestID != "req-1" || len(response.Results) != 1 {
		t.Fatalf("unexpected response %+v", response)
	}
	if response.Results[0].Verdict != models.VerdictAllowed {
		t.Errorf("expected ALLOWED, got %s", response.Results[0].Verdict)
	}
}

func TestAPI_CheckName(t *testing.T) {
	ctrl := gomock.NewController(t)
	checker := mocks.NewMockChecker(ctrl)

	threshold := 0
	checker.EXPECT().
		Execute(gomock.Any(), models.CheckRequest{
			Names:      []string{"I Hate You"},
			Categories: []string{"Hate", "Violence"},
			Threshold:  &threshold,
			Variants:   true,
		}).
		Return(models.CheckResponse{RequestID: "req-2"}, nil)

	container := setupTestAPI(t, checker)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/check/I%20Hate%20You?threshold=0&categories=Hate,Violence&variants=true", nil)
	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestAPI_Check_Errors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		execErr    error
		wantStatus int
	}{
		{"malformed body", http.MethodPost, "/api/v1/check", `{"names":`, nil, http.StatusBadRequest},
		{"invalid request", http.MethodPost, "/api/v1/check", `{"names":[]}`, fmt.Errorf("%w: at least one name is required", executor.ErrInvalidRequest), http.StatusBadRequest},
		{"executor failure", http.MethodPost, "/api/v1/check", `{"names":["Metal"]}`, fmt.Errorf("boom"), http.StatusInternalServerError},
		{"bad threshold param", http.MethodGet, "/api/v1/check/Metal?threshold=high", "", nil, http.StatusBadRequest},
		{"bad variants param", http.MethodGet, "/api/v1/check/Metal?variants=maybe", "", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			checker := mocks.NewMockChecker(ctrl)
			if tt.execErr != nil {
				checker.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(models.CheckResponse{}, tt.execErr)
			}

			container := setupTestAPI(t, checker)

			req := httptest.NewRequest(tt.method, tt.path, bytes.NewReader([]byte(tt.body)))
			req.Header.Set("Content-Type", "application/json")
			recorder := httptest.NewRecorder()
			container.ServeHTTP(recorder, req)

			if recorder.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, recorder.Code, recorder.Body.String())
			}

			var errResp middleware.ErrorResponse
			if err := json.Unmarshal(recorder.Body.Bytes(), &errResp); err != nil {
				t.Fatalf("Failed to parse error response: %v", err)
			}
			if errResp.Code != tt.wantStatus {
				t.Errorf("expected code %d in body, got %d", tt.wantStatus, errResp.Code)
			}
		})
	}
}

func TestAPI_OpenAPIDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	container := setupTestAPI(t, mocks.NewMockChecker(ctrl))

	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/apidocs.json", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", recorder.Code)
	}
	if !bytes.Contains(recorder.Body.Bytes(), []byte("/api/v1/check")) {
		t.Error("expected the check route in the API document")
	}
}
