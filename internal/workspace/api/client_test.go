package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tvumtech/lumen/internal/workspace/api"
	"github.com/tvumtech/lumen/internal/workspace/entity"
	"github.com/tvumtech/lumen/internal/workspace/testutil"
)

func TestListDecodesBareArray(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.JSON(http.MethodGet, "/masters/drivers/", http.StatusOK, []gin.H{
		{"id": 1, "driver_code": "DRV-100", "base_price": 450.0},
		{"id": 2, "driver_code": "DRV-200", "base_price": 600.0},
	})

	client := backend.Client()
	drivers, err := client.ListDrivers(context.Background())
	if err != nil {
		t.Fatalf("ListDrivers: %v", err)
	}
	if len(drivers) != 2 {
		t.Fatalf("expected 2 drivers, got %d", len(drivers))
	}
	if drivers[0].DriverCode != "DRV-100" {
		t.Errorf("unexpected driver code %q", drivers[0].DriverCode)
	}
}

func TestListDecodesPaginatedEnvelope(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.JSON(http.MethodGet, "/masters/drivers/", http.StatusOK, gin.H{
		"count": 1,
		"results": []gin.H{
			{"id": 7, "driver_code": "DRV-700", "base_price": 900.0},
		},
	})

	client := backend.Client()
	drivers, err := client.ListDrivers(context.Background())
	if err != nil {
		t.Fatalf("ListDrivers: %v", err)
	}
	if len(drivers) != 1 || drivers[0].ID != 7 {
		t.Fatalf("unexpected drivers: %+v", drivers)
	}
}

func TestUnauthorizedInvalidatesTokenSource(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Unauthorized(http.MethodGet, "/projects/")

	tokens := &recordingTokens{token: testutil.DefaultTestToken()}
	client := backend.ClientWithTokens(tokens)

	_, err := client.ListProjects(context.Background())
	if !errors.Is(err, api.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if !tokens.invalidated {
		t.Error("token source was not invalidated on 401")
	}
}

func TestFieldErrorsAreParsed(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.JSON(http.MethodPost, "/areas/", http.StatusBadRequest, gin.H{
		"name": []string{"This field is required."},
	})

	client := backend.Client()
	_, err := client.CreateArea(context.Background(), entity.Area{Project: 1})
	apiErr, ok := api.AsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", apiErr.StatusCode)
	}
	msgs := apiErr.Fields["name"]
	if len(msgs) != 1 || msgs[0] != "This field is required." {
		t.Errorf("unexpected field errors: %+v", apiErr.Fields)
	}
}

func TestDetailErrorIsParsed(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.JSON(http.MethodGet, "/projects/9/", http.StatusNotFound, gin.H{
		"detail": "Not found.",
	})

	client := backend.Client()
	_, err := client.GetProject(context.Background(), 9)
	if !api.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	apiErr, _ := api.AsAPIError(err)
	if apiErr.Detail != "Not found." {
		t.Errorf("detail = %q", apiErr.Detail)
	}
}

func TestServerErrorClassification(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.JSON(http.MethodGet, "/projects/", http.StatusInternalServerError, gin.H{
		"detail": "internal error",
	})

	client := backend.Client()
	_, err := client.ListProjects(context.Background())
	if !api.IsServerError(err) {
		t.Fatalf("expected server error, got %v", err)
	}
	if api.IsForbidden(err) || api.IsNotFound(err) {
		t.Error("5xx misclassified as 403/404")
	}
}

func TestRequestCarriesAuthAndRequestID(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Handle(http.MethodGet, "/projects/", func(c *gin.Context) {
		if got := c.GetHeader("Authorization"); got == "" {
			t.Error("missing Authorization header")
		}
		if c.GetHeader("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}
		c.JSON(http.StatusOK, []gin.H{})
	})

	client := backend.Client()
	if _, err := client.ListProjects(context.Background()); err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
}

type recordingTokens struct {
	token       string
	invalidated bool
}

func (r *recordingTokens) Token() string { return r.token }
func (r *recordingTokens) Invalidate()   { r.invalidated = true }
