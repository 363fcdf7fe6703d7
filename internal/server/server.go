package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"statusdeck/internal/domain"
	"statusdeck/internal/kb"
	"statusdeck/internal/normalize"
	"statusdeck/internal/status"
	"statusdeck/internal/store"
)

// Config for the HTTP API handler.
type Config struct {
	Store    *store.SQLite
	Catalog  kb.Catalog
	BasePath string
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"invalid_payload"`
	Message string         `json:"message" example:"parse payload: invalid JSON object"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the statusdeck API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}

	router := chi.NewRouter()
	hcfg := huma.DefaultConfig("Statusdeck API", "0.1.0")
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerReports(group, cfg.Catalog)
	registerCodes(group, cfg.Catalog)
	registerSnapshot(group, cfg.Store, cfg.Catalog)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var pe *normalize.ParseError
	if errors.As(err, &pe) {
		return newAPIError(http.StatusBadRequest, "invalid_payload", err.Error(), nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

type reportsResponse struct {
	Body struct {
		Items []domain.Report `json:"items"`
	}
}

func newReportsResponse(catalog kb.Catalog, apps []domain.Application) *reportsResponse {
	resp := &reportsResponse{}
	resp.Body.Items = status.BuildReports(catalog, apps)
	return resp
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerReports(api huma.API, catalog kb.Catalog) {
	huma.Register(api, huma.Operation{
		OperationID: "build-reports",
		Method:      http.MethodPost,
		Path:        "/reports",
		Summary:     "Normalize and classify a status payload",
		Description: "Accepts a single application object or an array of them, exactly as captured from the upstream status endpoint.",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		RawBody []byte
	}) (*reportsResponse, error) {
		apps, err := normalize.Normalize(input.RawBody)
		if err != nil {
			return nil, handleError(err)
		}
		return newReportsResponse(catalog, apps), nil
	})
}

func registerCodes(api huma.API, catalog kb.Catalog) {
	huma.Register(api, huma.Operation{
		OperationID: "list-codes",
		Method:      http.MethodGet,
		Path:        "/codes",
		Summary:     "List known status codes",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body struct {
			Items []domain.Classification `json:"items"`
		}
	}, error) {
		resp := &struct {
			Body struct {
				Items []domain.Classification `json:"items"`
			}
		}{}
		for _, code := range catalog.Codes() {
			resp.Body.Items = append(resp.Body.Items, catalog.Classify(code))
		}
		return resp, nil
	})
}

func registerSnapshot(api huma.API, st *store.SQLite, catalog kb.Catalog) {
	huma.Register(api, huma.Operation{
		OperationID: "get-snapshot",
		Method:      http.MethodGet,
		Path:        "/snapshot",
		Summary:     "Last saved reports",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, _ *struct{}) (*reportsResponse, error) {
		apps, ok, err := st.Load(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		if !ok {
			return nil, newAPIError(http.StatusNotFound, "no_snapshot", "no snapshot saved", nil)
		}
		return newReportsResponse(catalog, apps), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "put-snapshot",
		Method:      http.MethodPut,
		Path:        "/snapshot",
		Summary:     "Normalize a payload and save it as the snapshot",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		RawBody []byte
	}) (*reportsResponse, error) {
		apps, err := normalize.Normalize(input.RawBody)
		if err != nil {
			return nil, handleError(err)
		}
		if err := st.Save(ctx, apps); err != nil {
			return nil, handleError(err)
		}
		primary := ""
		if rec, _, ok := status.SelectPrimary(apps[0]); ok {
			primary = rec.StatusCode
		}
		if err := st.AppendIngest(ctx, "api", len(apps), primary); err != nil {
			return nil, handleError(err)
		}
		return newReportsResponse(catalog, apps), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-snapshot",
		Method:        http.MethodDelete,
		Path:          "/snapshot",
		Summary:       "Clear the snapshot",
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, _ *struct{}) (*struct{}, error) {
		if err := st.Clear(ctx); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}
