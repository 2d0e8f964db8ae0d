package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/appctx"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth(t *testing.T) {
	var gotTenant, gotUser string
	h := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTenant = appctx.TenantID(r.Context())
		gotUser = appctx.UserID(r.Context())
	}))

	token, err := utils.GenerateToken("secret", "tenant-9", "user-9", "", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"bearer", "Bearer " + token, "", http.StatusOK},
		{"query token", "", "?token=" + token, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"bad scheme", "Basic " + token, "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotTenant, gotUser = "", ""
			req := httptest.NewRequest(http.MethodGet, "/api/x"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "tenant-9", gotTenant)
				assert.Equal(t, "user-9", gotUser)
			} else {
				assert.Empty(t, gotTenant)
			}
		})
	}
}
