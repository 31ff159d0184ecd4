package bank

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bank/resolve", r.URL.Path)
		assert.Equal(t, "0123456789", r.URL.Query().Get("account_number"))
		assert.Equal(t, "058", r.URL.Query().Get("bank_code"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data":   map[string]string{"account_name": "AMARA OKOYE"},
		})
	}))
	defer server.Close()

	r := NewResolver(server.URL, "sk_test", 5*time.Second)
	res, err := r.Resolve(context.Background(), "0123456789", "058")
	require.NoError(t, err)
	assert.Equal(t, "AMARA OKOYE", res.AccountName)
}

func TestResolve_UnknownAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	r := NewResolver(server.URL, "sk_test", 5*time.Second)
	_, err := r.Resolve(context.Background(), "0000000000", "058")
	assert.True(t, errors.Is(err, ErrAccountNotFound))
}

func TestResolve_FalseStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  false,
			"message": "Could not resolve account name",
		})
	}))
	defer server.Close()

	r := NewResolver(server.URL, "sk_test", 5*time.Second)
	_, err := r.Resolve(context.Background(), "0123456789", "058")
	assert.True(t, errors.Is(err, ErrAccountNotFound))
}
