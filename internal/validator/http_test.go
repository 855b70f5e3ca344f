package validator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

func TestHTTPValidator_BearerAuthSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer tok_good" {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	spec := &types.HTTPValidationSpec{
		Method:        "GET",
		URL:           srv.URL,
		Auth:          types.AuthSpec{Type: "bearer", SecretGroup: "secret"},
		SuccessStatus: []int{200},
		FailureStatus: []int{401},
	}
	v := NewHTTPValidator("kf.test", spec, srv.Client())

	match := &types.Match{RuleID: "kf.test", NamedGroups: map[string][]byte{"secret": []byte("tok_good")}}
	result, err := v.Validate(context.Background(), match)
	require.NoError(t, err)
	assert.Equal(t, types.StatusValid, result.Status)
}

func TestHTTPValidator_FailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	spec := &types.HTTPValidationSpec{
		Method:        "GET",
		URL:           srv.URL,
		Auth:          types.AuthSpec{Type: "bearer", SecretGroup: "secret"},
		SuccessStatus: []int{200},
		FailureStatus: []int{401},
	}
	v := NewHTTPValidator("kf.test", spec, srv.Client())

	match := &types.Match{RuleID: "kf.test", NamedGroups: map[string][]byte{"secret": []byte("tok_bad")}}
	result, err := v.Validate(context.Background(), match)
	require.NoError(t, err)
	assert.Equal(t, types.StatusInvalid, result.Status)
}

func TestHTTPValidator_MissingSecretGroupIsUndetermined(t *testing.T) {
	spec := &types.HTTPValidationSpec{
		Method: "GET",
		URL:    "https://example.com",
		Auth:   types.AuthSpec{Type: "bearer", SecretGroup: "secret"},
	}
	v := NewHTTPValidator("kf.test", spec, http.DefaultClient)

	match := &types.Match{RuleID: "kf.test"}
	result, err := v.Validate(context.Background(), match)
	require.NoError(t, err)
	assert.Equal(t, types.StatusUndetermined, result.Status)
}

func TestHTTPValidator_URLTemplateSubstitution(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	spec := &types.HTTPValidationSpec{
		Method:        "POST",
		URL:           "{{secret}}",
		SuccessStatus: []int{200},
	}
	v := NewHTTPValidator("kf.webhook", spec, srv.Client())

	match := &types.Match{RuleID: "kf.webhook", NamedGroups: map[string][]byte{"secret": []byte(srv.URL)}}
	result, err := v.Validate(context.Background(), match)
	require.NoError(t, err)
	assert.Equal(t, types.StatusValid, result.Status)
}

func TestHTTPValidator_BodyContainsAnyRequired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":false}`))
	}))
	defer srv.Close()

	spec := &types.HTTPValidationSpec{
		Method:          "GET",
		URL:             srv.URL,
		SuccessStatus:   []int{200},
		BodyContainsAny: []string{`"ok":true`},
	}
	v := NewHTTPValidator("kf.test", spec, srv.Client())

	match := &types.Match{RuleID: "kf.test"}
	result, err := v.Validate(context.Background(), match)
	require.NoError(t, err)
	assert.Equal(t, types.StatusUndetermined, result.Status)
}
