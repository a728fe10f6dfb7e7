package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/adapter/azuredevops"
	"github.com/stefanskiasan/azure-devops-mcp-server/internal/pkg/apperrors"
)

func respErr(status int, body string) *azuredevops.ResponseError {
	return &azuredevops.ResponseError{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Method:     http.MethodGet,
		URL:        "https://dev.azure.com/org/P/_apis/x",
		Body:       []byte(body),
	}
}

func TestNormalize_Nil(t *testing.T) {
	assert.Nil(t, Normalize(nil, ErrorContext{}))
	assert.NoError(t, Fail(nil, ErrorContext{}))
}

func TestNormalize_PassThrough(t *testing.T) {
	orig := apperrors.NewValidationError("ids", "ids is required")
	wrapped := fmt.Errorf("context: %w", orig)

	assert.Same(t, orig, Normalize(orig, ErrorContext{Resource: "x"}))
	assert.Same(t, orig, Normalize(wrapped, ErrorContext{}))
}

func TestNormalize_Authentication(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusNonAuthoritativeInfo} {
		got := Normalize(respErr(status, ""), ErrorContext{})
		assert.Equal(t, apperrors.KindAuthentication, got.Kind(), status)
	}
}

func TestNormalize_NotFound(t *testing.T) {
	got := Normalize(respErr(http.StatusNotFound, `{"message":"TF401180: The requested pull request was not found."}`),
		ErrorContext{Resource: "Pull request 7"})
	assert.Equal(t, apperrors.KindNotFound, got.Kind())
	assert.Equal(t, "Pull request 7 not found", got.Message)
	assert.Contains(t, got.Error(), "TF401180", "текст исходной ошибки сохраняется")

	got = Normalize(respErr(http.StatusNotFound, `{"message":"gone"}`), ErrorContext{})
	assert.Equal(t, "gone", got.Message)
}

func TestNormalize_WikiSpecialization(t *testing.T) {
	tests := []struct {
		name string
		err  *azuredevops.ResponseError
		ec   ErrorContext
		want apperrors.Kind
	}{
		{
			name: "typeKey wiki",
			err:  respErr(404, `{"typeKey":"WikiNotFoundException","message":"Wiki not found"}`),
			ec:   ErrorContext{WikiID: "W", Path: "/P"},
			want: apperrors.KindWikiNotFound,
		},
		{
			name: "typeKey page",
			err:  respErr(404, `{"typeKey":"WikiPageNotFoundException","message":"The page '/P' specified in the add operation does not exist in the wiki."}`),
			ec:   ErrorContext{WikiID: "W", Path: "/P"},
			want: apperrors.KindWikiPageNotFound,
		},
		{
			name: "message wiki",
			err:  respErr(404, `{"message":"The wiki W does not exist."}`),
			ec:   ErrorContext{WikiID: "W", Path: "/P"},
			want: apperrors.KindWikiNotFound,
		},
		{
			name: "пустое тело",
			err:  respErr(404, ``),
			ec:   ErrorContext{WikiID: "W", Path: "/P"},
			want: apperrors.KindWikiPageNotFound,
		},
		{
			name: "поиск wiki",
			err:  respErr(404, ``),
			ec:   ErrorContext{WikiID: "W", WikiLookup: true},
			want: apperrors.KindWikiNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.err, tt.ec)
			assert.Equal(t, tt.want, got.Kind())
			assert.Equal(t, "W", got.WikiID)
			if tt.want == apperrors.KindWikiPageNotFound {
				assert.Equal(t, "/P", got.Path)
				assert.Equal(t, "Wiki page not found at path /P", got.Message)
			} else {
				assert.Equal(t, "Wiki with ID W not found", got.Message)
			}
		})
	}
}

func TestNormalize_APIError(t *testing.T) {
	got := Normalize(respErr(http.StatusInternalServerError, `{"message":"boom"}`), ErrorContext{})
	assert.Equal(t, apperrors.KindAPI, got.Kind())
	assert.Equal(t, http.StatusInternalServerError, got.StatusCode)
	assert.Equal(t, "boom", got.Message)
	assert.Equal(t, `{"message":"boom"}`, got.RawBody)

	got = Normalize(respErr(http.StatusBadGateway, `<html/>`), ErrorContext{})
	assert.Equal(t, "502 Bad Gateway", got.Message)
}

func TestNormalize_TransportAndCancel(t *testing.T) {
	got := Normalize(errors.New("dial tcp: refused"), ErrorContext{})
	assert.Equal(t, apperrors.KindAPI, got.Kind())
	assert.Zero(t, got.StatusCode)
	assert.Equal(t, MsgRequestFailed, got.Message)
	assert.Equal(t, 1, strings.Count(got.Error(), "dial tcp: refused"), got.Error())

	got = Normalize(fmt.Errorf("wrap: %w", context.Canceled), ErrorContext{})
	assert.Equal(t, apperrors.KindAPI, got.Kind())
	assert.ErrorIs(t, got, context.Canceled)
	assert.Equal(t, MsgRequestCancelled, got.Message)
	assert.Equal(t, 1, strings.Count(got.Error(), context.Canceled.Error()), got.Error())

	got = Normalize(context.DeadlineExceeded, ErrorContext{})
	assert.Equal(t, MsgRequestCancelled, got.Message)
	assert.ErrorIs(t, got, context.DeadlineExceeded)
}

func TestArgs_Narrowing(t *testing.T) {
	args := Args{
		"s":     "value",
		"blank": "  ",
		"n":     float64(42),
		"frac":  1.5,
		"b":     true,
		"ids":   []any{float64(1), float64(2)},
		"tags":  []any{"a", "b"},
		"vars":  map[string]any{"k": "v"},
		"null":  nil,
		"enum":  "active",
	}

	s, err := args.RequiredString("s")
	require.NoError(t, err)
	assert.Equal(t, "value", s)

	_, err = args.RequiredString("blank")
	assertField(t, err, "blank")
	_, err = args.RequiredString("null")
	assertField(t, err, "null")
	_, err = args.RequiredString("n")
	assertField(t, err, "n")

	n, err := args.RequiredInt("n")
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	_, err = args.RequiredInt("frac")
	assertField(t, err, "frac")
	_, err = args.RequiredInt("missing")
	assertField(t, err, "missing")

	b, err := args.Bool("b", false)
	require.NoError(t, err)
	assert.True(t, b)
	b, err = args.Bool("missing", true)
	require.NoError(t, err)
	assert.True(t, b)

	ids, err := args.RequiredIntSlice("ids")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids)

	tags, ok, err := args.StringSlice("tags")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, tags)

	vars, ok, err := args.StringMap("vars")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, map[string]string{"k": "v"}, vars)

	e, ok, err := args.Enum("enum", "active", "completed")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "active", e)
	_, _, err = args.Enum("enum", "completed")
	assertField(t, err, "enum")
}

func TestArgs_EmptyIntSlice(t *testing.T) {
	_, err := Args{"ids": []any{}}.RequiredIntSlice("ids")
	assertField(t, err, "ids")
	_, err = Args{"ids": []any{"x"}}.RequiredIntSlice("ids")
	assertField(t, err, "ids")
}

func TestArgs_Decode(t *testing.T) {
	var ops []azuredevops.PatchOperation
	ok, err := Args{"document": []any{map[string]any{"op": "add", "path": "/fields/System.Title", "value": "t"}}}.Decode("document", &ops)
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, ops, 1)
	assert.Equal(t, "t", ops[0].Value)

	_, err = Args{"document": "oops"}.Decode("document", &ops)
	assertField(t, err, "document")
}

func assertField(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind())
	assert.Equal(t, field, appErr.Field)
}
