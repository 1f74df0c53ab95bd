package server_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lintang-b-s/roadfacade/pkg/server"
	"github.com/stretchr/testify/assert"
)

func TestWrapErrorf(t *testing.T) {
	cause := errors.New("disk on fire")
	err := server.WrapErrorf(cause, server.ErrInvalidDataset, "load dataset %s", "/data/solo")

	assert.Equal(t, "load dataset /data/solo: disk on fire", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, server.ErrInvalidDataset, server.CodeOf(err))

	wrapped := fmt.Errorf("reload: %w", err)
	assert.Equal(t, server.ErrInvalidDataset, server.CodeOf(wrapped))
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"not found", server.NewErrorf(server.ErrNotFound, "no road near here"), http.StatusNotFound},
		{"bad input", server.NewErrorf(server.ErrBadParamInput, "lat out of range"), http.StatusBadRequest},
		{"internal", server.NewErrorf(server.ErrInternalServerError, "boom"), http.StatusInternalServerError},
		{"plain error", errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, server.StatusCode(tt.err))
		})
	}
}
