package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), EINTERNAL},
		{"domain", NotFound("lead.get", "lead", "x"), ENOTFOUND},
		{"wrapped domain", fmt.Errorf("send: %w", Invalid("op", "bad")), EINVALID},
		{"validation", NewValidationError("op", "email", "bad"), EINVALID},
		{"canceled", FromContext(context.Canceled, "op", "x"), EUNAVAILABLE},
		{"deadline", FromContext(fmt.Errorf("query: %w", context.DeadlineExceeded), "op", "x"), EUNAVAILABLE},
		{"other failure", FromContext(errors.New("pq: broken"), "op", "x"), EINTERNAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestErrorMessage_HidesInternalDetails(t *testing.T) {
	assert.Equal(t, msgInternal, ErrorMessage(Internal(errors.New("pq: relation missing"), "op", "query failed")))
	assert.Equal(t, msgInternal, ErrorMessage(errors.New("raw")))
	assert.Equal(t, "bad", ErrorMessage(Invalid("op", "bad")))
	assert.Equal(t, msgRateLimited, ErrorMessage(RateLimit("op")))
	assert.Empty(t, ErrorMessage(nil))
}

func TestError_Format(t *testing.T) {
	cause := errors.New("smtp: 421")
	err := Wrap(cause, EUNAVAILABLE, "email.send", "mail server busy")

	assert.Equal(t, "email.send: mail server busy", err.Error())
	assert.Equal(t, "mail server busy", Errorf(EINVALID, "", "mail server busy").Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "email.send", ErrorOp(fmt.Errorf("job: %w", err)))
	assert.Empty(t, ErrorOp(cause))
}
