package apierr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSONErrorIsClientIOErrorIsServer(t *testing.T) {
	assert.True(t, IsClientError(KindJSON))
	assert.False(t, IsClientError(KindIO))
}

func TestHTTPStatusClassification(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindValidation, 400},
		{KindBadRequest, 400},
		{KindJSON, 400},
		{KindProtocol, 400},
		{KindAuth, 401},
		{KindRateLimit, 429},
		{KindRouteNotFound, 404},
		{KindInternal, 500},
		{KindBackend, 500},
		{KindIO, 500},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HTTPStatus(c.kind), "kind=%s", c.kind)
	}
}

func TestWithRequestIDDoesNotMutateOriginal(t *testing.T) {
	base := New(KindInternal, "boom")
	withID := base.WithRequestID("req-1")

	assert.Empty(t, base.RequestID)
	assert.Equal(t, "req-1", withID.RequestID)
}
