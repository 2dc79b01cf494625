package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func up(name string) Checker {
	return NewPingChecker(name, func(context.Context) error { return nil })
}

func down(name, msg string) Checker {
	return NewPingChecker(name, func(context.Context) error { return errors.New(msg) })
}

func TestRegistry_CheckAll(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		checkers []Checker
		expected Status
	}{
		{name: "should be up without checkers", expected: StatusUp},
		{name: "should be up when every check passes", checkers: []Checker{up("postgres"), up("kafka")}, expected: StatusUp},
		{name: "should be down when one check fails", checkers: []Checker{up("postgres"), down("redis", "refused")}, expected: StatusDown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			response := NewRegistry(tc.checkers...).CheckAll(context.Background())

			assert.Equal(t, tc.expected, response.Status)
			require.Len(t, response.Checks, len(tc.checkers))
			for i, c := range tc.checkers {
				assert.Equal(t, c.Name(), response.Checks[i].Name)
			}
		})
	}
}

func TestReadinessHandler(t *testing.T) {
	t.Parallel()

	engine := gin.New()
	engine.GET("/health/ready", ReadinessHandler(NewRegistry(up("postgres"), down("kafka", "all brokers unreachable")), DefaultTimeout))
	engine.GET("/health/live", LivenessHandler())

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, StatusDown, body.Status)
	assert.Equal(t, "all brokers unreachable", body.Checks[1].Message)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRedisChecker(t *testing.T) {
	t.Parallel()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	checker := NewRedisChecker(client)

	assert.Equal(t, StatusUp, checker.Check(context.Background()).Status)

	server.Close()
	res := checker.Check(context.Background())
	assert.Equal(t, StatusDown, res.Status)
	assert.NotEmpty(t, res.Message)
}

func TestKafkaChecker_NoBrokers(t *testing.T) {
	t.Parallel()

	res := NewKafkaChecker(nil).Check(context.Background())

	assert.Equal(t, StatusDown, res.Status)
}
