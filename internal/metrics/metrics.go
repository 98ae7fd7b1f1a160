// metrics регистрирует счётчики сервиса в реестре Prometheus по умолчанию;
// сами значения отдаются promhttp-хэндлером на ops-листенере.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TokensIssued — выпущенные пары access+refresh.
	TokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_tokens_issued_total",
		Help: "Total number of issued access/refresh token pairs.",
	})

	// VerifyFailures — неуспешные проверки access-токенов.
	VerifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_token_verify_failures_total",
		Help: "Total number of failed access token verifications.",
	})

	// JWKSRefreshes — попытки обновления удалённого набора ключей, по результату.
	JWKSRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_jwks_refreshes_total",
		Help: "Total number of JWKS refresh attempts by result.",
	}, []string{"result"})

	// RefreshConsumed — попытки погашения refresh-токена, по исходу.
	RefreshConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_refresh_tokens_consumed_total",
		Help: "Total number of refresh token consumption attempts by outcome.",
	}, []string{"outcome"})

	// ActivityPublishFailures — события активности, не доставленные даже в DLQ.
	ActivityPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_activity_publish_failures_total",
		Help: "Total number of activity events dropped after retries and DLQ fallback.",
	})
)
