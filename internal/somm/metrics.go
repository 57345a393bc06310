package somm

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels for sommRequests. Bounded set, one per failure class.
const (
	opExtract    = "extract"
	opSynthesize = "synthesize"

	outcomeOK        = "ok"
	outcomeTransport = "transport_error"
	outcomeStatus    = "bad_status"
	outcomeEnvelope  = "envelope_error"
	outcomePayload   = "payload_error"
)

var (
	// sommRequests counts proxy calls by operation and outcome class.
	sommRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "somm_requests_total",
			Help: "Total number of AI proxy requests by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	// sommTokens accumulates token spend by operation and token kind, feeding
	// cost dashboards.
	sommTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "somm_tokens_total",
			Help: "Total AI proxy tokens consumed by operation and kind.",
		},
		[]string{"op", "kind"},
	)
)

func init() {
	prometheus.MustRegister(sommRequests, sommTokens)
}

func observeRequest(op, outcome string) {
	sommRequests.WithLabelValues(op, outcome).Inc()
}

func observeTokens(op string, u *tokenUsage, imageTokens int) {
	sommTokens.WithLabelValues(op, "prompt").Add(float64(u.PromptTokens))
	sommTokens.WithLabelValues(op, "completion").Add(float64(u.CompletionTokens))
	if imageTokens > 0 {
		sommTokens.WithLabelValues(op, "image").Add(float64(imageTokens))
	}
}
