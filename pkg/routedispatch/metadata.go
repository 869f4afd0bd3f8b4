package routedispatch

// Metadata describes a single route's identity, transport requirements and
// policy (§4.9). The WebRTC-only fields are populated only by media
// routes; every other route leaves them at their zero value.
type Metadata struct {
	ID          string
	Path        string
	Method      string
	Tags        []string
	Description string

	Idempotent    bool
	RequiresAuth  bool
	RateLimitTier string // "inference" or "standard" (§12)

	// WebRTC/media-route fields (§12, from webrtc/src/routes/audio_stream.rs).
	SupportsStreaming bool
	SupportsBinary    bool
	MaxPayloadSize    int64
	MediaType         string
}

// TierFor resolves the rate-limit tier for a route based on its id, the
// same classification the Rust original's middleware uses: chat/generate/
// embeddings routes are "inference", everything else is "standard" (§12).
func TierFor(routeID string) string {
	switch routeID {
	case "chat_completion", "completion", "embeddings":
		return "inference"
	default:
		return "standard"
	}
}
