package dynamo

// DynamoDB attribute names used in key and condition expressions.
const (
	fieldIdentity    = "identity"
	fieldCode        = "code"
	fieldExpiresAtMs = "expires_at_ms"
	fieldExpiresAt   = "expires_at" // TTL attribute (Unix seconds)
)
