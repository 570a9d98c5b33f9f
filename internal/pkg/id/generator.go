package id

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Aggregate ID prefixes. Every aggregate ID is "<prefix>_<24 alphanumeric chars>".
const (
	PrefixTenant       = "ten"
	PrefixProject      = "prj"
	PrefixExecution    = "exe"
	PrefixDeployment   = "dep"
	PrefixSubscription = "sub"
)

// randomLength is the length of the random part of an aggregate ID.
const randomLength = 24

var randReader = rand.Reader

// Generator mints prefixed aggregate identifiers. It implements the ID
// generator port consumed by the services.
type Generator struct{}

// NewGenerator creates a new ID generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate returns a new identifier with the given prefix.
func (g *Generator) Generate(prefix string) string {
	return New(prefix)
}

// New generates a new prefixed identifier.
func New(prefix string) string {
	return prefix + "_" + randomString(randomLength)
}

// NewTenantID generates a new tenant identifier.
func NewTenantID() string { return New(PrefixTenant) }

// NewProjectID generates a new project identifier.
func NewProjectID() string { return New(PrefixProject) }

// NewExecutionID generates a new execution identifier.
func NewExecutionID() string { return New(PrefixExecution) }

// NewDeploymentID generates a new deployment identifier.
func NewDeploymentID() string { return New(PrefixDeployment) }

// NewSubscriptionID generates a new subscription identifier.
func NewSubscriptionID() string { return New(PrefixSubscription) }

// NewRequestID generates a request correlation ID.
func NewRequestID() string {
	return uuid.New().String()
}

// NewOrderID generates a payment gateway order reference.
func NewOrderID() string {
	return "ord_" + randomString(16)
}

// HasPrefix reports whether s carries the given aggregate prefix and a
// non-empty random part.
func HasPrefix(s, prefix string) bool {
	if !strings.HasPrefix(s, prefix+"_") {
		return false
	}
	return len(s) > len(prefix)+1
}

// randomString generates a random alphanumeric string
func randomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	buf := make([]byte, length)
	if _, err := randReader.Read(buf); err != nil {
		// Fallback using time
		for i := range buf {
			buf[i] = charset[time.Now().UnixNano()%int64(len(charset))]
		}
		return string(buf)
	}

	for i := range buf {
		buf[i] = charset[int(buf[i])%len(charset)]
	}
	return string(buf)
}
