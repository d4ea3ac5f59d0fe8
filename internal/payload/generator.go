package payload

import (
	"fmt"
	"strings"
	"time"
)

const (
	// Alphabet is the character set for sample messages
	Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// MinValue and MaxValue bound SampleResponse.Value, inclusive
	MinValue = 1
	MaxValue = 100

	// MessageLength is the length of SampleResponse.Message
	MessageLength = 5

	// TimestampLayout renders yyyymmdd-hhmmss
	TimestampLayout = "20060102-150405"

	// infoTimestampLayout matches an ISO-8601 UTC timestamp with milliseconds
	infoTimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// FormatTimestamp renders t as yyyymmdd-hhmmss in t's own location
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Generator builds fresh response payloads
type Generator struct {
	Source Source
	Now    func() time.Time
}

// NewGenerator creates a generator backed by the process-wide random
// source and the local wall clock
func NewGenerator() *Generator {
	return &Generator{
		Source: DefaultSource(),
		Now:    time.Now,
	}
}

// Greeting returns "hello world <yyyymmdd-hhmmss>" for the current local time
func (g *Generator) Greeting() (GreetingResponse, error) {
	now := g.now().Local()
	return GreetingResponse{
		Message: "hello world " + FormatTimestamp(now),
	}, nil
}

// Sample returns a random value in [MinValue, MaxValue] and a random
// alphanumeric message of MessageLength characters
func (g *Generator) Sample() (SampleResponse, error) {
	src := g.source()

	value := src.IntRange(MinValue, MaxValue)
	if value < MinValue || value > MaxValue {
		return SampleResponse{}, fmt.Errorf("random value %d out of range [%d,%d]", value, MinValue, MaxValue)
	}

	var sb strings.Builder
	sb.Grow(MessageLength)
	for i := 0; i < MessageLength; i++ {
		sb.WriteByte(src.Char(Alphabet))
	}

	return SampleResponse{
		Value:   value,
		Message: sb.String(),
	}, nil
}

// Info returns the server identity payload
func (g *Generator) Info() ServerInfo {
	endpoints := make([]string, len(Endpoints))
	copy(endpoints, Endpoints)

	return ServerInfo{
		Name:      ServerName,
		Version:   ServerVersion,
		Endpoints: endpoints,
		Timestamp: g.now().UTC().Format(infoTimestampLayout),
	}
}

func (g *Generator) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}

func (g *Generator) source() Source {
	if g.Source == nil {
		return DefaultSource()
	}
	return g.Source
}
