package dataaccess

import (
	"fmt"
	"strings"
)

// Backend names a ticket store implementation.
type Backend string

const (
	// BackendNeo4j stores users and tickets as a property graph.
	BackendNeo4j Backend = "neo4j"

	// BackendMongo stores the same graph as users, tickets and reported edge collections.
	BackendMongo Backend = "mongo"

	// BackendMemory keeps everything in process. Data is lost on restart.
	BackendMemory Backend = "memory"
)

// ParseBackend validates a backend name.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendNeo4j, BackendMongo, BackendMemory:
		return b, nil
	default:
		return "", fmt.Errorf("unknown store backend %q", s)
	}
}
