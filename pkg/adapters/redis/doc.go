// Package redis provides a post handler that publishes documents to Redis.
package redis
