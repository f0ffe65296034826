package queue

import (
	"fmt"
	"strings"

	"github.com/gridcast/gridcast/internal/config"
)

// Supported publisher types
const (
	TypeNone   = "none"
	TypeMemory = "memory"
	TypeNATS   = "nats"
	TypeRedis  = "redis"
	TypeKafka  = "kafka"
)

// NewPublisher creates a publisher for the configured broker.
// It returns a nil Publisher when publishing is disabled.
func NewPublisher(cfg config.QueueConfig) (Publisher, error) {
	switch strings.ToLower(cfg.Type) {
	case "", TypeNone:
		return nil, nil
	case TypeMemory:
		return NewMemoryPublisher(), nil
	case TypeNATS:
		return newNATSPublisher(cfg.URL, cfg.Username, cfg.Password)
	case TypeRedis:
		return newRedisPublisher(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
		})
	case TypeKafka:
		return newKafkaPublisher(KafkaConfig{
			Brokers: cfg.KafkaBrokers,
		})
	default:
		return nil, fmt.Errorf("unsupported queue type: %s", cfg.Type)
	}
}
