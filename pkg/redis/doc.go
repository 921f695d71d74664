// Package redis connects to the Redis server used by the durable queue backend.
//
// It wraps go-redis with a retrying Connect and a Healthcheck closure suitable for
// readiness probes:
//
//	client, err := redis.Connect(ctx, redis.DefaultConfig("redis://localhost:6379/0"))
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	health := redis.Healthcheck(client)
//
// Config fields can also be populated from the environment with github.com/caarlos0/env.
package redis
