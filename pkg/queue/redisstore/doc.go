// Package redisstore is the DurableQueue backend on Redis.
//
// Layout, for the default "jobkit" prefix:
//
//	jobkit:job:<id>    HASH  job fields, args stored verbatim
//	jobkit:pending     LIST  pending ids, oldest first
//	jobkit:processing  ZSET  running ids scored by claim time in unix ms
//	jobkit:notify      pub/sub channel announcing new work
//
// Claim, ack, fail, requeue and reap are Lua scripts, so each transition is atomic on
// the server. A claim moves the first accepted id from the pending list into the
// processing set; Reap returns ids whose score is older than the visibility timeout.
// Job hashes are addressed from inside the scripts, so the store targets a single
// Redis node rather than a cluster.
package redisstore
