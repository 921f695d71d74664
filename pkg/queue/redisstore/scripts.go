package redisstore

import "github.com/redis/go-redis/v9"

// KEYS: pending, processing
// ARGV: job key prefix, matches json, now ms, now string, page size
// The pending list is read page by page until a match is found or it is exhausted.
var claimScript = redis.NewScript(`
local function accepts(accepted, tags)
  if #tags == 0 then
    return #accepted == 0
  end
  for _, t in ipairs(tags) do
    for _, a in ipairs(accepted) do
      if t == a then
        return true
      end
    end
  end
  return false
end

local matches = cjson.decode(ARGV[2])
local page = tonumber(ARGV[5])
local start = 0

while true do
  local ids = redis.call('LRANGE', KEYS[1], start, start + page - 1)
  if #ids == 0 then
    return false
  end

  local dropped = 0
  for _, id in ipairs(ids) do
    local key = ARGV[1] .. id
    local fields = redis.call('HMGET', key, 'kind', 'tags', 'status')
    local kind, tags, status = fields[1], fields[2], fields[3]

    if not kind then
      redis.call('LREM', KEYS[1], 1, id)
      dropped = dropped + 1
    elseif status == 'pending' then
      local jobTags = cjson.decode(tags or '[]')
      for _, m in ipairs(matches) do
        if m.kind == kind and accepts(m.tags, jobTags) then
          redis.call('LREM', KEYS[1], 1, id)
          redis.call('ZADD', KEYS[2], ARGV[3], id)
          redis.call('HSET', key, 'status', 'running', 'updated_at', ARGV[4])
          redis.call('HINCRBY', key, 'attempts', 1)
          return redis.call('HGETALL', key)
        end
      end
    end
  end

  -- dangling ids removed above shift the rest of the list left
  start = start + #ids - dropped
end
`)

// KEYS: job key, processing
// ARGV: id, status, reason, now string, ttl ms, claim attempt
var finishScript = redis.NewScript(`
local fields = redis.call('HMGET', KEYS[1], 'status', 'attempts')
if fields[1] ~= 'running' or tonumber(fields[2]) ~= tonumber(ARGV[6]) then
  return 0
end
redis.call('HSET', KEYS[1], 'status', ARGV[2], 'error', ARGV[3], 'updated_at', ARGV[4])
redis.call('ZREM', KEYS[2], ARGV[1])
local ttl = tonumber(ARGV[5])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
end
return 1
`)

// KEYS: job key, pending
// ARGV: id, now string
var requeueScript = redis.NewScript(`
local status = redis.call('HGET', KEYS[1], 'status')
if not status then
  return -1
end
if status ~= 'failed' then
  return 0
end
redis.call('HSET', KEYS[1], 'status', 'pending', 'error', '', 'updated_at', ARGV[2])
redis.call('RPUSH', KEYS[2], ARGV[1])
return 1
`)

// KEYS: processing, pending
// ARGV: cutoff ms, job key prefix, now string
var reapScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
local n = 0
for _, id in ipairs(ids) do
  redis.call('ZREM', KEYS[1], id)
  local key = ARGV[2] .. id
  if redis.call('HGET', key, 'status') == 'running' then
    redis.call('HSET', key, 'status', 'pending', 'updated_at', ARGV[3])
    redis.call('LPUSH', KEYS[2], id)
    n = n + 1
  end
end
return n
`)
