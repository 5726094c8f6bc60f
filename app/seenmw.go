// app/seenmw.go
package app

import (
	"time"

	"Gin_postgres_redis_library/db"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// TouchLastSeen 节流更新 last_seen_at，每个账号每个 throttle 周期最多写一次库
func TouchLastSeen(repo *db.Repo, rdb *redis.Client, throttle time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		aid := c.GetString(ctxAccountID)
		if aid == "" {
			c.Next()
			return
		}

		key := "lib:account:lastseen:" + aid
		if ok, _ := rdb.SetNX(c, key, "1", throttle).Result(); ok {
			_ = repo.TouchAccountSeen(c, aid) // 忽略错误，不阻塞请求
		}
		c.Next()
	}
}
