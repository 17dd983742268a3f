package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// parseIDParam 解析路径中的数字 ID，非法返回 (0, false)
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseIDQuery 解析查询参数中的数字 ID，缺失或非法返回 0
func parseIDQuery(c *gin.Context, name string) int64 {
	id, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}
