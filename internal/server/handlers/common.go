package handlers

import (
	"strconv"

	"github.com/bestruirui/argus/internal/op"
	"github.com/gin-gonic/gin"
)

// queryInt64 parses an optional integer query param, 0 when absent.
func queryInt64(c *gin.Context, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

// queryChannelID parses an optional channel_id param, nil when absent.
func queryChannelID(c *gin.Context) (*int, error) {
	raw := c.Query("channel_id")
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// statFilterFromQuery builds the shared stats filter from query params.
func statFilterFromQuery(c *gin.Context) (op.StatFilter, error) {
	var filter op.StatFilter

	channelID, err := queryChannelID(c)
	if err != nil {
		return filter, err
	}
	filter.ChannelID = channelID
	filter.ModelName = c.Query("model")

	if filter.Start, err = queryInt64(c, "start"); err != nil {
		return filter, err
	}
	if filter.End, err = queryInt64(c, "end"); err != nil {
		return filter, err
	}
	return filter, nil
}
