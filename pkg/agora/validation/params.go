package validation

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParamError reports a malformed path parameter.
type ParamError struct {
	Name  string
	Value string
}

func (e *ParamError) Error() string {
	return e.Name + ": must be a positive integer"
}

// PathID parses a positive integer path parameter.
func PathID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return 0, &ParamError{Name: name, Value: raw}
	}
	return uint(v), nil
}

// Page holds the paging and search query parameters shared by list
// endpoints. Zero Limit or Skip means unset.
type Page struct {
	Limit  int    `form:"limit" json:"limit" binding:"gte=0"`
	Skip   int    `form:"skip" json:"skip" binding:"gte=0"`
	Search string `form:"search" json:"search"`
}
