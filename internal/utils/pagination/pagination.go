package pagination

import (
	"strconv"

	"dompet/internal/repositories"

	"github.com/gofiber/fiber/v2"
)

// ParseFromRequest reads page, page_size and search from the query string.
// The older limit parameter is accepted as page_size.
func ParseFromRequest(c *fiber.Ctx) repositories.ListQuery {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	size, err := strconv.Atoi(c.Query("page_size"))
	if err != nil {
		size, _ = strconv.Atoi(c.Query("limit", "10"))
	}
	return repositories.ListQuery{
		Page:     page,
		PageSize: size,
		Search:   c.Query("search"),
	}.Normalize()
}

// ParamID reads a positive numeric route parameter.
func ParamID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
