package Controllers

import (
	"strings"
	"time"

	"Chronos/AppErrors"
	"Chronos/Models"
	"Chronos/Validation"

	"github.com/gofiber/fiber/v2"
)

// bind parses the JSON body into dst and validates it.
func bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return AppErrors.Validation("Invalid request body")
	}
	return Validation.Struct(dst)
}

const dateLayout = "2006-01-02"

// parseTime accepts RFC3339 timestamps and plain dates. A plain date used as
// an upper bound covers the whole day.
func parseTime(value string, endOfDay bool) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, AppErrors.Validation("Invalid date %q, use YYYY-MM-DD or RFC3339", value)
	}
	if endOfDay {
		t = Models.EndOfDay(t)
	}
	return &t, nil
}

// queryRange reads the startDate and endDate query values.
func queryRange(c *fiber.Ctx) (*time.Time, *time.Time, error) {
	start, err := parseTime(c.Query("startDate"), false)
	if err != nil {
		return nil, nil, err
	}
	end, err := parseTime(c.Query("endDate"), true)
	if err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

func message(text string) fiber.Map {
	return fiber.Map{"message": text}
}
