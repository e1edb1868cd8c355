package api

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/aquiferwatch/groundwater-insight/internal/analytics"
	"github.com/aquiferwatch/groundwater-insight/internal/usecases"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, useCase *usecases.StationUseCase) {
	v1 := app.Group("/api/v1")

	v1.Get("/stations", func(c *fiber.Ctx) error {
		stations, err := useCase.ListStations()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list stations")
		}
		return c.JSON(fiber.Map{"stations": stations})
	})

	v1.Get("/stations/:id/analytics", func(c *fiber.Ctx) error {
		stationID := c.Params("id")

		bundle, err := useCase.GetStationAnalytics(stationID)
		if err != nil {
			if errors.Is(err, analytics.ErrNoData) {
				// A station without readings gets the worded explanation,
				// never an empty body the UI would render as a blank chart.
				return fiber.NewError(fiber.StatusNotFound,
					"no readings recorded for station "+stationID)
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to compute analytics")
		}
		return c.JSON(bundle)
	})

	v1.Get("/stations/:id/readings", func(c *fiber.Ctx) error {
		var req readingsQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		readings, err := useCase.GetStationReadings(c.Params("id"), req.From, req.To)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch readings")
		}
		if len(readings) == 0 {
			return fiber.NewError(fiber.StatusNotFound,
				"no readings recorded for station "+c.Params("id")+" in the requested range")
		}
		return c.JSON(fiber.Map{
			"stationId": c.Params("id"),
			"from":      req.From,
			"to":        req.To,
			"readings":  readings,
		})
	})
}

// readingsQuery holds the optional date bounds of the readings endpoint.
type readingsQuery struct {
	From time.Time
	To   time.Time `validate:"omitempty,gtefield=From"`
}

func (q *readingsQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")

	if fromStr != "" {
		from, err := parseDay(fromStr)
		if err != nil {
			return err
		}
		q.From = from
	}
	if toStr != "" {
		to, err := parseDay(toStr)
		if err != nil {
			return err
		}
		q.To = to
	}

	return validate.Struct(q)
}

// parseDay accepts the "2006-01-02" day form readings are keyed by.
func parseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, errors.New("invalid date format; use YYYY-MM-DD")
	}
	return t, nil
}
