package httpapi

import (
	"context"
	"embed"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

//go:embed static/index.html
var static embed.FS

// Dashboard bundles what the routes need.
type Dashboard struct {
	Sessions *store.SessionStore
	Display  *time.Location
	Logger   *slog.Logger
}

// RegisterRoutes wires the dashboard page and its JSON API into the Fiber app.
func RegisterRoutes(app *fiber.App, d Dashboard) {
	if d.Display == nil {
		d.Display = time.UTC
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	app.Get("/", func(c *fiber.Ctx) error {
		page, err := static.ReadFile("static/index.html")
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "dashboard page unavailable")
		}
		c.Type("html", "utf-8")
		return c.Send(page)
	})

	v1 := app.Group("/api/v1")

	v1.Post("/sessions", func(c *fiber.Ctx) error {
		e := d.Sessions.Create()
		d.Logger.Debug("dashboard session created", "session", e.ID)
		return c.Status(fiber.StatusCreated).JSON(newDashboardView(e, d.Display))
	})

	v1.Get("/sessions/:id", func(c *fiber.Ctx) error {
		e, err := lookup(d.Sessions, c)
		if err != nil {
			return err
		}
		return c.JSON(newDashboardView(e, d.Display))
	})

	v1.Delete("/sessions/:id", func(c *fiber.Ctx) error {
		if err := d.Sessions.Delete(c.Params("id")); err != nil {
			return sessionError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Post("/sessions/:id/search", func(c *fiber.Ctx) error {
		e, err := lookup(d.Sessions, c)
		if err != nil {
			return err
		}

		var req searchRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		e.Session.SubmitSearch(c.UserContext(), req.Query)
		return c.JSON(newDashboardView(e, d.Display))
	})

	v1.Post("/sessions/:id/locate", func(c *fiber.Ctx) error {
		e, err := lookup(d.Sessions, c)
		if err != nil {
			return err
		}

		var req locateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		locator, err := req.locator()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		e.Session.SubmitCurrentLocation(c.UserContext(), locator)
		return c.JSON(newDashboardView(e, d.Display))
	})

	v1.Post("/sessions/:id/theme", func(c *fiber.Ctx) error {
		e, err := d.Sessions.ToggleTheme(c.Params("id"))
		if err != nil {
			return sessionError(err)
		}
		return c.JSON(newDashboardView(e, d.Display))
	})
}

func lookup(sessions *store.SessionStore, c *fiber.Ctx) (store.Entry, error) {
	e, err := sessions.Get(c.Params("id"))
	if err != nil {
		return store.Entry{}, sessionError(err)
	}
	return e, nil
}

func sessionError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "unknown dashboard session")
	}
	return fiber.NewError(fiber.StatusInternalServerError, "failed to load dashboard session")
}

// searchRequest is the body of a search submission. Blank queries are
// accepted here and rejected by the session itself.
type searchRequest struct {
	Query string `json:"query" validate:"max=200"`
}

// locateRequest carries the outcome of the browser's geolocation call:
// a position, the browser's error message, or unsupported.
type locateRequest struct {
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Error       string   `json:"error"`
	Unsupported bool     `json:"unsupported"`
}

type coordinatesInput struct {
	Latitude  *float64 `validate:"required,latitude"`
	Longitude *float64 `validate:"required,longitude"`
}

// locator turns the request into the device location provider handed to the
// session. A nil Locator means the browser has no geolocation support.
func (r locateRequest) locator() (weather.Locator, error) {
	if r.Unsupported {
		return nil, nil
	}
	if r.Error != "" {
		msg := r.Error
		return weather.LocatorFunc(func(context.Context) (weather.Coordinates, error) {
			return weather.Coordinates{}, errors.New(msg)
		}), nil
	}

	in := coordinatesInput{Latitude: r.Latitude, Longitude: r.Longitude}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	return weather.FixedLocator(weather.Coordinates{
		Latitude:  *r.Latitude,
		Longitude: *r.Longitude,
	}), nil
}
