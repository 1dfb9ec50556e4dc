package handlers

import (
	"time"

	"conexioncarga/internal/models"
	"conexioncarga/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Paging bounds applied to listing queries.
type Paging struct {
	DefaultLimit int
	MaxLimit     int
}

// CargoHandler handles HTTP requests for freight listings.
type CargoHandler struct {
	service   *services.CargoService
	durations services.DurationPolicy
	paging    Paging
	validate  *validator.Validate
	logger    *logrus.Logger
}

// NewCargoHandler creates a new CargoHandler.
func NewCargoHandler(service *services.CargoService, durations services.DurationPolicy, paging Paging, logger *logrus.Logger) *CargoHandler {
	return &CargoHandler{
		service:   service,
		durations: durations,
		paging:    paging,
		validate:  newValidator(),
		logger:    logger,
	}
}

// RegisterRoutes registers the listing routes. auth guards the routes that need a caller.
func (h *CargoHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	loadRoutes := router.Group("/loads")
	loadRoutes.Post("/", auth, h.HandleCreate)
	loadRoutes.Get("/public", h.HandleListPublic)
	loadRoutes.Get("/mine", auth, h.HandleListMine)
	loadRoutes.Get("/:id", h.HandleGet)
	loadRoutes.Post("/:id/expire", auth, h.HandleExpire)
	loadRoutes.Post("/:id/reactivate", auth, h.HandleReactivate)
}

// CargoResponse is a listing as returned by the API.
type CargoResponse struct {
	models.Cargo
	ExpiresAt time.Time `json:"expires_at"`
	IsActive  bool      `json:"is_active"`
}

func toCargoResponse(c *models.Cargo) CargoResponse {
	return CargoResponse{Cargo: *c, ExpiresAt: c.ExpiresAt(), IsActive: c.Active}
}

func toCargoResponses(cargos []models.Cargo) []CargoResponse {
	out := make([]CargoResponse, 0, len(cargos))
	for i := range cargos {
		out = append(out, toCargoResponse(&cargos[i]))
	}
	return out
}

// CreateCargoRequest represents the request body for publishing a listing.
type CreateCargoRequest struct {
	CompanyID     *string    `json:"company_id" validate:"omitempty,max=36"`
	Origin        string     `json:"origin" validate:"required,max=255"`
	Destination   string     `json:"destination" validate:"required,max=255"`
	CargoType     string     `json:"cargo_type" validate:"required,max=100"`
	Weight        float64    `json:"weight" validate:"gte=0.01,lte=99999999.99"`
	Value         int64      `json:"value" validate:"gte=0"`
	Commercial    *string    `json:"commercial" validate:"omitempty,max=255"`
	Contact       *string    `json:"contact" validate:"omitempty,max=255"`
	Observations  *string    `json:"observations" validate:"omitempty,max=2000"`
	Driver        *string    `json:"driver" validate:"omitempty,max=255"`
	VehicleType   *string    `json:"vehicle_type" validate:"omitempty,max=100"`
	DepartureAt   time.Time  `json:"departure_at" validate:"required"`
	ArrivalAt     *time.Time `json:"arrival_at"`
	PremiumTrip   bool       `json:"premium_trip"`
	DurationHours *int       `json:"duration_hours"`
}

// HandleCreate publishes a listing for the caller.
func (h *CargoHandler) HandleCreate(c *fiber.Ctx) error {
	var req CreateCargoRequest
	if err := bindJSON(c, h.validate, &req); err != nil {
		return writeError(c, h.logger, err)
	}
	if req.ArrivalAt != nil && req.ArrivalAt.Before(req.DepartureAt) {
		return writeError(c, h.logger, invalidField("arrival_at", "must not be before departure_at"))
	}

	cargo, err := h.service.Create(c.UserContext(), currentUserID(c), services.CreateCargoInput{
		CompanyID:     req.CompanyID,
		Origin:        req.Origin,
		Destination:   req.Destination,
		CargoType:     req.CargoType,
		Weight:        req.Weight,
		Value:         req.Value,
		Commercial:    req.Commercial,
		Contact:       req.Contact,
		Observations:  req.Observations,
		Driver:        req.Driver,
		VehicleType:   req.VehicleType,
		DepartureAt:   req.DepartureAt,
		ArrivalAt:     req.ArrivalAt,
		PremiumTrip:   req.PremiumTrip,
		DurationHours: h.durations.Hours(req.DurationHours),
	})
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toCargoResponse(cargo))
}

// HandleListPublic returns the active listings, newest first.
func (h *CargoHandler) HandleListPublic(c *fiber.Ctx) error {
	skip, limit, err := pagination(c, h.paging.DefaultLimit, h.paging.MaxLimit)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	cargos, err := h.service.ListPublic(c.UserContext(), skip, limit)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(toCargoResponses(cargos))
}

// HandleListMine returns the caller's listings filtered by status=all|published|expired.
func (h *CargoHandler) HandleListMine(c *fiber.Ctx) error {
	skip, limit, err := pagination(c, h.paging.DefaultLimit, h.paging.MaxLimit)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	filter := c.Query("status", c.Query("filter", services.FilterAll))

	cargos, err := h.service.ListMine(c.UserContext(), currentUserID(c), filter, skip, limit)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(toCargoResponses(cargos))
}

// HandleGet returns a single listing.
func (h *CargoHandler) HandleGet(c *fiber.Ctx) error {
	cargo, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(toCargoResponse(cargo))
}

// HandleExpire takes one of the caller's listings off the board.
func (h *CargoHandler) HandleExpire(c *fiber.Ctx) error {
	cargo, err := h.service.Expire(c.UserContext(), c.Params("id"), currentUserID(c))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(toCargoResponse(cargo))
}

// ReactivateCargoRequest carries optional changes applied when republishing.
type ReactivateCargoRequest struct {
	CompanyID     *string    `json:"company_id" validate:"omitempty,max=36"`
	Origin        *string    `json:"origin" validate:"omitempty,min=1,max=255"`
	Destination   *string    `json:"destination" validate:"omitempty,min=1,max=255"`
	CargoType     *string    `json:"cargo_type" validate:"omitempty,min=1,max=100"`
	Weight        *float64   `json:"weight" validate:"omitempty,gte=0.01,lte=99999999.99"`
	Value         *int64     `json:"value" validate:"omitempty,gte=0"`
	Commercial    *string    `json:"commercial" validate:"omitempty,max=255"`
	Contact       *string    `json:"contact" validate:"omitempty,max=255"`
	Observations  *string    `json:"observations" validate:"omitempty,max=2000"`
	Driver        *string    `json:"driver" validate:"omitempty,max=255"`
	VehicleType   *string    `json:"vehicle_type" validate:"omitempty,max=100"`
	DepartureAt   *time.Time `json:"departure_at"`
	ArrivalAt     *time.Time `json:"arrival_at"`
	PremiumTrip   *bool      `json:"premium_trip"`
	DurationHours *int       `json:"duration_hours"`
}

// HandleReactivate republishes one of the caller's listings with a fresh window.
func (h *CargoHandler) HandleReactivate(c *fiber.Ctx) error {
	var req ReactivateCargoRequest
	if len(c.Body()) > 0 {
		if err := bindJSON(c, h.validate, &req); err != nil {
			return writeError(c, h.logger, err)
		}
	}

	upd := models.CargoUpdate{
		CompanyID:    req.CompanyID,
		Origin:       req.Origin,
		Destination:  req.Destination,
		CargoType:    req.CargoType,
		Weight:       req.Weight,
		Value:        req.Value,
		Commercial:   req.Commercial,
		Contact:      req.Contact,
		Observations: req.Observations,
		Driver:       req.Driver,
		VehicleType:  req.VehicleType,
		DepartureAt:  req.DepartureAt,
		ArrivalAt:    req.ArrivalAt,
		PremiumTrip:  req.PremiumTrip,
	}
	if req.DurationHours != nil {
		hours := h.durations.Hours(req.DurationHours)
		upd.DurationHours = &hours
	}

	cargo, err := h.service.Reactivate(c.UserContext(), c.Params("id"), currentUserID(c), upd)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(toCargoResponse(cargo))
}
