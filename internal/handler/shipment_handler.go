package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kargohub/cargo-backend/internal/model"
	"github.com/kargohub/cargo-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type ShipmentHandler struct {
	svc service.ShipmentService
}

func NewShipmentHandler(svc service.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{svc: svc}
}

type PartyPayload struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address"`
}

type PackagePayload struct {
	Type       string `json:"type"`
	Weight     string `json:"weight"`
	Dimensions string `json:"dimensions,omitempty"`
}

type DeliveryPayload struct {
	Type       string `json:"type"`
	PickupDate string `json:"pickupDate"`
}

type ShipmentResponse struct {
	ID             string          `json:"id"`
	TrackingNumber string          `json:"trackingNumber"`
	Sender         PartyPayload    `json:"sender"`
	Receiver       PartyPayload    `json:"receiver"`
	Package        PackagePayload  `json:"package"`
	Delivery       DeliveryPayload `json:"delivery"`
	Notes          string          `json:"notes"`
	Photo          *string         `json:"photo"`
	Status         string          `json:"status"`
	QRCodeURL      string          `json:"qrCodeUrl"`
	CreatedAt      string          `json:"createdAt"`
	UpdatedAt      string          `json:"updatedAt"`
}

type CreateShipmentRequest struct {
	Sender   PartyPayload    `json:"sender"`
	Receiver PartyPayload    `json:"receiver"`
	Package  PackagePayload  `json:"package"`
	Delivery DeliveryPayload `json:"delivery"`
	Notes    string          `json:"notes"`
	Photo    *string         `json:"photo"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type ListShipmentsResponse struct {
	Success   bool               `json:"success"`
	Shipments []ShipmentResponse `json:"shipments"`
	Count     int                `json:"count"`
}

type TrackResponse struct {
	Success  bool             `json:"success"`
	Shipment ShipmentResponse `json:"shipment"`
}

type CreateShipmentResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Shipment ShipmentResponse `json:"shipment"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type StatsPayload struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	PickedUp  int64 `json:"pickedUp"`
	InTransit int64 `json:"inTransit"`
	Delivered int64 `json:"delivered"`
	Cancelled int64 `json:"cancelled"`
}

type StatsResponse struct {
	Success bool         `json:"success"`
	Stats   StatsPayload `json:"stats"`
}

func (h *ShipmentHandler) Create(c echo.Context) error {
	var req CreateShipmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid json"))
	}
	draft := service.ShipmentDraft{
		Sender:   model.Party(req.Sender),
		Receiver: model.Party(req.Receiver),
		Package:  model.PackageInfo(req.Package),
		Delivery: model.DeliveryInfo(req.Delivery),
		Notes:    req.Notes,
		Photo:    req.Photo,
	}
	shipment, err := h.svc.Create(c.Request().Context(), draft)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, NewErrorResponse(err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("failed to create shipment"))
	}
	return c.JSON(http.StatusCreated, CreateShipmentResponse{
		Success:  true,
		Message:  "shipment created",
		Shipment: toShipmentResponse(shipment),
	})
}

func (h *ShipmentHandler) List(c echo.Context) error {
	shipments, err := h.svc.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("failed to fetch shipments"))
	}
	resp := ListShipmentsResponse{
		Success:   true,
		Shipments: make([]ShipmentResponse, 0, len(shipments)),
		Count:     len(shipments),
	}
	for i := range shipments {
		resp.Shipments = append(resp.Shipments, toShipmentResponse(&shipments[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ShipmentHandler) Track(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("tracking number is required"))
	}
	shipment, err := h.svc.Track(c.Request().Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("shipment not found"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("failed to fetch shipment"))
	}
	return c.JSON(http.StatusOK, TrackResponse{Success: true, Shipment: toShipmentResponse(shipment)})
}

func (h *ShipmentHandler) UpdateStatus(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("tracking number is required"))
	}
	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid json"))
	}
	if req.Status == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("status is required"))
	}
	err := h.svc.UpdateStatus(c.Request().Context(), code, req.Status)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "status updated"})
	case errors.Is(err, service.ErrUnknownStatus):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("unknown status"))
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("shipment not found"))
	case errors.Is(err, service.ErrTransitionNotAllowed), errors.Is(err, service.ErrUpdateConflict):
		return c.JSON(http.StatusConflict, NewErrorResponse(err.Error()))
	default:
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("failed to update status"))
	}
}

func (h *ShipmentHandler) Delete(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("tracking number is required"))
	}
	err := h.svc.Delete(c.Request().Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("shipment not found"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("failed to delete shipment"))
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "shipment deleted"})
}

func (h *ShipmentHandler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("failed to fetch stats"))
	}
	return c.JSON(http.StatusOK, StatsResponse{
		Success: true,
		Stats: StatsPayload{
			Total:     stats.Total,
			Pending:   stats.Pending,
			PickedUp:  stats.PickedUp,
			InTransit: stats.InTransit,
			Delivered: stats.Delivered,
			Cancelled: stats.Cancelled,
		},
	})
}

func toShipmentResponse(s *model.Shipment) ShipmentResponse {
	return ShipmentResponse{
		ID:             s.ID,
		TrackingNumber: s.TrackingNumber,
		Sender:         PartyPayload(s.Sender),
		Receiver:       PartyPayload(s.Receiver),
		Package:        PackagePayload(s.Package),
		Delivery:       DeliveryPayload(s.Delivery),
		Notes:          s.Notes,
		Photo:          s.Photo,
		Status:         string(s.Status),
		QRCodeURL:      qrCodeURL(s.TrackingNumber),
		CreatedAt:      s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      s.UpdatedAt.Format(time.RFC3339),
	}
}

// qrCodeURL hands the QR rendering to the external image service; clients
// embed the URL directly.
func qrCodeURL(code string) string {
	return fmt.Sprintf("https://api.qrserver.com/v1/create-qr-code/?size=240x240&data=%s", url.QueryEscape(code))
}
