package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-booking/internal/booking"
    "github.com/iliyamo/cinema-booking/internal/middleware"
    "github.com/iliyamo/cinema-booking/internal/ticket"
)

// BookingHandler serves the /api/bookings endpoints on top of the
// booking engine.
type BookingHandler struct {
    Svc *booking.Service
}

func NewBookingHandler(svc *booking.Service) *BookingHandler {
    if svc == nil {
        panic("nil booking service passed to NewBookingHandler")
    }
    return &BookingHandler{Svc: svc}
}

// bookingError maps engine errors onto responses.
func bookingError(c echo.Context, err error) error {
    if ie := booking.IsInputError(err); ie != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid booking", "fields": ie.Fields()})
    }
    switch {
    case errors.Is(err, booking.ErrInvalidSeat):
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid seat number for the selected auditorium"})
    case errors.Is(err, booking.ErrInvalidShowtime):
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid showtime for the selected auditorium"})
    case errors.Is(err, booking.ErrSeatAlreadyBooked):
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Seat already booked at this time"})
    case errors.Is(err, booking.ErrUnknownBooker):
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Booker not found"})
    case errors.Is(err, booking.ErrBookingNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"msg": "Booking not found"})
    }
    return serverError(c, err)
}

func idParam(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id > 0
}

// Availability handles GET /api/bookings/availability[?time=].
func (h *BookingHandler) Availability(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    out, err := h.Svc.Availability(ctx, c.QueryParam("time"))
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// Seats handles GET /api/bookings/auditorium/:auditoriumId/seats[?time=].
func (h *BookingHandler) Seats(c echo.Context) error {
    id, ok := idParam(c, "auditoriumId")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid auditorium id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    out, err := h.Svc.SeatsByAuditorium(ctx, id, c.QueryParam("time"))
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// List handles GET /api/bookings.
func (h *BookingHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    out, err := h.Svc.List(ctx)
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// bindInput reads a BookInput; a missing bookerId defaults to the
// authenticated booker.
func bindInput(c echo.Context) (booking.BookInput, error) {
    var in booking.BookInput
    if err := c.Bind(&in); err != nil {
        return in, err
    }
    if in.BookerID == nil {
        if id, ok := middleware.BookerID(c); ok {
            in.BookerID = &id
        }
    }
    return in, nil
}

// Create handles POST /api/bookings/book.
func (h *BookingHandler) Create(c echo.Context) error {
    in, err := bindInput(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    b, err := h.Svc.Create(ctx, in)
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, b)
}

// Update handles PUT /api/bookings/:id.
func (h *BookingHandler) Update(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid booking id"})
    }
    in, err := bindInput(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    b, err := h.Svc.Update(ctx, id, in)
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, b)
}

// Delete handles DELETE /api/bookings/:id.
func (h *BookingHandler) Delete(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid booking id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Svc.Delete(ctx, id); err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"msg": "Booking removed"})
}

func (h *BookingHandler) confirmation(c echo.Context) (booking.Confirmation, error) {
    id, ok := idParam(c, "id")
    if !ok {
        return booking.Confirmation{}, booking.ErrBookingNotFound
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    return h.Svc.Confirmation(ctx, id)
}

// Confirmation handles GET /api/bookings/confirmation/:id.
func (h *BookingHandler) Confirmation(c echo.Context) error {
    conf, err := h.confirmation(c)
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, conf)
}

func ticketOf(conf booking.Confirmation) ticket.Ticket {
    return ticket.Ticket{
        ReservationCode: conf.ReservationCode,
        Auditorium:      conf.Auditorium,
        Time:            conf.Time,
        Seat:            conf.Seat,
        Email:           conf.Email,
    }
}

// QRCode handles GET /api/bookings/confirmation/:id/qrcode[?size=].
func (h *BookingHandler) QRCode(c echo.Context) error {
    conf, err := h.confirmation(c)
    if err != nil {
        return bookingError(c, err)
    }
    size := ticket.DefaultQRSize
    if s, err := strconv.Atoi(c.QueryParam("size")); err == nil && s >= 64 && s <= 1024 {
        size = s
    }
    png, err := ticket.QRCode(ticketOf(conf).Payload(), size)
    if err != nil {
        return serverError(c, err)
    }
    return c.Blob(http.StatusOK, "image/png", png)
}

// PDF handles GET /api/bookings/confirmation/:id/pdf.
func (h *BookingHandler) PDF(c echo.Context) error {
    conf, err := h.confirmation(c)
    if err != nil {
        return bookingError(c, err)
    }
    doc, err := ticket.PDF(ticketOf(conf))
    if err != nil {
        return serverError(c, err)
    }
    c.Response().Header().Set(echo.HeaderContentDisposition,
        `inline; filename="ticket-`+strconv.FormatUint(conf.ReservationCode, 10)+`.pdf"`)
    return c.Blob(http.StatusOK, "application/pdf", doc)
}
