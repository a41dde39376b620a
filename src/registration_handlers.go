package main

import (
	"ers/src/core"
	"ers/src/db"
	"ers/src/models"
	"ers/src/types"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func statusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrAlreadyRegistered),
		errors.Is(err, core.ErrAlreadyQueued),
		errors.Is(err, core.ErrSeatsAvailable),
		errors.Is(err, core.ErrTransferNotAllowed),
		errors.Is(err, core.ErrEventNotOpen),
		errors.Is(err, core.ErrAlreadyCheckedIn),
		errors.Is(err, core.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, core.ErrExpiredRegistration):
		return http.StatusGone
	case errors.Is(err, core.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrPaymentGateway):
		return http.StatusBadGateway
	}
	return http.StatusUnprocessableEntity
}

func registrationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/events/:id/registrations", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.RegisterRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			result, err := engine.Register(ctx.Request.Context(), params.ID, userId, body.PaymentMethod)
			if err != nil {
				if core.IsRoutingSignal(err) {
					// Full house: point the caller to the queue.
					ctx.JSON(http.StatusConflict, gin.H{
						"error":    "event is full",
						"waitlist": true,
					})
					return
				}
				if errors.Is(err, core.ErrPaymentGateway) && result != nil {
					ctx.JSON(http.StatusAccepted, gin.H{
						"data":  result.Registration,
						"error": "payment authorization failed, retry the capture",
					})
					return
				}
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{
				"data":            result.Registration,
				"payment_session": result.PaymentSession,
			})
		}).
		GET("/registrations", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var registrations []models.Registration
			if err := db.
				Where(&models.Registration{UserID: userId}).
				Preload("Event").
				Order("created_at desc").
				Limit(100).
				Find(&registrations).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": registrations, "count": len(registrations)})
		}).
		GET("/registrations/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			reg, err := engine.GetRegistration(ctx.Request.Context(), params.ID)
			if err != nil && !errors.Is(err, core.ErrExpiredRegistration) {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			if reg.UserID != userId {
				ctx.Status(http.StatusNotFound)
				return
			}
			resp := types.APIResponseRegistration{
				ID:            reg.ID,
				EventID:       reg.EventID,
				Status:        string(reg.Status),
				PaymentStatus: string(reg.PaymentStatus),
				FinalPrice:    reg.FinalPrice,
				TicketCode:    reg.TicketCode,
				ExpiresAt:     reg.ExpiresAt,
				Timestamps:    reg.Timestamps,
			}
			if errors.Is(err, core.ErrExpiredRegistration) {
				ctx.JSON(http.StatusGone, gin.H{
					"data":  resp,
					"error": core.ErrExpiredRegistration.Error(),
				})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": resp})
		}).
		PUT("/registrations/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			override := ctx.GetString("role") == "organizer"
			if err := engine.Cancel(ctx.Request.Context(), params.ID, userId, override); err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
