package main

import (
	"ers/src/config"
	"ers/src/db"
	"ers/src/models"
	"ers/src/types"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

func eventHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/events", func(ctx *gin.Context) {
			db := db.GetDb()
			var events []models.Event
			if err := db.
				Where(&models.Event{Status: types.EVENT_PUBLISHED}).
				Order("starts_at asc").
				Limit(100).
				Find(&events).
				Error; err != nil {
				log.Printf("Error retrieving Events: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": events, "count": len(events)})
		}).
		GET("/events/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			var event models.Event
			if err := db.
				Where(&models.Event{ID: params.ID}).
				First(&event).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.Status(http.StatusBadRequest)
				return
			}
			available := event.Available()
			status := string(event.Status)
			ctx.JSON(http.StatusOK, gin.H{"data": types.APIResponseEvent{
				ID:              event.ID,
				Title:           event.Title,
				Slug:            event.Slug,
				Status:          &status,
				StartsAt:        &event.StartsAt,
				Capacity:        &event.Capacity,
				Available:       &available,
				DepositPrice:    &event.DepositPrice,
				TransferAllowed: event.TransferAllowed,
			}})
		}).
		POST("/events", func(ctx *gin.Context) {
			var body types.CreateEventRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			startsAt, err := time.Parse(config.TIME_PARSE_FORMAT, body.StartsAt)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			organizerId := ctx.GetUint("id")
			status := types.EVENT_DRAFT
			if body.Publish {
				status = types.EVENT_PUBLISHED
			}
			event := models.Event{
				Title:              body.Title,
				Slug:               slug.Make(body.Title),
				Location:           body.Location,
				StartsAt:           startsAt,
				Status:             status,
				OrganizerID:        organizerId,
				Capacity:           body.Capacity,
				DepositPrice:       body.DepositPrice,
				TransferAllowed:    body.TransferAllowed,
				CancellationPolicy: body.CancellationPolicy,
			}
			if body.About != "" {
				event.About = &body.About
			}
			db := db.GetDb()
			if err := db.Create(&event).Error; err != nil {
				log.Printf("Error creating Event: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"id": event.ID})
		}).
		PATCH("/events/:id/publish", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			organizerId := ctx.GetUint("id")
			db := db.GetDb()
			res := db.
				Model(&models.Event{}).
				Where(&models.Event{ID: params.ID, OrganizerID: organizerId, Status: types.EVENT_DRAFT}).
				Update("status", types.EVENT_PUBLISHED)
			if res.Error != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": res.Error.Error()})
				return
			}
			if res.RowsAffected == 0 {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "event not found or not draft"})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		GET("/events/:id/registrations", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			organizerId := ctx.GetUint("id")
			db := db.GetDb()
			var event models.Event
			if err := db.
				Where(&models.Event{ID: params.ID, OrganizerID: organizerId}).
				First(&event).
				Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			var registrations []models.Registration
			if err := db.
				Where(&models.Registration{EventID: params.ID}).
				Order("created_at desc").
				Limit(100).
				Find(&registrations).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": registrations, "count": len(registrations)})
		})
	return g
}
