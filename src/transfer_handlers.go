package main

import (
	"ers/src/db"
	"ers/src/models"
	"ers/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
)

func transferHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/transfers", func(ctx *gin.Context) {
			var body types.CreateTransferRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			req, err := engine.CreateTransfer(ctx.Request.Context(), body.RegistrationID, userId, body.ToUserID, body.Message)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": req})
		}).
		GET("/transfers", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var transfers []models.TransferRequest
			if err := db.
				Where("from_user_id = ? OR to_user_id = ?", userId, userId).
				Preload("Registration").
				Order("created_at desc").
				Limit(100).
				Find(&transfers).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": transfers, "count": len(transfers)})
		}).
		PUT("/transfers/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.ResolveTransferRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			override := ctx.GetString("role") == "admin"
			decision := types.TransferStatus(body.Decision)
			if err := engine.ResolveTransfer(ctx.Request.Context(), params.ID, userId, decision, override); err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
