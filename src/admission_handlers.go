package main

import (
	"context"
	"ers/src/lib"
	"ers/src/types"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func admissionHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/admission", func(ctx *gin.Context) {
			var body types.CreateAdmissionRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			reg, err := engine.CheckIn(ctx.Request.Context(), body.Code)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			// Door scanners poll this key to show recent admissions.
			if rd := lib.GetRedisClient(); rd != nil {
				rd.SetEx(context.Background(),
					fmt.Sprintf("admission:%s", body.Code),
					reg.ID, 2*time.Hour)
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reg})
		})
	return g
}
