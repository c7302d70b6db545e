package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/pinboard/internal/filestore"
	"github.com/xxxsen/pinboard/internal/middleware"
	"github.com/xxxsen/pinboard/internal/service"
)

type RouterDeps struct {
	Auth           *service.AuthService
	Tags           *service.TagService
	Pins           *service.PinService
	Store          filestore.Store
	JWTSecret      []byte
	MaxUploadBytes int64
	LoginRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	useJSONFieldNames()

	auth := NewAuthHandler(deps.Auth)
	tags := NewTagHandler(deps.Tags)
	pins := NewPinHandler(deps.Pins, deps.MaxUploadBytes, api.BasePath())
	files := NewFileHandler(deps.Store)

	api.POST("/auth/register", auth.Register)
	api.POST("/auth/login", middleware.RateLimit(deps.LoginRateLimit), auth.Login)
	api.GET("/files/:key", files.Get)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret, deps.Auth))
	authGroup.GET("/auth/me", auth.Me)

	authGroup.GET("/tags/", tags.List)
	authGroup.POST("/tags/", tags.Create)

	authGroup.GET("/pins/", pins.List)
	authGroup.POST("/pins/", pins.Create)
	authGroup.GET("/pins/:id/", pins.Get)
	authGroup.PUT("/pins/:id/", pins.Update)
	authGroup.PATCH("/pins/:id/", pins.PartialUpdate)
	authGroup.DELETE("/pins/:id/", pins.Delete)
	authGroup.POST("/pins/:id/upload-image/", pins.UploadImage)
}
