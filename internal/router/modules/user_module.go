package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/users-service/internal/container"
	handlers "github.com/campuskit/users-service/internal/interface/http"
	"github.com/campuskit/users-service/internal/interface/middleware"
)

// UserModule wires user HTTP handlers into routes.
// Routes (under /api):
//
//	GET    /users            list
//	GET    /users/filter     get by login name (?name=)
//	GET    /users/search     full-text search (?q=)
//	GET    /users/:id        get by id
//	POST   /users            create
//	PUT    /users/:id        update
//	DELETE /users/:id        delete
//	DELETE /users            clear (administrative)
type UserModule struct {
	Handler *handlers.UserHandler
}

func NewUserModule(h *handlers.UserHandler) *UserModule {
	return &UserModule{Handler: h}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	readLimiter := middleware.RateLimit(rdb, 300, time.Minute, middleware.KeyByIP())
	writeLimiter := middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByIPAndPath())

	users := rg.Group("/users")
	{
		users.GET("", readLimiter, m.Handler.List)
		users.GET("/filter", readLimiter, m.Handler.Filter)
		users.GET("/search", readLimiter, m.Handler.Search)
		users.GET("/:id", readLimiter, m.Handler.GetByID)

		users.POST("", writeLimiter, m.Handler.Create)
		users.PUT("/:id", writeLimiter, m.Handler.Update)
		users.DELETE("/:id", writeLimiter, m.Handler.Delete)
		users.DELETE("", writeLimiter, m.Handler.Clear)
	}
}
