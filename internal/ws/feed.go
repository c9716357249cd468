package ws

import (
	"log"
	"net/http"
	"os"
	"time"

	"ekehi_backend/internal/repository"
	"ekehi_backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Feed pushes a periodic mining snapshot (session state, balance,
// auto-mining rate) to each connected client.
type Feed struct {
	Mining   *service.MiningService
	Accrual  *service.AccrualService
	UserRepo *repository.UserRepository
	Interval time.Duration
}

func NewFeed(mining *service.MiningService, accrual *service.AccrualService, users *repository.UserRepository) *Feed {
	return &Feed{
		Mining:   mining,
		Accrual:  accrual,
		UserRepo: users,
		Interval: time.Second,
	}
}

func HandleWS(feed *Feed) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		userID, err := service.ParseJWT(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
		upgrader := websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("ws upgrade error:", err)
			return
		}

		client := NewClient(userID, conn, feed)
		go client.Run()
	}
}
