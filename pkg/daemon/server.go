package daemon

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/timer24h/pkg/events"
	"github.com/charlie0129/timer24h/pkg/slotclock"
	"github.com/charlie0129/timer24h/pkg/storage"
)

// Server is the authoritative schedule store exposed over HTTP.
type Server struct {
	backend storage.Backend
	hub     *events.EventHub
	clock   *slotclock.Resolver
	log     logrus.FieldLogger

	// writes are read-modify-write on the backend
	mu sync.Mutex
}

func NewServer(backend storage.Backend, hub *events.EventHub, clock *slotclock.Resolver, log logrus.FieldLogger) *Server {
	if hub == nil {
		hub = events.NewEventHub()
	}
	if clock == nil {
		clock = slotclock.New()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		backend: backend,
		hub:     hub,
		clock:   clock,
		log:     log,
	}
}

func (s *Server) Hub() *events.EventHub {
	return s.hub
}

func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(s.log))

	router.GET("/schedules", s.listSchedules)
	router.GET("/schedules/:id", s.getSchedule)
	router.PUT("/schedules/:id", s.setSchedule)
	router.DELETE("/schedules/:id", s.removeSchedule)
	router.PUT("/schedules/:id/conditions", s.setConditions)
	router.POST("/schedules/:id/enable", s.enableSchedule)
	router.POST("/schedules/:id/disable", s.disableSchedule)
	router.GET("/state", s.getState)
	router.GET("/events", s.streamEvents)
	router.GET("/version", getVersion)

	return router
}
