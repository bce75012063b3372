package controllers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/princinho/drivequiz/auth"
	"github.com/princinho/drivequiz/gate"
	"github.com/princinho/drivequiz/logging"
	"github.com/princinho/drivequiz/middleware"
	"github.com/princinho/drivequiz/storage"
	"github.com/princinho/drivequiz/utils"
)

// Store is the full persistence surface the HTTP layer uses.
type Store interface {
	UserStore
	QuizStore
	TopicStore
}

type Deps struct {
	Store     Store
	Engine    StatsEngine
	Hasher    *auth.PasswordHasher
	Sessions  *auth.SessionVerifier
	Bearer    *auth.BearerVerifier
	Gate      gate.Gate
	Objects   storage.ObjectStore
	Validator *utils.FileValidator
	Log       logging.Logger

	AllowedOrigins []string
	CookieSecure   bool
}

// NewRouter builds the gin engine with every route and middleware wired.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()

	allowedOrigins := map[string]bool{}
	for _, origin := range d.AllowedOrigins {
		allowedOrigins[origin] = true
	}
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.AccessGate(d.Gate, d.Sessions))

	r.GET("/ping", Ping())

	// console pages; the gate decides who sees them
	r.GET("/", ConsolePage("Admin"))
	r.GET(d.Gate.LoginPath, ConsolePage("Login"))
	r.GET(d.Gate.ZoneRoot, ConsolePage("Dashboard"))
	r.GET(d.Gate.ZoneRoot+"/quiz", ConsolePage("Quiz questions"))
	r.GET(d.Gate.ZoneRoot+"/topics", ConsolePage("Learning topics"))

	api := r.Group("/api")

	// mobile client
	api.POST("/user/register", Register(d.Store, d.Hasher))
	api.POST("/user/login", UserLogin(d.Store, d.Hasher, d.Bearer))
	learner := api.Group("/user", middleware.RequireBearer(d.Bearer))
	{
		learner.POST("/stats", SubmitStats(d.Engine))
		learner.GET("/stats", GetStats(d.Store))
	}
	api.GET("/quiz", ListQuizzes(d.Store))
	api.GET("/topics", ListTopics(d.Store))

	// admin console
	api.POST("/auth/login", AdminLogin(d.Store, d.Hasher, d.Sessions, d.CookieSecure))
	api.POST("/auth/logout", AdminLogout(d.CookieSecure))

	admin := api.Group("", middleware.RequireAdminSession(d.Sessions))
	{
		admin.POST("/quiz/add", AddQuiz(d.Store))
		admin.POST("/topics/add", AddTopic(d.Store))
		admin.POST("/uploads/image", UploadImage(d.Objects, d.Validator))
		admin.DELETE("/uploads/image", DeleteImage(d.Objects))
		admin.POST("/admin/users/:id/stats/rebuild", RebuildStats(d.Engine))
		admin.POST("/admin/me/password", ChangeMyPassword(d.Store, d.Hasher))
	}

	return r
}
