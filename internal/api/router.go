package api

import (
	"fmt"
	"log"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
	"gorm.io/gorm"

	_ "github.com/jukalemanmath/mydrive-backend/docs"

	"github.com/jukalemanmath/mydrive-backend/internal/api/handlers"
	"github.com/jukalemanmath/mydrive-backend/internal/api/middleware"
	"github.com/jukalemanmath/mydrive-backend/internal/config"
	"github.com/jukalemanmath/mydrive-backend/internal/storage"
	"github.com/rs/cors"
)

func SetupRouter(db *gorm.DB, blobs storage.BlobStore) http.Handler {
	handlers.Init(db, blobs)

	mainMux := http.NewServeMux()
	c := cors.New(config.Envs.CorsConfig)

	// ---------- PUBLIC ROUTES ----------
	mainMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	mainMux.HandleFunc("/docs/", httpSwagger.WrapHandler)

	authMux := http.NewServeMux()
	authMux.HandleFunc("/sign-up", handlers.RegisterUser)
	authMux.HandleFunc("/login", handlers.LoginUser)
	authMux.HandleFunc("/google/login", handlers.HandleGoogleLogin)
	authMux.HandleFunc("/google/callback", handlers.HandleGoogleCallback)

	mainMux.Handle("/api/v1/auth/",
		http.StripPrefix("/api/v1/auth", authMux),
	)

	// ---------- PROTECTED ROUTES ----------
	protectedMux := http.NewServeMux()

	fileMux := http.NewServeMux()
	fileMux.HandleFunc("POST /upload", handlers.UploadFile)
	fileMux.HandleFunc("GET /shared-with-me", handlers.SharedWithMe)
	fileMux.HandleFunc("GET /recent-shared", handlers.RecentShared)
	fileMux.HandleFunc("GET /all", handlers.ListAllFiles)
	fileMux.HandleFunc("GET /{$}", handlers.ListFiles)
	fileMux.HandleFunc("GET /{fileID}", handlers.GetFile)
	fileMux.HandleFunc("DELETE /{fileID}", handlers.DeleteFile)
	fileMux.HandleFunc("PATCH /{fileID}/move", handlers.MoveItem)
	fileMux.HandleFunc("GET /{fileID}/content", handlers.GetFileContent)
	fileMux.HandleFunc("GET /{fileID}/download", handlers.DownloadFile)
	fileMux.HandleFunc("GET /{fileID}/contents", handlers.FolderContents)
	fileMux.HandleFunc("POST /{fileID}/share", handlers.ShareItem)
	fileMux.HandleFunc("POST /{fileID}/versions", handlers.CreateVersion)
	fileMux.HandleFunc("GET /{fileID}/versions", handlers.ListVersions)
	fileMux.HandleFunc("GET /{fileID}/versions/{number}/content", handlers.GetVersionContent)
	fileMux.HandleFunc("POST /{fileID}/versions/{number}/restore", handlers.RestoreVersion)
	fileMux.HandleFunc("DELETE /{fileID}/versions/{number}", handlers.DeleteVersion)

	userMux := http.NewServeMux()
	userMux.HandleFunc("GET /me", handlers.Me)
	userMux.HandleFunc("PATCH /me", handlers.UpdateMe)
	userMux.HandleFunc("PATCH /me/password", handlers.ChangePassword)

	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET /users", handlers.AdminListUsers)
	adminMux.HandleFunc("GET /users/{userID}", handlers.AdminGetUser)
	adminMux.HandleFunc("PATCH /users/{userID}", handlers.AdminUpdateUser)
	adminMux.HandleFunc("DELETE /users/{userID}", handlers.AdminDeleteUser)

	protectedMux.Handle("/files/", http.StripPrefix("/files", fileMux))
	protectedMux.HandleFunc("POST /folders", handlers.CreateFolder)
	protectedMux.Handle("/users/", http.StripPrefix("/users", userMux))
	protectedMux.Handle("/admin/", http.StripPrefix("/admin", adminMux))

	protectedMux.HandleFunc("/auth/logout", handlers.Logout)

	mainMux.Handle("/api/v1/",
		http.StripPrefix(
			"/api/v1",
			middleware.AuthMiddleware(protectedMux),
		),
	)

	log.Println("Router initialized")
	handler := c.Handler(mainMux)
	handler = middleware.Logger(handler)
	return handler
}
