package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/casacolor/casacolor-backend-go/internal/api/middleware"
	"github.com/casacolor/casacolor-backend-go/internal/database/models"
	"github.com/casacolor/casacolor-backend-go/pkg/utils"
)

const defaultPostLimit = 50

// GetPosts lists the most recent community posts
func (h *Handlers) GetPosts(c *gin.Context) {
	limit := defaultPostLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			utils.SendError(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	posts, err := h.repos.Post.List(c.Request.Context(), limit)
	if err != nil {
		h.log.WithError(err).Error("Failed to list posts")
		utils.SendError(c, http.StatusInternalServerError, "Failed to list posts")
		return
	}

	utils.SendSuccess(c, posts)
}

// GetPost returns a single post by ID
func (h *Handlers) GetPost(c *gin.Context) {
	post, err := h.repos.Post.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.SendError(c, http.StatusNotFound, "Post not found")
		return
	}

	utils.SendSuccess(c, post)
}

// CreatePost creates a community post. Body is JSON; an optional image is
// attached separately through UploadPostImage and referenced by path.
func (h *Handlers) CreatePost(c *gin.Context) {
	residentID, ok := middleware.ResidentID(c)
	if !ok {
		utils.SendError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Body      string `json:"body" binding:"required"`
		ImagePath string `json:"image_path"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	post := &models.Post{
		ID:       uuid.New().String(),
		AuthorID: residentID,
		Body:     req.Body,
	}
	if req.ImagePath != "" {
		post.ImagePath = sql.NullString{String: req.ImagePath, Valid: true}
	}

	if err := h.repos.Post.Create(c.Request.Context(), post); err != nil {
		h.log.WithError(err).Error("Failed to create post")
		utils.SendError(c, http.StatusInternalServerError, "Failed to create post")
		return
	}

	utils.SendSuccess(c, post)
}

// DeletePost removes a post; only its author may delete it
func (h *Handlers) DeletePost(c *gin.Context) {
	residentID, ok := middleware.ResidentID(c)
	if !ok {
		utils.SendError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	post, err := h.repos.Post.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.SendError(c, http.StatusNotFound, "Post not found")
		return
	}

	if post.AuthorID != residentID {
		utils.SendError(c, http.StatusForbidden, "Only the author can delete a post")
		return
	}

	if err := h.repos.Post.Delete(c.Request.Context(), post.ID); err != nil {
		h.log.WithError(err).Error("Failed to delete post")
		utils.SendError(c, http.StatusInternalServerError, "Failed to delete post")
		return
	}

	if post.ImagePath.Valid && h.images != nil {
		h.images.Remove(post.ImagePath.String)
	}

	utils.SendSuccess(c, gin.H{"deleted": post.ID})
}

// UploadPostImage stores an uploaded image and returns its paths for use in a
// subsequent CreatePost call
func (h *Handlers) UploadPostImage(c *gin.Context) {
	if h.images == nil {
		utils.SendError(c, http.StatusServiceUnavailable, "Image storage not available")
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Failed to get uploaded file")
		return
	}
	defer file.Close()

	stored, err := h.images.Save(file)
	if err != nil {
		h.log.WithError(err).WithField("filename", header.Filename).Warn("Image upload rejected")
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	utils.SendSuccess(c, stored)
}
