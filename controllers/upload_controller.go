package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princinho/drivequiz/apperr"
	"github.com/princinho/drivequiz/models"
	"github.com/princinho/drivequiz/storage"
	"github.com/princinho/drivequiz/utils"
)

// uploadFolders maps the "folder" form value to an object name prefix.
var uploadFolders = map[string]string{
	"":       "quiz-images",
	"quiz":   "quiz-images",
	"topics": "topic-signs",
}

// POST /api/uploads/image (admin session), multipart field "image".
func UploadImage(store storage.ObjectStore, validator *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, validator.MaxSize()+1<<20)

		prefix, ok := uploadFolders[c.PostForm("folder")]
		if !ok {
			respondError(c, apperr.InvalidInput("folder must be 'quiz' or 'topics'"))
			return
		}

		fh, err := c.FormFile("image")
		if err != nil {
			respondError(c, apperr.InvalidInput("missing image file"))
			return
		}

		mimeType, err := validator.ValidateFile(fh)
		if err != nil {
			respondError(c, apperr.InvalidInput(err.Error()))
			return
		}

		f, err := fh.Open()
		if err != nil {
			respondError(c, apperr.InvalidInput("failed to read file"))
			return
		}
		defer f.Close()

		objectName := storage.ObjectName(prefix, fh.Filename, time.Now())
		url, err := store.Put(c.Request.Context(), objectName, f, fh.Size, mimeType)
		if err != nil {
			if errors.Is(err, storage.ErrDisabled) {
				respondError(c, apperr.Unavailable("image uploads are not configured", err))
				return
			}
			respondError(c, apperr.Unavailable("upload failed", err))
			return
		}

		c.JSON(http.StatusCreated, models.UploadedImage{
			URL:        url,
			ObjectName: objectName,
			MimeType:   mimeType,
			SizeBytes:  fh.Size,
			FileName:   fh.Filename,
			UploadedAt: time.Now().UTC(),
		})
	}
}

// DELETE /api/uploads/image?url=... (admin session)
func DeleteImage(store storage.ObjectStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, err := store.ObjectNameFromURL(c.Query("url"))
		if err != nil {
			respondError(c, apperr.InvalidInput("url is not an uploaded image"))
			return
		}
		if err := store.Delete(c.Request.Context(), name); err != nil {
			respondError(c, apperr.Unavailable("delete failed", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "objectName": name})
	}
}
